package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/service-requests/internal/api/middleware"
	"github.com/99minutos/service-requests/internal/core/domain"
	"github.com/99minutos/service-requests/internal/core/ports"
)

// stubService implements ports.RequestService; unset hooks fail the test.
type stubService struct {
	t          *testing.T
	registerFn func(ctx context.Context, in ports.RegisterUserInput) (*domain.User, error)
	getUserFn  func(ctx context.Context, id int64) (*domain.User, error)
	setRoleFn  func(ctx context.Context, actorID, userID int64, role domain.Role) (*domain.User, error)
	workersFn  func(ctx context.Context, managerID int64) ([]*domain.User, error)
	createFn   func(ctx context.Context, in ports.CreateRequestInput) (*ports.CreateRequestResult, error)
	getFn      func(ctx context.Context, actorID, requestID int64) (*domain.Request, error)
	mineFn     func(ctx context.Context, userID int64) ([]*domain.Request, error)
	listFn     func(ctx context.Context, in ports.ListForRoleInput) ([]*domain.Request, error)
	historyFn  func(ctx context.Context, actorID, requestID int64) ([]domain.RequestEvent, error)
	assignFn   func(ctx context.Context, managerID, requestID, workerID int64) (*domain.Request, error)
	advanceFn  func(ctx context.Context, in ports.AdvanceInput) (*domain.Request, error)
	photoFn    func(ctx context.Context, actorID int64, ref string) error
}

func (s *stubService) unexpected(name string) {
	s.t.Helper()
	s.t.Fatalf("unexpected call to %s", name)
}

func (s *stubService) RegisterOrGetUser(ctx context.Context, in ports.RegisterUserInput) (*domain.User, error) {
	if s.registerFn == nil {
		s.unexpected("RegisterOrGetUser")
	}
	return s.registerFn(ctx, in)
}

func (s *stubService) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	if s.getUserFn == nil {
		s.unexpected("GetUser")
	}
	return s.getUserFn(ctx, id)
}

func (s *stubService) SetRole(ctx context.Context, actorID, userID int64, role domain.Role) (*domain.User, error) {
	if s.setRoleFn == nil {
		s.unexpected("SetRole")
	}
	return s.setRoleFn(ctx, actorID, userID, role)
}

func (s *stubService) ListWorkers(ctx context.Context, managerID int64) ([]*domain.User, error) {
	if s.workersFn == nil {
		s.unexpected("ListWorkers")
	}
	return s.workersFn(ctx, managerID)
}

func (s *stubService) CreateRequest(ctx context.Context, in ports.CreateRequestInput) (*ports.CreateRequestResult, error) {
	if s.createFn == nil {
		s.unexpected("CreateRequest")
	}
	return s.createFn(ctx, in)
}

func (s *stubService) GetRequest(ctx context.Context, actorID, requestID int64) (*domain.Request, error) {
	if s.getFn == nil {
		s.unexpected("GetRequest")
	}
	return s.getFn(ctx, actorID, requestID)
}

func (s *stubService) ListMyRequests(ctx context.Context, userID int64) ([]*domain.Request, error) {
	if s.mineFn == nil {
		s.unexpected("ListMyRequests")
	}
	return s.mineFn(ctx, userID)
}

func (s *stubService) ListRequestsForRole(ctx context.Context, in ports.ListForRoleInput) ([]*domain.Request, error) {
	if s.listFn == nil {
		s.unexpected("ListRequestsForRole")
	}
	return s.listFn(ctx, in)
}

func (s *stubService) History(ctx context.Context, actorID, requestID int64) ([]domain.RequestEvent, error) {
	if s.historyFn == nil {
		s.unexpected("History")
	}
	return s.historyFn(ctx, actorID, requestID)
}

func (s *stubService) Assign(ctx context.Context, managerID, requestID, workerID int64) (*domain.Request, error) {
	if s.assignFn == nil {
		s.unexpected("Assign")
	}
	return s.assignFn(ctx, managerID, requestID, workerID)
}

func (s *stubService) AdvanceStatus(ctx context.Context, in ports.AdvanceInput) (*domain.Request, error) {
	if s.advanceFn == nil {
		s.unexpected("AdvanceStatus")
	}
	return s.advanceFn(ctx, in)
}

func (s *stubService) AuthorizePhoto(ctx context.Context, actorID int64, ref string) error {
	if s.photoFn == nil {
		s.unexpected("AuthorizePhoto")
	}
	return s.photoFn(ctx, actorID, ref)
}

var created = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

// newContext builds a context as the Identify and LoadActor middleware leave it.
func newContext(e *echo.Echo, method, target string, body io.Reader, actor int64, role domain.Role) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if actor != 0 {
		c.Set(middleware.KeyActorID, actor)
	}
	if role != "" {
		c.Set(middleware.KeyRole, role)
	}
	return c, rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("invalid json %q: %v", rec.Body.String(), err)
	}
}

func httpCode(t *testing.T, err error) int {
	t.Helper()
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected *echo.HTTPError, got %v", err)
	}
	return he.Code
}

func TestUserHandler_Register_UsesActorID(t *testing.T) {
	e := newEcho()
	stub := &stubService{t: t, registerFn: func(_ context.Context, in ports.RegisterUserInput) (*domain.User, error) {
		if in.ID != 42 || in.Handle != "alice" {
			t.Fatalf("unexpected input: %+v", in)
		}
		return &domain.User{ID: in.ID, Handle: in.Handle, Role: domain.RoleClient, CreatedAt: created}, nil
	}}
	c, rec := newContext(e, http.MethodPost, "/v1/users", strings.NewReader(`{"handle":"alice"}`), 42, "")

	if err := NewUserHandler(stub).Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp userResponse
	decode(t, rec, &resp)
	if resp.ID != 42 || resp.Role != "client" || resp.CreatedAt != "2026-03-02T10:00:00Z" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestUserHandler_Register_WithoutIdentity(t *testing.T) {
	e := newEcho()
	c, _ := newContext(e, http.MethodPost, "/v1/users", nil, 0, "")

	err := NewUserHandler(&stubService{t: t}).Register(c)
	if code := httpCode(t, err); code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", code)
	}
}

func TestUserHandler_Get_OthersNeedManager(t *testing.T) {
	e := newEcho()
	stub := &stubService{t: t, getUserFn: func(_ context.Context, id int64) (*domain.User, error) {
		return &domain.User{ID: id, Role: domain.RoleMaster, CreatedAt: created}, nil
	}}
	h := NewUserHandler(stub)

	c, _ := newContext(e, http.MethodGet, "/", nil, 7, domain.RoleClient)
	c.SetParamNames("id")
	c.SetParamValues("8")
	if err := h.Get(c); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}

	c, rec := newContext(e, http.MethodGet, "/", nil, 1, domain.RoleManager)
	c.SetParamNames("id")
	c.SetParamValues("8")
	if err := h.Get(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestUserHandler_SetRole_Validation(t *testing.T) {
	e := newEcho()
	h := NewUserHandler(&stubService{t: t})

	c, _ := newContext(e, http.MethodPut, "/", strings.NewReader(`{"role":"admin"}`), 1, domain.RoleManager)
	c.SetParamNames("id")
	c.SetParamValues("5")
	if code := httpCode(t, h.SetRole(c)); code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", code)
	}

	c, _ = newContext(e, http.MethodPut, "/", strings.NewReader(`{"role":"master"}`), 1, domain.RoleManager)
	c.SetParamNames("id")
	c.SetParamValues("abc")
	if code := httpCode(t, h.SetRole(c)); code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
}

func TestRequestHandler_Create(t *testing.T) {
	e := newEcho()
	stub := &stubService{t: t, createFn: func(_ context.Context, in ports.CreateRequestInput) (*ports.CreateRequestResult, error) {
		if in.ClientID != 100 || in.ProblemText != "leaky faucet" || in.IdempotencyKey != "msg-1" {
			t.Fatalf("unexpected input: %+v", in)
		}
		return &ports.CreateRequestResult{RequestID: 12}, nil
	}}
	c, rec := newContext(e, http.MethodPost, "/v1/requests", strings.NewReader(`{"problem_text":"leaky faucet"}`), 100, domain.RoleClient)
	c.Request().Header.Set("Idempotency-Key", "msg-1")

	if err := NewRequestHandler(stub, nil).Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var resp createRequestResponse
	decode(t, rec, &resp)
	if resp.ID != 12 || resp.AlreadyExisted || resp.Links.History != "/v1/requests/12/history" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestRequestHandler_Create_Replay(t *testing.T) {
	e := newEcho()
	stub := &stubService{t: t, createFn: func(context.Context, ports.CreateRequestInput) (*ports.CreateRequestResult, error) {
		return &ports.CreateRequestResult{RequestID: 12, AlreadyExisted: true}, nil
	}}
	c, rec := newContext(e, http.MethodPost, "/v1/requests", strings.NewReader(`{"problem_text":"leaky faucet"}`), 100, domain.RoleClient)
	c.Request().Header.Set("Idempotency-Key", "msg-1")

	if err := NewRequestHandler(stub, nil).Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRequestHandler_Create_Invalid(t *testing.T) {
	e := newEcho()
	h := NewRequestHandler(&stubService{t: t}, nil)

	cases := map[string]string{
		"empty text":  `{"problem_text":""}`,
		"spaced ref":  `{"problem_text":"x","photo_before":"a b"}`,
		"overlong":    `{"problem_text":"` + strings.Repeat("x", 4001) + `"}`,
		"wrong types": `{"problem_text":5}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			c, _ := newContext(e, http.MethodPost, "/v1/requests", strings.NewReader(body), 100, domain.RoleClient)
			code := httpCode(t, h.Create(c))
			if code != http.StatusUnprocessableEntity && code != http.StatusBadRequest {
				t.Fatalf("expected 400 or 422, got %d", code)
			}
		})
	}
}

func TestRequestHandler_List_ParsesFilters(t *testing.T) {
	e := newEcho()
	stub := &stubService{t: t, listFn: func(_ context.Context, in ports.ListForRoleInput) ([]*domain.Request, error) {
		if in.UserID != 300 || in.Role != domain.RoleMaster || in.Status != domain.StatusInProgress {
			t.Fatalf("unexpected input: %+v", in)
		}
		w := int64(300)
		return []*domain.Request{{ID: 3, ClientID: 100, Status: domain.StatusInProgress, AssignedTo: &w, CreatedAt: created}}, nil
	}}
	c, rec := newContext(e, http.MethodGet, "/v1/requests?role=master&status=in_progress", nil, 300, domain.RoleMaster)

	if err := NewRequestHandler(stub, nil).List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp listResponse[requestResponse]
	decode(t, rec, &resp)
	if resp.Count != 1 || resp.Items[0].AssignedTo == nil || *resp.Items[0].AssignedTo != 300 {
		t.Fatalf("unexpected payload: %+v", resp)
	}
	if resp.Items[0].FinishedAt != nil {
		t.Fatalf("finished_at must be null for unfinished requests")
	}

	c, _ = newContext(e, http.MethodGet, "/v1/requests?status=closed", nil, 300, domain.RoleMaster)
	if err := NewRequestHandler(stub, nil).List(c); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestRequestHandler_Advance(t *testing.T) {
	e := newEcho()
	const ref = "after/0b0e4d3c-1f2a-4b5c-8d9e-0123456789ab.jpg"
	finished := created.Add(time.Hour)
	stub := &stubService{t: t, advanceFn: func(_ context.Context, in ports.AdvanceInput) (*domain.Request, error) {
		if in.ActorID != 300 || in.RequestID != 9 || in.Action != domain.ActionComplete || in.PhotoRef != ref {
			t.Fatalf("unexpected input: %+v", in)
		}
		return &domain.Request{ID: 9, Status: domain.StatusDone, PhotoAfter: ref, CreatedAt: created, FinishedAt: &finished}, nil
	}}
	c, rec := newContext(e, http.MethodPost, "/", strings.NewReader(`{"photo_after":"`+ref+`"}`), 300, domain.RoleMaster)
	c.SetParamNames("id", "action")
	c.SetParamValues("9", "complete")

	if err := NewRequestHandler(stub, nil).Advance(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp requestResponse
	decode(t, rec, &resp)
	if resp.Status != "done" || resp.PhotoAfter != ref || resp.FinishedAt == nil {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestRequestHandler_Advance_Errors(t *testing.T) {
	e := newEcho()
	stub := &stubService{t: t, advanceFn: func(context.Context, ports.AdvanceInput) (*domain.Request, error) {
		return nil, domain.ErrStatusConflict
	}}
	h := NewRequestHandler(stub, nil)

	c, _ := newContext(e, http.MethodPost, "/", nil, 300, domain.RoleMaster)
	c.SetParamNames("id", "action")
	c.SetParamValues("9", "teleport")
	if err := h.Advance(c); !errors.Is(err, domain.ErrUnknownAction) {
		t.Fatalf("expected unknown action, got %v", err)
	}

	c, _ = newContext(e, http.MethodPost, "/", nil, 300, domain.RoleMaster)
	c.SetParamNames("id", "action")
	c.SetParamValues("9", "start")
	if err := h.Advance(c); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
}

func TestRequestHandler_Assign(t *testing.T) {
	e := newEcho()
	stub := &stubService{t: t, assignFn: func(_ context.Context, managerID, requestID, workerID int64) (*domain.Request, error) {
		if managerID != 200 || requestID != 4 || workerID != 300 {
			t.Fatalf("unexpected args: %d %d %d", managerID, requestID, workerID)
		}
		return &domain.Request{ID: 4, Status: domain.StatusAssigned, AssignedTo: &workerID, CreatedAt: created}, nil
	}}
	c, rec := newContext(e, http.MethodPost, "/", strings.NewReader(`{"worker_id":300}`), 200, domain.RoleManager)
	c.SetParamNames("id")
	c.SetParamValues("4")

	if err := NewRequestHandler(stub, nil).Assign(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRequestHandler_History(t *testing.T) {
	e := newEcho()
	stub := &stubService{t: t, historyFn: func(_ context.Context, actorID, requestID int64) ([]domain.RequestEvent, error) {
		return []domain.RequestEvent{
			{ID: 1, RequestID: requestID, Action: domain.ActionCreate, To: domain.StatusNew, ActorID: 100, At: created},
			{ID: 2, RequestID: requestID, Action: domain.ActionAssign, From: domain.StatusNew, To: domain.StatusAssigned, ActorID: actorID, At: created},
		}, nil
	}}
	c, rec := newContext(e, http.MethodGet, "/", nil, 200, domain.RoleManager)
	c.SetParamNames("id")
	c.SetParamValues("4")

	if err := NewRequestHandler(stub, nil).History(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp listResponse[eventResponse]
	decode(t, rec, &resp)
	if resp.Count != 2 || resp.Items[0].Action != "create" || resp.Items[0].From != "" || resp.Items[1].From != "new" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

type stubMedia struct {
	saved []byte
	kind  ports.MediaKind
	err   error
}

func (m *stubMedia) Save(_ context.Context, kind ports.MediaKind, r io.Reader) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.saved, m.kind = b, kind
	return string(kind) + "/0b0e4d3c-1f2a-4b5c-8d9e-0123456789ab.png", nil
}

func (m *stubMedia) Open(_ context.Context, ref string) (io.ReadCloser, string, error) {
	if m.saved == nil {
		return nil, "", domain.ErrMediaNotFound
	}
	return io.NopCloser(bytes.NewReader(m.saved)), "image/png", nil
}

func (m *stubMedia) Exists(context.Context, string) error { return nil }

func multipartBody(t *testing.T, kind string, payload []byte) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if kind != "" {
		if err := w.WriteField("kind", kind); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if payload != nil {
		fw, err := w.CreateFormFile("photo", "photo.png")
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		_, _ = fw.Write(payload)
	}
	_ = w.Close()
	return &buf, w.FormDataContentType()
}

func TestMediaHandler_UploadAndDownload(t *testing.T) {
	e := newEcho()
	store := &stubMedia{}
	var checked string
	h := NewMediaHandler(store, &stubService{t: t, photoFn: func(_ context.Context, actor int64, ref string) error {
		if actor != 100 {
			t.Fatalf("unexpected actor %d", actor)
		}
		checked = ref
		return nil
	}})

	body, ct := multipartBody(t, "before", []byte("png-bytes"))
	req := httptest.NewRequest(http.MethodPost, "/v1/media", body)
	req.Header.Set(echo.HeaderContentType, ct)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Upload(c); err != nil {
		t.Fatalf("upload error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var resp mediaResponse
	decode(t, rec, &resp)
	if store.kind != ports.MediaBefore || resp.URL != "/v1/media/"+resp.Ref {
		t.Fatalf("unexpected payload: %+v", resp)
	}

	req = httptest.NewRequest(http.MethodGet, resp.URL, nil)
	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	c.Set(middleware.KeyActorID, int64(100))
	c.SetParamNames("*")
	c.SetParamValues(resp.Ref)
	if err := h.Download(c); err != nil {
		t.Fatalf("download error: %v", err)
	}
	if checked != resp.Ref {
		t.Fatalf("download must be authorized for %q, got %q", resp.Ref, checked)
	}
	if rec.Body.String() != "png-bytes" || rec.Header().Get(echo.HeaderContentType) != "image/png" {
		t.Fatalf("unexpected download: %q %q", rec.Body.String(), rec.Header().Get(echo.HeaderContentType))
	}
}

func TestMediaHandler_DownloadDeniedForInvisiblePhoto(t *testing.T) {
	e := newEcho()
	store := &stubMedia{}
	h := NewMediaHandler(store, &stubService{t: t, photoFn: func(context.Context, int64, string) error {
		return domain.ErrForbidden
	}})

	c, rec := newContext(e, http.MethodGet, "/v1/media/before/x.png", nil, 101, domain.RoleClient)
	c.SetParamNames("*")
	c.SetParamValues("before/x.png")
	if err := h.Download(c); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if rec.Body.Len() != 0 {
		t.Fatalf("nothing may be streamed, got %q", rec.Body.String())
	}
}

func TestMediaHandler_UploadRejectsBadKind(t *testing.T) {
	e := newEcho()
	h := NewMediaHandler(&stubMedia{}, &stubService{t: t})

	body, ct := multipartBody(t, "during", []byte("png-bytes"))
	req := httptest.NewRequest(http.MethodPost, "/v1/media", body)
	req.Header.Set(echo.HeaderContentType, ct)
	c := e.NewContext(req, httptest.NewRecorder())

	if code := httpCode(t, h.Upload(c)); code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}

	body, ct = multipartBody(t, "after", nil)
	req = httptest.NewRequest(http.MethodPost, "/v1/media", body)
	req.Header.Set(echo.HeaderContentType, ct)
	c = e.NewContext(req, httptest.NewRecorder())
	if code := httpCode(t, h.Upload(c)); code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
}

func TestHealthHandler_Readiness(t *testing.T) {
	e := newEcho()
	h := NewHealthHandler(map[string]Pinger{
		"store": PingFunc(func(context.Context) error { return nil }),
		"redis": PingFunc(func(context.Context) error { return errors.New("connection refused") }),
	})
	c, rec := newContext(e, http.MethodGet, "/health/ready", nil, 0, "")

	if err := h.Readiness(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	var resp readinessResponse
	decode(t, rec, &resp)
	if resp.Status != "degraded" || resp.Dependencies["store"].Status != "ok" || resp.Dependencies["redis"].Error == "" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestRequestHandler_Create_MultipartPhoto(t *testing.T) {
	e := newEcho()
	store := &stubMedia{}
	stub := &stubService{t: t, createFn: func(_ context.Context, in ports.CreateRequestInput) (*ports.CreateRequestResult, error) {
		if in.ProblemText != "broken socket" || !strings.HasPrefix(in.PhotoBefore, "before/") {
			t.Fatalf("unexpected input: %+v", in)
		}
		return &ports.CreateRequestResult{RequestID: 5}, nil
	}}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	_ = w.WriteField("problem_text", "broken socket")
	fw, _ := w.CreateFormFile("photo", "socket.png")
	_, _ = fw.Write([]byte("png-bytes"))
	_ = w.Close()

	req := httptest.NewRequest(http.MethodPost, "/v1/requests", &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(middleware.KeyActorID, int64(100))

	if err := NewRequestHandler(stub, store).Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if string(store.saved) != "png-bytes" || store.kind != ports.MediaBefore {
		t.Fatalf("photo not stored: %q %q", store.saved, store.kind)
	}
}
