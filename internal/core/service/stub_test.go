package service

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/99minutos/service-requests/internal/core/domain"
	"github.com/99minutos/service-requests/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub repository
// ---------------------------------------------------------------------------

type stubRepo struct {
	mu       sync.Mutex
	users    map[int64]*domain.User
	requests map[int64]*domain.Request
	events   map[int64][]domain.RequestEvent
	nextID   int64
	clock    time.Time
	failWith error // if set, every call returns this error
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		users:    make(map[int64]*domain.User),
		requests: make(map[int64]*domain.Request),
		events:   make(map[int64][]domain.RequestEvent),
		clock:    time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (r *stubRepo) UpsertUser(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	if _, ok := r.users[u.ID]; !ok {
		clone := *u
		r.users[u.ID] = &clone
	}
	return nil
}

func (r *stubRepo) SetRole(_ context.Context, id int64, role domain.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Role = role
	return nil
}

func (r *stubRepo) GetUser(_ context.Context, id int64) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *stubRepo) ListUsersByRole(_ context.Context, role domain.Role) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*domain.User{}
	for _, u := range r.users {
		if u.Role == role {
			clone := *u
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *stubRepo) CreateRequest(_ context.Context, in ports.NewRequest) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return 0, r.failWith
	}
	if in.ProblemText == "" {
		return 0, domain.ErrEmptyProblemText
	}
	if _, ok := r.users[in.ClientID]; !ok {
		return 0, domain.ErrUserNotFound
	}
	r.nextID++
	r.clock = r.clock.Add(time.Minute)
	req := &domain.Request{
		ID:          r.nextID,
		ClientID:    in.ClientID,
		ProblemText: in.ProblemText,
		Status:      domain.StatusNew,
		PhotoBefore: in.PhotoBefore,
		CreatedAt:   r.clock,
	}
	r.requests[req.ID] = req
	r.events[req.ID] = append(r.events[req.ID], domain.CreationEvent(req))
	return req.ID, nil
}

func (r *stubRepo) GetRequest(_ context.Context, id int64) (*domain.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	req, ok := r.requests[id]
	if !ok {
		return nil, domain.ErrRequestNotFound
	}
	clone := *req
	return &clone, nil
}

// ListRequests applies the same filters the real stores use.
func (r *stubRepo) ListRequests(_ context.Context, f ports.RequestFilter) ([]*domain.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*domain.Request{}
	for _, req := range r.requests {
		if f.Status != "" && req.Status != f.Status {
			continue
		}
		if f.ClientID != 0 && req.ClientID != f.ClientID {
			continue
		}
		if f.WorkerID != 0 && req.AssignedWorker() != f.WorkerID {
			continue
		}
		if f.PhotoRef != "" && !r.references(req, f.PhotoRef) {
			continue
		}
		clone := *req
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *stubRepo) references(req *domain.Request, ref string) bool {
	if req.PhotoBefore == ref || req.PhotoAfter == ref {
		return true
	}
	for _, e := range r.events[req.ID] {
		if e.Photo == ref {
			return true
		}
	}
	return false
}

func (r *stubRepo) UpdateStatus(_ context.Context, id int64, status domain.RequestStatus, photoAfter string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return domain.ErrRequestNotFound
	}
	req.Status = status
	if status == domain.StatusDone {
		now := r.clock
		req.FinishedAt = &now
		req.PhotoAfter = photoAfter
	}
	return nil
}

func (r *stubRepo) Assign(_ context.Context, id, workerID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return domain.ErrRequestNotFound
	}
	req.AssignedTo = &workerID
	req.Status = domain.StatusAssigned
	return nil
}

// Transition mirrors the guarded update of the real stores.
func (r *stubRepo) Transition(_ context.Context, t domain.Transition) (*domain.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	req, ok := r.requests[t.RequestID]
	if !ok {
		return nil, domain.ErrRequestNotFound
	}
	if req.Status != t.From {
		return nil, domain.ErrStatusConflict
	}
	t.ApplyTo(req)
	r.events[req.ID] = append(r.events[req.ID], t.Event())
	clone := *req
	return &clone, nil
}

func (r *stubRepo) History(_ context.Context, id int64) ([]domain.RequestEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.RequestEvent(nil), r.events[id]...), nil
}

func (r *stubRepo) seedUser(id int64, role domain.Role) {
	r.users[id] = &domain.User{ID: id, Role: role}
}

// ---------------------------------------------------------------------------
// Collaborator stubs
// ---------------------------------------------------------------------------

type stubIdempotency struct {
	mu      sync.Mutex
	keys    map[string]int64
	lookErr error
}

func (s *stubIdempotency) Lookup(_ context.Context, key string) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lookErr != nil {
		return 0, false, s.lookErr
	}
	id, ok := s.keys[key]
	return id, ok, nil
}

func (s *stubIdempotency) Remember(_ context.Context, key string, id int64, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.keys == nil {
		s.keys = make(map[string]int64)
	}
	s.keys[key] = id
	return nil
}

type stubPublisher struct {
	mu     sync.Mutex
	events []domain.RequestEvent
}

func (p *stubPublisher) Publish(ev domain.RequestEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

type stubMedia struct {
	refs map[string]bool
}

func (m *stubMedia) Save(context.Context, ports.MediaKind, io.Reader) (string, error) {
	return "", nil
}

func (m *stubMedia) Open(context.Context, string) (io.ReadCloser, string, error) {
	return nil, "", domain.ErrMediaNotFound
}

func (m *stubMedia) Exists(_ context.Context, ref string) error {
	if !m.refs[ref] {
		return domain.ErrMediaNotFound
	}
	return nil
}
