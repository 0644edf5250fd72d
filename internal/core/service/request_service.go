package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/service-requests/internal/core/domain"
	"github.com/99minutos/service-requests/internal/core/ports"
)

const defaultIdempotencyTTL = 24 * time.Hour

// Repository is the part of the store the lifecycle controller needs.
type Repository interface {
	ports.UserRepository
	ports.RequestRepository
}

// Options carries the optional collaborators of RequestService. Nil
// collaborators disable the corresponding feature.
type Options struct {
	Media          ports.MediaStore
	Idempotency    ports.IdempotencyStore
	Events         ports.EventPublisher
	AdminIDs       []int64
	IdempotencyTTL time.Duration
	Now            func() time.Time
}

// RequestService authorizes and validates every request mutation before
// delegating to the store.
type RequestService struct {
	repo   Repository
	opts   Options
	admins map[int64]struct{}
	logger zerolog.Logger
}

var _ ports.RequestService = (*RequestService)(nil)

func NewRequestService(repo Repository, opts Options, logger zerolog.Logger) *RequestService {
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	if opts.IdempotencyTTL <= 0 {
		opts.IdempotencyTTL = defaultIdempotencyTTL
	}
	admins := make(map[int64]struct{}, len(opts.AdminIDs))
	for _, id := range opts.AdminIDs {
		admins[id] = struct{}{}
	}
	return &RequestService{repo: repo, opts: opts, admins: admins, logger: logger}
}

// RegisterOrGetUser records a user on first contact and returns the stored
// record. Configured admin ids are promoted to manager.
func (s *RequestService) RegisterOrGetUser(ctx context.Context, in ports.RegisterUserInput) (*domain.User, error) {
	if in.ID <= 0 {
		return nil, domain.ErrInvalidUserID
	}

	err := s.repo.UpsertUser(ctx, &domain.User{
		ID:          in.ID,
		Handle:      strings.TrimPrefix(strings.TrimSpace(in.Handle), "@"),
		DisplayName: strings.TrimSpace(in.DisplayName),
		Role:        domain.RoleClient,
		CreatedAt:   s.opts.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("register user: %w", err)
	}

	user, err := s.repo.GetUser(ctx, in.ID)
	if err != nil {
		return nil, fmt.Errorf("register user: %w", err)
	}

	if _, ok := s.admins[in.ID]; ok && user.Role != domain.RoleManager {
		if err := s.repo.SetRole(ctx, in.ID, domain.RoleManager); err != nil {
			return nil, fmt.Errorf("promote admin: %w", err)
		}
		s.logger.Info().Int64("user_id", in.ID).Str("from", string(user.Role)).Msg("admin promoted to manager")
		user.Role = domain.RoleManager
	}
	return user, nil
}

func (s *RequestService) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	return s.repo.GetUser(ctx, id)
}

// SetRole is the administrative promotion path. Only managers may use it.
func (s *RequestService) SetRole(ctx context.Context, actorID, userID int64, role domain.Role) (*domain.User, error) {
	if !role.Valid() {
		return nil, domain.ErrInvalidRole
	}
	if _, err := s.requireRole(ctx, actorID, domain.RoleManager); err != nil {
		return nil, fmt.Errorf("set role: %w", err)
	}
	if err := s.repo.SetRole(ctx, userID, role); err != nil {
		return nil, fmt.Errorf("set role: %w", err)
	}
	s.logger.Info().Int64("actor_id", actorID).Int64("user_id", userID).Str("role", string(role)).Msg("role changed")
	return s.repo.GetUser(ctx, userID)
}

// ListWorkers returns the users a manager can assign requests to.
func (s *RequestService) ListWorkers(ctx context.Context, managerID int64) ([]*domain.User, error) {
	if _, err := s.requireRole(ctx, managerID, domain.RoleManager); err != nil {
		return nil, fmt.Errorf("list workers: %w", err)
	}
	return s.repo.ListUsersByRole(ctx, domain.RoleMaster)
}

// CreateRequest submits a client's draft in one atomic call.
func (s *RequestService) CreateRequest(ctx context.Context, in ports.CreateRequestInput) (*ports.CreateRequestResult, error) {
	text := strings.TrimSpace(in.ProblemText)
	if text == "" {
		return nil, domain.ErrEmptyProblemText
	}
	if err := s.checkPhoto(ctx, in.PhotoBefore); err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	key := idempotencyKey(in.ClientID, in.IdempotencyKey)
	if key != "" && s.opts.Idempotency != nil {
		id, found, err := s.opts.Idempotency.Lookup(ctx, key)
		if err != nil {
			s.logger.Warn().Err(err).Str("idempotency_key", in.IdempotencyKey).Msg("idempotency lookup failed, creating anyway")
		} else if found {
			s.logger.Info().Str("idempotency_key", in.IdempotencyKey).Int64("request_id", id).Msg("idempotent replay")
			return &ports.CreateRequestResult{RequestID: id, AlreadyExisted: true}, nil
		}
	}

	id, err := s.repo.CreateRequest(ctx, ports.NewRequest{
		ClientID:    in.ClientID,
		ProblemText: text,
		PhotoBefore: in.PhotoBefore,
	})
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if key != "" && s.opts.Idempotency != nil {
		if err := s.opts.Idempotency.Remember(ctx, key, id, s.opts.IdempotencyTTL); err != nil {
			s.logger.Warn().Err(err).Int64("request_id", id).Msg("failed to remember idempotency key")
		}
	}

	s.logger.Info().Int64("request_id", id).Int64("client_id", in.ClientID).Bool("photo", in.PhotoBefore != "").Msg("request created")

	if s.opts.Events != nil {
		if r, err := s.repo.GetRequest(ctx, id); err == nil {
			s.opts.Events.Publish(domain.CreationEvent(r))
		}
	}
	return &ports.CreateRequestResult{RequestID: id}, nil
}

// GetRequest returns one request if the actor may see it.
func (s *RequestService) GetRequest(ctx context.Context, actorID, requestID int64) (*domain.Request, error) {
	actor, err := s.repo.GetUser(ctx, actorID)
	if err != nil {
		return nil, err
	}
	r, err := s.repo.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !r.VisibleTo(actor) {
		return nil, fmt.Errorf("%w: user %d cannot view request %d", domain.ErrForbidden, actorID, requestID)
	}
	return r, nil
}

// ListMyRequests returns the requests the user raised, newest first.
func (s *RequestService) ListMyRequests(ctx context.Context, userID int64) ([]*domain.Request, error) {
	if _, err := s.repo.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.repo.ListRequests(ctx, ports.ByClient(userID))
}

// ListRequestsForRole applies the visibility rule of the user's stored role:
// clients see their own requests, masters the ones assigned to them and
// managers everything.
func (s *RequestService) ListRequestsForRole(ctx context.Context, in ports.ListForRoleInput) ([]*domain.Request, error) {
	user, err := s.repo.GetUser(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if in.Role != "" && in.Role != user.Role {
		return nil, fmt.Errorf("%w: user %d does not have role %s", domain.ErrForbidden, in.UserID, in.Role)
	}

	filter := ports.RequestFilter{Status: in.Status}
	switch user.Role {
	case domain.RoleManager:
	case domain.RoleMaster:
		filter.WorkerID = user.ID
	default:
		filter.ClientID = user.ID
	}
	return s.repo.ListRequests(ctx, filter)
}

// History returns the lifecycle of a request the actor may see.
func (s *RequestService) History(ctx context.Context, actorID, requestID int64) ([]domain.RequestEvent, error) {
	if _, err := s.GetRequest(ctx, actorID, requestID); err != nil {
		return nil, err
	}
	return s.repo.History(ctx, requestID)
}

// AuthorizePhoto lets managers open any photo. Everyone else needs a visible
// request whose current or past photos include ref, so a photo that was
// uploaded but never attached is readable by managers only.
func (s *RequestService) AuthorizePhoto(ctx context.Context, actorID int64, ref string) error {
	actor, err := s.repo.GetUser(ctx, actorID)
	if err != nil {
		return err
	}
	if actor.Role == domain.RoleManager {
		return nil
	}
	rs, err := s.repo.ListRequests(ctx, ports.ByPhoto(ref))
	if err != nil {
		return err
	}
	for _, r := range rs {
		if r.VisibleTo(actor) {
			return nil
		}
	}
	return fmt.Errorf("%w: user %d cannot view photo %s", domain.ErrForbidden, actorID, ref)
}

// Assign moves a new request to a worker. Only managers may assign and the
// worker must have role master.
func (s *RequestService) Assign(ctx context.Context, managerID, requestID, workerID int64) (*domain.Request, error) {
	manager, err := s.repo.GetUser(ctx, managerID)
	if err != nil {
		return nil, fmt.Errorf("assign: %w", err)
	}
	worker, err := s.repo.GetUser(ctx, workerID)
	if err != nil {
		return nil, fmt.Errorf("assign: worker %d: %w", workerID, err)
	}
	r, err := s.repo.GetRequest(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("assign: %w", err)
	}

	t, err := r.Plan(manager, domain.ActionAssign, domain.PlanOptions{Worker: worker}, s.opts.Now())
	if err != nil {
		return nil, fmt.Errorf("assign request %d: %w", requestID, err)
	}
	return s.apply(ctx, t)
}

// AdvanceStatus performs a participant action: start, complete, confirm or
// reject.
func (s *RequestService) AdvanceStatus(ctx context.Context, in ports.AdvanceInput) (*domain.Request, error) {
	if _, err := domain.ParseAction(string(in.Action)); err != nil {
		return nil, err
	}

	actor, err := s.repo.GetUser(ctx, in.ActorID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", in.Action, err)
	}
	r, err := s.repo.GetRequest(ctx, in.RequestID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", in.Action, err)
	}

	var opts domain.PlanOptions
	if in.Action == domain.ActionComplete {
		opts.PhotoAfter = in.PhotoRef
	}

	// State and identity are checked before the photo is looked at.
	t, err := r.Plan(actor, in.Action, opts, s.opts.Now())
	if err != nil {
		return nil, fmt.Errorf("%s request %d: %w", in.Action, in.RequestID, err)
	}
	if err := s.checkPhoto(ctx, t.PhotoAfter); err != nil {
		return nil, fmt.Errorf("%s request %d: %w", in.Action, in.RequestID, err)
	}
	return s.apply(ctx, t)
}

func (s *RequestService) apply(ctx context.Context, t domain.Transition) (*domain.Request, error) {
	updated, err := s.repo.Transition(ctx, t)
	if err != nil {
		if errors.Is(err, domain.ErrStatusConflict) {
			s.logger.Info().Int64("request_id", t.RequestID).Str("action", string(t.Action)).Msg("lost transition race")
		}
		return nil, fmt.Errorf("%s request %d: %w", t.Action, t.RequestID, err)
	}

	s.logger.Info().
		Int64("request_id", t.RequestID).
		Str("action", string(t.Action)).
		Str("from", string(t.From)).
		Str("to", string(t.To)).
		Int64("actor_id", t.ActorID).
		Msg("request transitioned")

	if s.opts.Events != nil {
		s.opts.Events.Publish(t.Event())
	}
	return updated, nil
}

func (s *RequestService) requireRole(ctx context.Context, userID int64, role domain.Role) (*domain.User, error) {
	u, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.Role != role {
		return nil, fmt.Errorf("%w: user %d is not a %s", domain.ErrForbidden, userID, role)
	}
	return u, nil
}

// checkPhoto rejects references that are malformed or, with a media store
// configured, not yet durable in it.
func (s *RequestService) checkPhoto(ctx context.Context, ref string) error {
	if ref == "" {
		return nil
	}
	if !domain.ValidPhotoRef(ref) {
		return domain.ErrInvalidPhotoRef
	}
	if s.opts.Media == nil {
		return nil
	}
	if err := s.opts.Media.Exists(ctx, ref); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: %s is not stored", domain.ErrInvalidPhotoRef, ref)
		}
		return err
	}
	return nil
}

func idempotencyKey(clientID int64, key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return ""
	}
	return strconv.FormatInt(clientID, 10) + ":" + key
}
