package ports

import (
	"context"

	"github.com/99minutos/service-requests/internal/core/domain"
)

// RequestFilter selects requests for ListRequests. Zero fields do not filter,
// so the zero value lists everything.
type RequestFilter struct {
	Status   domain.RequestStatus // optional
	ClientID int64                // optional: owner
	WorkerID int64                // optional: assigned_to
	// PhotoRef matches requests whose before or after photo, current or
	// recorded in history, is this reference.
	PhotoRef string
}

// AllRequests matches every request.
func AllRequests() RequestFilter { return RequestFilter{} }

// ByStatus matches requests in one status.
func ByStatus(s domain.RequestStatus) RequestFilter { return RequestFilter{Status: s} }

// ByClient matches requests raised by one client.
func ByClient(clientID int64) RequestFilter { return RequestFilter{ClientID: clientID} }

// ByWorker matches requests assigned to one worker.
func ByWorker(workerID int64) RequestFilter { return RequestFilter{WorkerID: workerID} }

// ByWorkerAndStatus matches requests assigned to one worker in one status.
func ByWorkerAndStatus(workerID int64, s domain.RequestStatus) RequestFilter {
	return RequestFilter{WorkerID: workerID, Status: s}
}

// ByPhoto matches requests that reference one photo.
func ByPhoto(ref string) RequestFilter { return RequestFilter{PhotoRef: ref} }

// UserRepository persists users.
type UserRepository interface {
	// UpsertUser inserts u when its id is unknown and is a no-op otherwise;
	// an existing role or name is never overwritten.
	UpsertUser(ctx context.Context, u *domain.User) error
	SetRole(ctx context.Context, id int64, role domain.Role) error
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	ListUsersByRole(ctx context.Context, role domain.Role) ([]*domain.User, error)
}

// NewRequest carries the client's complete draft.
type NewRequest struct {
	ClientID    int64
	ProblemText string
	PhotoBefore string // optional
}

// RequestRepository persists requests and their history.
type RequestRepository interface {
	// CreateRequest stores a new request in status new and returns its id.
	// Ids are assigned by the store and strictly increase.
	CreateRequest(ctx context.Context, in NewRequest) (int64, error)
	GetRequest(ctx context.Context, id int64) (*domain.Request, error)
	// ListRequests returns matches newest first, or an empty slice.
	ListRequests(ctx context.Context, filter RequestFilter) ([]*domain.Request, error)

	// UpdateStatus sets the status unconditionally. Moving to done also
	// stamps finished_at and stores photoAfter.
	UpdateStatus(ctx context.Context, id int64, status domain.RequestStatus, photoAfter string) error
	// Assign sets assigned_to and status assigned in one write, without
	// checking the worker's role.
	Assign(ctx context.Context, id, workerID int64) error

	// Transition applies t only while the stored status equals t.From and
	// appends t's event to the history. A status mismatch returns
	// domain.ErrStatusConflict.
	Transition(ctx context.Context, t domain.Transition) (*domain.Request, error)
	// History returns the events of one request, oldest first.
	History(ctx context.Context, id int64) ([]domain.RequestEvent, error)
}

// Store is the injected persistence handle. It is opened at process start
// and closed at shutdown.
type Store interface {
	UserRepository
	RequestRepository
	Ping(ctx context.Context) error
	Close() error
}
