package ports

import (
	"context"

	"github.com/99minutos/service-requests/internal/core/domain"
)

// RegisterUserInput identifies a user on first contact.
type RegisterUserInput struct {
	ID          int64
	Handle      string
	DisplayName string
}

// CreateRequestInput is the client's draft, submitted in one call.
type CreateRequestInput struct {
	ClientID    int64
	ProblemText string
	PhotoBefore string // optional media reference
	// IdempotencyKey, when set, makes a redelivered submission return the
	// id of the request it created the first time.
	IdempotencyKey string
}

// CreateRequestResult is returned by CreateRequest.
type CreateRequestResult struct {
	RequestID      int64
	AlreadyExisted bool
}

// ListForRoleInput carries the parameters of ListRequestsForRole.
type ListForRoleInput struct {
	UserID int64
	// Role is the view the caller asks for; it must match the stored role.
	Role   domain.Role
	Status domain.RequestStatus // optional
}

// AdvanceInput carries one participant action.
type AdvanceInput struct {
	ActorID   int64
	RequestID int64
	Action    domain.Action
	PhotoRef  string // complete: photo_after
}

// RequestService is the lifecycle controller consumed by front ends.
type RequestService interface {
	RegisterOrGetUser(ctx context.Context, in RegisterUserInput) (*domain.User, error)
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	SetRole(ctx context.Context, actorID, userID int64, role domain.Role) (*domain.User, error)
	ListWorkers(ctx context.Context, managerID int64) ([]*domain.User, error)

	CreateRequest(ctx context.Context, in CreateRequestInput) (*CreateRequestResult, error)
	GetRequest(ctx context.Context, actorID, requestID int64) (*domain.Request, error)
	ListMyRequests(ctx context.Context, userID int64) ([]*domain.Request, error)
	ListRequestsForRole(ctx context.Context, in ListForRoleInput) ([]*domain.Request, error)
	History(ctx context.Context, actorID, requestID int64) ([]domain.RequestEvent, error)
	// AuthorizePhoto fails unless ref belongs to a request the actor may see.
	AuthorizePhoto(ctx context.Context, actorID int64, ref string) error

	Assign(ctx context.Context, managerID, requestID, workerID int64) (*domain.Request, error)
	AdvanceStatus(ctx context.Context, in AdvanceInput) (*domain.Request, error)
}
