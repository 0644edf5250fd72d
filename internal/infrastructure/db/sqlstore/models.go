package sqlstore

import (
	"time"

	"github.com/99minutos/service-requests/internal/core/domain"
)

type userModel struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement:false"`
	Handle      string    `gorm:"column:handle"`
	DisplayName string    `gorm:"column:display_name"`
	Role        string    `gorm:"column:role;not null;index"`
	CreatedAt   time.Time `gorm:"column:created_at;not null"`
}

func (userModel) TableName() string { return "users" }

func toDomainUser(m userModel) *domain.User {
	return &domain.User{
		ID:          m.ID,
		Handle:      m.Handle,
		DisplayName: m.DisplayName,
		Role:        domain.Role(m.Role),
		CreatedAt:   m.CreatedAt,
	}
}

type requestModel struct {
	ID          int64      `gorm:"column:id;primaryKey;autoIncrement"`
	ClientID    int64      `gorm:"column:client_id;not null;index"`
	Client      *userModel `gorm:"foreignKey:ClientID;references:ID"`
	ProblemText string     `gorm:"column:problem_text;not null"`
	Status      string     `gorm:"column:status;not null;index"`
	AssignedTo  *int64     `gorm:"column:assigned_to;index"`
	PhotoBefore *string    `gorm:"column:photo_before"`
	PhotoAfter  *string    `gorm:"column:photo_after"`
	CreatedAt   time.Time  `gorm:"column:created_at;not null;index"`
	FinishedAt  *time.Time `gorm:"column:finished_at"`
}

func (requestModel) TableName() string { return "requests" }

func toDomainRequest(m requestModel) *domain.Request {
	return &domain.Request{
		ID:          m.ID,
		ClientID:    m.ClientID,
		ProblemText: m.ProblemText,
		Status:      domain.RequestStatus(m.Status),
		AssignedTo:  m.AssignedTo,
		PhotoBefore: deref(m.PhotoBefore),
		PhotoAfter:  deref(m.PhotoAfter),
		CreatedAt:   m.CreatedAt,
		FinishedAt:  m.FinishedAt,
	}
}

type eventModel struct {
	ID         int64     `gorm:"column:id;primaryKey;autoIncrement"`
	RequestID  int64     `gorm:"column:request_id;not null;index"`
	ClientID   int64     `gorm:"column:client_id;not null"`
	Action     string    `gorm:"column:action;not null"`
	FromStatus string    `gorm:"column:from_status"`
	ToStatus   string    `gorm:"column:to_status;not null"`
	ActorID    int64     `gorm:"column:actor_id;not null"`
	AssignedTo *int64    `gorm:"column:assigned_to"`
	Photo      *string   `gorm:"column:photo"`
	At         time.Time `gorm:"column:at;not null"`
}

func (eventModel) TableName() string { return "request_events" }

func toEventModel(e domain.RequestEvent) eventModel {
	return eventModel{
		RequestID:  e.RequestID,
		ClientID:   e.ClientID,
		Action:     string(e.Action),
		FromStatus: string(e.From),
		ToStatus:   string(e.To),
		ActorID:    e.ActorID,
		AssignedTo: e.AssignedTo,
		Photo:      nullable(e.Photo),
		At:         e.At,
	}
}

func toDomainEvent(m eventModel) domain.RequestEvent {
	return domain.RequestEvent{
		ID:         m.ID,
		RequestID:  m.RequestID,
		ClientID:   m.ClientID,
		Action:     domain.Action(m.Action),
		From:       domain.RequestStatus(m.FromStatus),
		To:         domain.RequestStatus(m.ToStatus),
		ActorID:    m.ActorID,
		AssignedTo: m.AssignedTo,
		Photo:      deref(m.Photo),
		At:         m.At,
	}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
