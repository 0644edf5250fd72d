package handler

import (
	"strconv"
	"time"

	"github.com/99minutos/service-requests/internal/core/domain"
)

// --- Requests ---

type registerUserRequest struct {
	Handle      string `json:"handle"       validate:"max=64"`
	DisplayName string `json:"display_name" validate:"max=128"`
}

type setRoleRequest struct {
	Role string `json:"role" validate:"required,role"`
}

type createRequestRequest struct {
	ProblemText string `json:"problem_text"           form:"problem_text" validate:"required,max=4000"`
	PhotoBefore string `json:"photo_before,omitempty" form:"photo_before" validate:"omitempty,photoref"`
}

type assignRequest struct {
	WorkerID int64 `json:"worker_id" validate:"required,gt=0"`
}

type advanceRequest struct {
	PhotoAfter string `json:"photo_after,omitempty" form:"photo_after" validate:"omitempty,photoref"`
}

// --- Responses ---

// ErrorResponse is the canonical error envelope for all API errors.
type ErrorResponse struct {
	Error string `json:"error"`
}

type userResponse struct {
	ID          int64  `json:"id"`
	Handle      string `json:"handle,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	Role        string `json:"role"`
	CreatedAt   string `json:"created_at"`
}

type requestLinks struct {
	Self    string `json:"self"`
	History string `json:"history"`
}

type requestResponse struct {
	ID          int64        `json:"id"`
	ClientID    int64        `json:"client_id"`
	ProblemText string       `json:"problem_text"`
	Status      string       `json:"status"`
	AssignedTo  *int64       `json:"assigned_to"`
	PhotoBefore string       `json:"photo_before,omitempty"`
	PhotoAfter  string       `json:"photo_after,omitempty"`
	CreatedAt   string       `json:"created_at"`
	FinishedAt  *string      `json:"finished_at"`
	Links       requestLinks `json:"_links"`
}

type createRequestResponse struct {
	ID             int64        `json:"id"`
	AlreadyExisted bool         `json:"already_existed"`
	Links          requestLinks `json:"_links"`
}

type listResponse[T any] struct {
	Items []T `json:"items"`
	Count int `json:"count"`
}

type eventResponse struct {
	ID         int64  `json:"id"`
	Action     string `json:"action"`
	From       string `json:"from,omitempty"`
	To         string `json:"to"`
	ActorID    int64  `json:"actor_id"`
	AssignedTo *int64 `json:"assigned_to,omitempty"`
	Photo      string `json:"photo,omitempty"`
	At         string `json:"at"`
}

type mediaResponse struct {
	Ref  string `json:"ref"`
	Kind string `json:"kind"`
	URL  string `json:"url"`
}

// --- Domain → Response ---

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:          u.ID,
		Handle:      u.Handle,
		DisplayName: u.DisplayName,
		Role:        string(u.Role),
		CreatedAt:   formatTime(u.CreatedAt),
	}
}

func toUserList(users []*domain.User) listResponse[userResponse] {
	items := make([]userResponse, 0, len(users))
	for _, u := range users {
		items = append(items, toUserResponse(u))
	}
	return listResponse[userResponse]{Items: items, Count: len(items)}
}

func linksFor(id int64) requestLinks {
	self := "/v1/requests/" + strconv.FormatInt(id, 10)
	return requestLinks{Self: self, History: self + "/history"}
}

func toRequestResponse(r *domain.Request) requestResponse {
	resp := requestResponse{
		ID:          r.ID,
		ClientID:    r.ClientID,
		ProblemText: r.ProblemText,
		Status:      string(r.Status),
		AssignedTo:  r.AssignedTo,
		PhotoBefore: r.PhotoBefore,
		PhotoAfter:  r.PhotoAfter,
		CreatedAt:   formatTime(r.CreatedAt),
		Links:       linksFor(r.ID),
	}
	if r.FinishedAt != nil {
		f := formatTime(*r.FinishedAt)
		resp.FinishedAt = &f
	}
	return resp
}

func toRequestList(rs []*domain.Request) listResponse[requestResponse] {
	items := make([]requestResponse, 0, len(rs))
	for _, r := range rs {
		items = append(items, toRequestResponse(r))
	}
	return listResponse[requestResponse]{Items: items, Count: len(items)}
}

func toEventList(events []domain.RequestEvent) listResponse[eventResponse] {
	items := make([]eventResponse, 0, len(events))
	for _, e := range events {
		items = append(items, eventResponse{
			ID:         e.ID,
			Action:     string(e.Action),
			From:       string(e.From),
			To:         string(e.To),
			ActorID:    e.ActorID,
			AssignedTo: e.AssignedTo,
			Photo:      e.Photo,
			At:         formatTime(e.At),
		})
	}
	return listResponse[eventResponse]{Items: items, Count: len(items)}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
