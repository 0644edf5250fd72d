package domain

import "time"

// RequestEvent is one entry of a request's append-only history. It is also
// the payload of lifecycle notifications, so it names the parties involved.
type RequestEvent struct {
	ID         int64         `json:"id,omitempty"`
	RequestID  int64         `json:"request_id"`
	ClientID   int64         `json:"client_id"`
	Action     Action        `json:"action"`
	From       RequestStatus `json:"from,omitempty"`
	To         RequestStatus `json:"to"`
	ActorID    int64         `json:"actor_id"`
	AssignedTo *int64        `json:"assigned_to,omitempty"`
	Photo      string        `json:"photo,omitempty"`
	At         time.Time     `json:"at"`
}

// CreationEvent is the first history entry of r.
func CreationEvent(r *Request) RequestEvent {
	return RequestEvent{
		RequestID: r.ID,
		ClientID:  r.ClientID,
		Action:    ActionCreate,
		To:        StatusNew,
		ActorID:   r.ClientID,
		Photo:     r.PhotoBefore,
		At:        r.CreatedAt,
	}
}
