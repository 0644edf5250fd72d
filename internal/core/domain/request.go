package domain

import (
	"fmt"
	"strings"
	"time"
)

// RequestStatus represents the lifecycle state of a service request.
type RequestStatus string

const (
	StatusNew        RequestStatus = "new"
	StatusAssigned   RequestStatus = "assigned"
	StatusInProgress RequestStatus = "in_progress"
	StatusDone       RequestStatus = "done"
	StatusConfirmed  RequestStatus = "confirmed"
)

// ParseStatus converts a string into a RequestStatus.
func ParseStatus(s string) (RequestStatus, error) {
	switch st := RequestStatus(s); st {
	case StatusNew, StatusAssigned, StatusInProgress, StatusDone, StatusConfirmed:
		return st, nil
	}
	return "", ErrInvalidStatus
}

// Finished reports whether a request in this status carries a finished_at stamp.
func (s RequestStatus) Finished() bool {
	return s == StatusDone || s == StatusConfirmed
}

// Terminal reports whether no action leads out of s.
func (s RequestStatus) Terminal() bool {
	for _, r := range rules {
		if r.From == s {
			return false
		}
	}
	return true
}

// CanTransitionTo reports whether some action moves a request from s to next.
func (s RequestStatus) CanTransitionTo(next RequestStatus) bool {
	for _, r := range rules {
		if r.From == s && r.To == next {
			return true
		}
	}
	return false
}

// Action names a lifecycle step requested by a user.
type Action string

const (
	ActionCreate   Action = "create"
	ActionAssign   Action = "assign"
	ActionStart    Action = "start"
	ActionComplete Action = "complete"
	ActionConfirm  Action = "confirm"
	ActionReject   Action = "reject"
)

// ParseAction accepts the actions a participant may request through
// AdvanceStatus. Assign and create have dedicated operations.
func ParseAction(s string) (Action, error) {
	switch a := Action(strings.ToLower(strings.TrimSpace(s))); a {
	case ActionStart, ActionComplete, ActionConfirm, ActionReject:
		return a, nil
	}
	return "", ErrUnknownAction
}

// Party identifies who may perform an action on a given request.
type Party string

const (
	PartyManager  Party = "manager"  // any user with role manager
	PartyAssignee Party = "assignee" // the worker in assigned_to
	PartyOwner    Party = "owner"    // the client that raised the request
)

// Rule is one edge of the lifecycle state machine.
type Rule struct {
	Action        Action
	From          RequestStatus
	To            RequestStatus
	Party         Party
	RequiresPhoto bool
}

var rules = map[Action]Rule{
	ActionAssign:   {Action: ActionAssign, From: StatusNew, To: StatusAssigned, Party: PartyManager},
	ActionStart:    {Action: ActionStart, From: StatusAssigned, To: StatusInProgress, Party: PartyAssignee},
	ActionComplete: {Action: ActionComplete, From: StatusInProgress, To: StatusDone, Party: PartyAssignee, RequiresPhoto: true},
	ActionConfirm:  {Action: ActionConfirm, From: StatusDone, To: StatusConfirmed, Party: PartyOwner},
	ActionReject:   {Action: ActionReject, From: StatusDone, To: StatusInProgress, Party: PartyOwner},
}

// RuleFor returns the state machine edge for action.
func RuleFor(action Action) (Rule, bool) {
	r, ok := rules[action]
	return r, ok
}

const maxPhotoRefLen = 512

// ValidPhotoRef reports whether ref is usable as an opaque media reference.
func ValidPhotoRef(ref string) bool {
	if ref == "" || len(ref) > maxPhotoRefLen {
		return false
	}
	for _, c := range ref {
		if c <= ' ' || c == 0x7f {
			return false
		}
	}
	return true
}

// Request is the aggregate root: one service ticket raised by a client.
type Request struct {
	ID          int64         `json:"id"`
	ClientID    int64         `json:"client_id"`
	ProblemText string        `json:"problem_text"`
	Status      RequestStatus `json:"status"`
	AssignedTo  *int64        `json:"assigned_to,omitempty"`
	PhotoBefore string        `json:"photo_before,omitempty"`
	PhotoAfter  string        `json:"photo_after,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	FinishedAt  *time.Time    `json:"finished_at,omitempty"`
}

// AssignedWorker returns the assignee id, or 0 when unassigned.
func (r *Request) AssignedWorker() int64 {
	if r.AssignedTo == nil {
		return 0
	}
	return *r.AssignedTo
}

// VisibleTo reports whether u may read r.
func (r *Request) VisibleTo(u *User) bool {
	switch u.Role {
	case RoleManager:
		return true
	case RoleMaster:
		return r.AssignedWorker() == u.ID || r.ClientID == u.ID
	default:
		return r.ClientID == u.ID
	}
}

// PlanOptions carries the inputs some actions need.
type PlanOptions struct {
	Worker     *User  // assign: the target worker
	PhotoAfter string // complete: evidence of completion
}

// Plan validates that actor may perform action on r in its current state and
// returns the resulting field changes. r is not modified.
func (r *Request) Plan(actor *User, action Action, opts PlanOptions, now time.Time) (Transition, error) {
	rule, ok := rules[action]
	if !ok {
		return Transition{}, ErrUnknownAction
	}
	if r.Status != rule.From {
		return Transition{}, fmt.Errorf("%w: cannot %s a request in status %s", ErrInvalidTransition, action, r.Status)
	}
	if !r.permits(actor, rule.Party) {
		return Transition{}, fmt.Errorf("%w: user %d cannot %s request %d", ErrForbidden, actor.ID, action, r.ID)
	}

	t := Transition{
		RequestID:  r.ID,
		ClientID:   r.ClientID,
		Action:     action,
		ActorID:    actor.ID,
		From:       r.Status,
		To:         rule.To,
		AssignedTo: r.AssignedTo,
		PhotoAfter: r.PhotoAfter,
		FinishedAt: r.FinishedAt,
		At:         now,
	}

	switch action {
	case ActionAssign:
		if opts.Worker == nil || opts.Worker.Role != RoleMaster {
			return Transition{}, ErrWorkerNotMaster
		}
		id := opts.Worker.ID
		t.AssignedTo = &id
	case ActionComplete:
		if rule.RequiresPhoto && opts.PhotoAfter == "" {
			return Transition{}, ErrPhotoRequired
		}
		finished := now
		t.PhotoAfter = opts.PhotoAfter
		t.FinishedAt = &finished
		t.Evidence = opts.PhotoAfter
	case ActionReject:
		// Rework: the rejected evidence survives in the history only.
		t.Evidence = r.PhotoAfter
		t.PhotoAfter = ""
		t.FinishedAt = nil
	}
	return t, nil
}

func (r *Request) permits(actor *User, p Party) bool {
	switch p {
	case PartyManager:
		return actor.Role == RoleManager
	case PartyAssignee:
		return r.AssignedTo != nil && *r.AssignedTo == actor.ID
	case PartyOwner:
		return r.ClientID == actor.ID
	}
	return false
}

// Transition is a validated status change. Stores write To, AssignedTo,
// PhotoAfter and FinishedAt only while the stored status still equals From.
type Transition struct {
	RequestID  int64
	ClientID   int64
	Action     Action
	ActorID    int64
	From       RequestStatus
	To         RequestStatus
	AssignedTo *int64
	PhotoAfter string
	FinishedAt *time.Time
	Evidence   string
	At         time.Time
}

// ApplyTo copies the transition's field values onto r.
func (t Transition) ApplyTo(r *Request) {
	r.Status = t.To
	r.AssignedTo = t.AssignedTo
	r.PhotoAfter = t.PhotoAfter
	r.FinishedAt = t.FinishedAt
}

// Event returns the history record for t.
func (t Transition) Event() RequestEvent {
	return RequestEvent{
		RequestID:  t.RequestID,
		ClientID:   t.ClientID,
		Action:     t.Action,
		From:       t.From,
		To:         t.To,
		ActorID:    t.ActorID,
		AssignedTo: t.AssignedTo,
		Photo:      t.Evidence,
		At:         t.At,
	}
}
