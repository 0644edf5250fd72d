package mongo

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/99minutos/service-requests/internal/core/domain"
	"github.com/99minutos/service-requests/internal/core/ports"
)

const sequenceRequests = "requests"

type requestDoc struct {
	ID          int64        `bson:"_id"`
	ClientID    int64        `bson:"client_id"`
	ProblemText string       `bson:"problem_text"`
	Status      string       `bson:"status"`
	AssignedTo  *int64       `bson:"assigned_to"`
	PhotoBefore string       `bson:"photo_before,omitempty"`
	PhotoAfter  string       `bson:"photo_after,omitempty"`
	CreatedAt   time.Time    `bson:"created_at"`
	FinishedAt  *time.Time   `bson:"finished_at"`
	History     []historyDoc `bson:"history,omitempty"`
}

type historyDoc struct {
	Action     string    `bson:"action"`
	From       string    `bson:"from,omitempty"`
	To         string    `bson:"to"`
	ActorID    int64     `bson:"actor_id"`
	AssignedTo *int64    `bson:"assigned_to,omitempty"`
	Photo      string    `bson:"photo,omitempty"`
	At         time.Time `bson:"at"`
}

func (d requestDoc) toDomain() *domain.Request {
	return &domain.Request{
		ID:          d.ID,
		ClientID:    d.ClientID,
		ProblemText: d.ProblemText,
		Status:      domain.RequestStatus(d.Status),
		AssignedTo:  d.AssignedTo,
		PhotoBefore: d.PhotoBefore,
		PhotoAfter:  d.PhotoAfter,
		CreatedAt:   d.CreatedAt,
		FinishedAt:  d.FinishedAt,
	}
}

func toHistoryDoc(e domain.RequestEvent) historyDoc {
	return historyDoc{
		Action:     string(e.Action),
		From:       string(e.From),
		To:         string(e.To),
		ActorID:    e.ActorID,
		AssignedTo: e.AssignedTo,
		Photo:      e.Photo,
		At:         e.At,
	}
}

// withoutHistory keeps list and get queries from loading event arrays.
var withoutHistory = bson.M{"history": 0}

func (s *Store) CreateRequest(ctx context.Context, in ports.NewRequest) (int64, error) {
	text := strings.TrimSpace(in.ProblemText)
	if text == "" {
		return 0, domain.ErrEmptyProblemText
	}
	if in.PhotoBefore != "" && !domain.ValidPhotoRef(in.PhotoBefore) {
		return 0, domain.ErrInvalidPhotoRef
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := s.users.CountDocuments(ctx, bson.M{"_id": in.ClientID})
	if err != nil {
		return 0, storageErr("create request", err)
	}
	if n == 0 {
		return 0, domain.ErrUserNotFound
	}

	id, err := s.nextID(ctx, sequenceRequests)
	if err != nil {
		return 0, storageErr("create request", err)
	}

	doc := requestDoc{
		ID:          id,
		ClientID:    in.ClientID,
		ProblemText: text,
		Status:      string(domain.StatusNew),
		PhotoBefore: in.PhotoBefore,
		CreatedAt:   s.now(),
	}
	doc.History = []historyDoc{toHistoryDoc(domain.CreationEvent(doc.toDomain()))}

	if _, err := s.requests.InsertOne(ctx, doc); err != nil {
		return 0, storageErr("create request", err)
	}
	return id, nil
}

func (s *Store) GetRequest(ctx context.Context, id int64) (*domain.Request, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc requestDoc
	err := s.requests.FindOne(ctx, bson.M{"_id": id}, options.FindOne().SetProjection(withoutHistory)).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrRequestNotFound
		}
		return nil, storageErr("get request", err)
	}
	return doc.toDomain(), nil
}

func (s *Store) ListRequests(ctx context.Context, f ports.RequestFilter) ([]*domain.Request, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = string(f.Status)
	}
	if f.ClientID != 0 {
		filter["client_id"] = f.ClientID
	}
	if f.WorkerID != 0 {
		filter["assigned_to"] = f.WorkerID
	}
	if f.PhotoRef != "" {
		filter["$or"] = bson.A{
			bson.M{"photo_before": f.PhotoRef},
			bson.M{"photo_after": f.PhotoRef},
			bson.M{"history.photo": f.PhotoRef},
		}
	}

	opts := options.Find().
		SetProjection(withoutHistory).
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := s.requests.Find(ctx, filter, opts)
	if err != nil {
		return nil, storageErr("list requests", err)
	}
	var docs []requestDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, storageErr("list requests", err)
	}
	out := make([]*domain.Request, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (s *Store) UpdateStatus(ctx context.Context, id int64, status domain.RequestStatus, photoAfter string) error {
	if _, err := domain.ParseStatus(string(status)); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	set := bson.M{"status": string(status)}
	if status == domain.StatusDone {
		set["finished_at"] = s.now()
		set["photo_after"] = photoAfter
	}
	res, err := s.requests.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return storageErr("update status", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrRequestNotFound
	}
	return nil
}

func (s *Store) Assign(ctx context.Context, id, workerID int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := s.requests.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"assigned_to": workerID,
		"status":      string(domain.StatusAssigned),
	}})
	if err != nil {
		return storageErr("assign", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrRequestNotFound
	}
	return nil
}

// Transition sets the new fields and pushes the event in one update whose
// filter pins the current status.
func (s *Store) Transition(ctx context.Context, t domain.Transition) (*domain.Request, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	set := bson.M{
		"status":      string(t.To),
		"assigned_to": t.AssignedTo,
		"finished_at": t.FinishedAt,
	}
	update := bson.M{
		"$set":  set,
		"$push": bson.M{"history": toHistoryDoc(t.Event())},
	}
	if t.PhotoAfter == "" {
		update["$unset"] = bson.M{"photo_after": ""}
	} else {
		set["photo_after"] = t.PhotoAfter
	}

	var doc requestDoc
	err := s.requests.FindOneAndUpdate(ctx,
		bson.M{"_id": t.RequestID, "status": string(t.From)},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After).SetProjection(withoutHistory),
	).Decode(&doc)
	if err == nil {
		return doc.toDomain(), nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, storageErr("transition", err)
	}

	if _, err := s.GetRequest(ctx, t.RequestID); err != nil {
		return nil, err
	}
	return nil, domain.ErrStatusConflict
}

func (s *Store) History(ctx context.Context, id int64) ([]domain.RequestEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc requestDoc
	err := s.requests.FindOne(ctx, bson.M{"_id": id}, options.FindOne().SetProjection(bson.M{"client_id": 1, "history": 1})).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return []domain.RequestEvent{}, nil
		}
		return nil, storageErr("history", err)
	}
	out := make([]domain.RequestEvent, 0, len(doc.History))
	for i, h := range doc.History {
		out = append(out, domain.RequestEvent{
			ID:         int64(i + 1),
			RequestID:  id,
			ClientID:   doc.ClientID,
			Action:     domain.Action(h.Action),
			From:       domain.RequestStatus(h.From),
			To:         domain.RequestStatus(h.To),
			ActorID:    h.ActorID,
			AssignedTo: h.AssignedTo,
			Photo:      h.Photo,
			At:         h.At,
		})
	}
	return out, nil
}
