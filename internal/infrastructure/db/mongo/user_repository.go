package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/99minutos/service-requests/internal/core/domain"
)

// UpsertUser inserts u with $setOnInsert, leaving an existing document as is.
func (s *Store) UpsertUser(ctx context.Context, u *domain.User) error {
	if u.ID <= 0 {
		return domain.ErrInvalidUserID
	}
	doc := *u
	if doc.Role == "" {
		doc.Role = domain.RoleClient
	}
	if !doc.Role.Valid() {
		return domain.ErrInvalidRole
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = s.now()
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := s.users.UpdateOne(ctx,
		bson.M{"_id": doc.ID},
		bson.M{"$setOnInsert": bson.M{
			"handle":       doc.Handle,
			"display_name": doc.DisplayName,
			"role":         doc.Role,
			"created_at":   doc.CreatedAt,
		}},
		options.Update().SetUpsert(true),
	)
	if mongo.IsDuplicateKeyError(err) {
		// Lost an insert race with the same id: the other insert stands.
		return nil
	}
	return storageErr("upsert user", err)
}

func (s *Store) SetRole(ctx context.Context, id int64, role domain.Role) error {
	if !role.Valid() {
		return domain.ErrInvalidRole
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := s.users.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"role": role}})
	if err != nil {
		return storageErr("set role", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var u domain.User
	if err := s.users.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, storageErr("get user", err)
	}
	return &u, nil
}

func (s *Store) ListUsersByRole(ctx context.Context, role domain.Role) ([]*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := s.users.Find(ctx, bson.M{"role": role}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, storageErr("list users", err)
	}
	out := []*domain.User{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, storageErr("list users", err)
	}
	return out, nil
}
