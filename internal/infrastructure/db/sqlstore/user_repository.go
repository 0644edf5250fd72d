package sqlstore

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/99minutos/service-requests/internal/core/domain"
)

// UpsertUser inserts u unless a user with the same id exists.
func (s *Store) UpsertUser(ctx context.Context, u *domain.User) error {
	if u.ID <= 0 {
		return domain.ErrInvalidUserID
	}
	role := u.Role
	if role == "" {
		role = domain.RoleClient
	}
	if !role.Valid() {
		return domain.ErrInvalidRole
	}
	created := u.CreatedAt
	if created.IsZero() {
		created = s.now()
	}

	db, cancel := s.conn(ctx)
	defer cancel()

	m := userModel{
		ID:          u.ID,
		Handle:      u.Handle,
		DisplayName: u.DisplayName,
		Role:        string(role),
		CreatedAt:   created,
	}
	err := db.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).Create(&m).Error
	return storageErr("upsert user", err)
}

func (s *Store) SetRole(ctx context.Context, id int64, role domain.Role) error {
	if !role.Valid() {
		return domain.ErrInvalidRole
	}
	db, cancel := s.conn(ctx)
	defer cancel()

	res := db.Model(&userModel{}).Where("id = ?", id).Update("role", string(role))
	if res.Error != nil {
		return storageErr("set role", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	db, cancel := s.conn(ctx)
	defer cancel()

	var m userModel
	if err := db.First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, storageErr("get user", err)
	}
	return toDomainUser(m), nil
}

func (s *Store) ListUsersByRole(ctx context.Context, role domain.Role) ([]*domain.User, error) {
	db, cancel := s.conn(ctx)
	defer cancel()

	var rows []userModel
	if err := db.Where("role = ?", string(role)).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, storageErr("list users", err)
	}
	out := make([]*domain.User, 0, len(rows))
	for _, m := range rows {
		out = append(out, toDomainUser(m))
	}
	return out, nil
}
