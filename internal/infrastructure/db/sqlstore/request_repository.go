package sqlstore

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/99minutos/service-requests/internal/core/domain"
	"github.com/99minutos/service-requests/internal/core/ports"
)

// CreateRequest inserts the request and its creation event in one
// transaction.
func (s *Store) CreateRequest(ctx context.Context, in ports.NewRequest) (int64, error) {
	text := strings.TrimSpace(in.ProblemText)
	if text == "" {
		return 0, domain.ErrEmptyProblemText
	}
	if in.PhotoBefore != "" && !domain.ValidPhotoRef(in.PhotoBefore) {
		return 0, domain.ErrInvalidPhotoRef
	}

	db, cancel := s.conn(ctx)
	defer cancel()

	m := requestModel{
		ClientID:    in.ClientID,
		ProblemText: text,
		Status:      string(domain.StatusNew),
		PhotoBefore: nullable(in.PhotoBefore),
		CreatedAt:   s.now(),
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&userModel{}).Where("id = ?", in.ClientID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return domain.ErrUserNotFound
		}
		if err := tx.Omit("Client").Create(&m).Error; err != nil {
			return err
		}
		ev := toEventModel(domain.CreationEvent(toDomainRequest(m)))
		return tx.Create(&ev).Error
	})
	if err != nil {
		return 0, storageErr("create request", err)
	}

	s.logger.Debug().Int64("request_id", m.ID).Int64("client_id", m.ClientID).Msg("request stored")
	return m.ID, nil
}

func (s *Store) GetRequest(ctx context.Context, id int64) (*domain.Request, error) {
	db, cancel := s.conn(ctx)
	defer cancel()
	return getRequest(db, id)
}

func getRequest(db *gorm.DB, id int64) (*domain.Request, error) {
	var m requestModel
	if err := db.First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRequestNotFound
		}
		return nil, storageErr("get request", err)
	}
	return toDomainRequest(m), nil
}

// ListRequests returns the matching requests, newest first.
func (s *Store) ListRequests(ctx context.Context, f ports.RequestFilter) ([]*domain.Request, error) {
	db, cancel := s.conn(ctx)
	defer cancel()

	q := db.Model(&requestModel{})
	if f.Status != "" {
		q = q.Where("status = ?", string(f.Status))
	}
	if f.ClientID != 0 {
		q = q.Where("client_id = ?", f.ClientID)
	}
	if f.WorkerID != 0 {
		q = q.Where("assigned_to = ?", f.WorkerID)
	}
	if f.PhotoRef != "" {
		q = q.Where("(photo_before = ? OR photo_after = ? OR id IN (?))", f.PhotoRef, f.PhotoRef,
			db.Model(&eventModel{}).Select("request_id").Where("photo = ?", f.PhotoRef))
	}

	var rows []requestModel
	if err := q.Order("created_at DESC").Order("id DESC").Find(&rows).Error; err != nil {
		return nil, storageErr("list requests", err)
	}
	out := make([]*domain.Request, 0, len(rows))
	for _, m := range rows {
		out = append(out, toDomainRequest(m))
	}
	return out, nil
}

// UpdateStatus writes status without checking the current one. Entering done
// stamps finished_at and stores photoAfter.
func (s *Store) UpdateStatus(ctx context.Context, id int64, status domain.RequestStatus, photoAfter string) error {
	if _, err := domain.ParseStatus(string(status)); err != nil {
		return err
	}
	db, cancel := s.conn(ctx)
	defer cancel()

	updates := map[string]any{"status": string(status)}
	if status == domain.StatusDone {
		updates["finished_at"] = s.now()
		updates["photo_after"] = nullable(photoAfter)
	}
	res := db.Model(&requestModel{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return storageErr("update status", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrRequestNotFound
	}
	return nil
}

// Assign sets assigned_to and status assigned in a single statement.
func (s *Store) Assign(ctx context.Context, id, workerID int64) error {
	db, cancel := s.conn(ctx)
	defer cancel()

	res := db.Model(&requestModel{}).Where("id = ?", id).Updates(map[string]any{
		"assigned_to": workerID,
		"status":      string(domain.StatusAssigned),
	})
	if res.Error != nil {
		return storageErr("assign", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrRequestNotFound
	}
	return nil
}

// Transition is a compare-and-set on the status column. Of two concurrent
// callers planning from the same status, exactly one updates the row; the
// other gets domain.ErrStatusConflict.
func (s *Store) Transition(ctx context.Context, t domain.Transition) (*domain.Request, error) {
	db, cancel := s.conn(ctx)
	defer cancel()

	var updated *domain.Request
	err := db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&requestModel{}).
			Where("id = ? AND status = ?", t.RequestID, string(t.From)).
			Updates(map[string]any{
				"status":      string(t.To),
				"assigned_to": t.AssignedTo,
				"photo_after": nullable(t.PhotoAfter),
				"finished_at": t.FinishedAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var n int64
			if err := tx.Model(&requestModel{}).Where("id = ?", t.RequestID).Count(&n).Error; err != nil {
				return err
			}
			if n == 0 {
				return domain.ErrRequestNotFound
			}
			return domain.ErrStatusConflict
		}

		ev := toEventModel(t.Event())
		if err := tx.Create(&ev).Error; err != nil {
			return err
		}

		r, err := getRequest(tx, t.RequestID)
		updated = r
		return err
	})
	if err != nil {
		return nil, storageErr("transition", err)
	}
	return updated, nil
}

// History returns the request's events, oldest first.
func (s *Store) History(ctx context.Context, id int64) ([]domain.RequestEvent, error) {
	db, cancel := s.conn(ctx)
	defer cancel()

	var rows []eventModel
	if err := db.Where("request_id = ?", id).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, storageErr("history", err)
	}
	out := make([]domain.RequestEvent, 0, len(rows))
	for _, m := range rows {
		out = append(out, toDomainEvent(m))
	}
	return out, nil
}
