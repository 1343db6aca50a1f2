package repos

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/courseforge-backend/internal/pkg/dbctx"
	"github.com/yungbote/courseforge-backend/internal/pkg/logger"
	"github.com/yungbote/courseforge-backend/internal/types"
)

type SessionRepo interface {
	// GetByID returns (nil, nil) on a miss; an unknown session id is a normal
	// outcome, not an error.
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.AuthoringSession, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.AuthoringSession, error)
	// Save upserts the session and reports whether it was persisted. Sessions
	// failing the emptiness invariant are skipped with saved=false and no error.
	Save(dbc dbctx.Context, session *types.AuthoringSession) (bool, error)
	// Delete is idempotent: deleting an unknown id reports found=false.
	Delete(dbc dbctx.Context, id uuid.UUID) (bool, error)
}

type sessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSessionRepo(db *gorm.DB, log *logger.Logger) SessionRepo {
	return &sessionRepo{
		db:  db,
		log: log.With("repo", "SessionRepo"),
	}
}

func (r *sessionRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.AuthoringSession, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	transaction := dbc.Transaction(r.db)
	var out types.AuthoringSession
	err := transaction.WithContext(dbc.Ctx).
		Where("id = ?", id).
		First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *sessionRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.AuthoringSession, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	transaction := dbc.Transaction(r.db)
	var out []*types.AuthoringSession
	// Secondary id ordering keeps iteration stable when updated_at ties.
	err := transaction.WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *sessionRepo) Save(dbc dbctx.Context, session *types.AuthoringSession) (bool, error) {
	if session == nil || session.ID == uuid.Nil {
		return false, gorm.ErrInvalidData
	}
	if session.IsEmpty() {
		r.log.Debug("Skipping save of empty session", "session_id", session.ID)
		return false, nil
	}
	transaction := dbc.Transaction(r.db)
	now := time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now
	err := transaction.WithContext(dbc.Ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"title",
			"messages",
			"context",
			"metadata",
			"updated_at",
		}),
	}).Create(session).Error
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *sessionRepo) Delete(dbc dbctx.Context, id uuid.UUID) (bool, error) {
	if id == uuid.Nil {
		return false, nil
	}
	transaction := dbc.Transaction(r.db)
	res := transaction.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Delete(&types.AuthoringSession{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
