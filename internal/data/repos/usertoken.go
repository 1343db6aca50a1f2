package repos

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/courseforge-backend/internal/pkg/dbctx"
	"github.com/yungbote/courseforge-backend/internal/pkg/logger"
	"github.com/yungbote/courseforge-backend/internal/types"
)

type UserTokenRepo interface {
	Create(dbc dbctx.Context, token *types.UserToken) error
	GetByAccessToken(dbc dbctx.Context, accessToken string) (*types.UserToken, error)
	GetByRefreshToken(dbc dbctx.Context, refreshToken string) (*types.UserToken, error)
	DeleteByUser(dbc dbctx.Context, userID uuid.UUID) error
}

type userTokenRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserTokenRepo(db *gorm.DB, log *logger.Logger) UserTokenRepo {
	return &userTokenRepo{
		db:  db,
		log: log.With("repo", "UserTokenRepo"),
	}
}

func (r *userTokenRepo) Create(dbc dbctx.Context, token *types.UserToken) error {
	transaction := dbc.Transaction(r.db)
	return transaction.WithContext(dbc.Ctx).Create(token).Error
}

func (r *userTokenRepo) GetByAccessToken(dbc dbctx.Context, accessToken string) (*types.UserToken, error) {
	transaction := dbc.Transaction(r.db)
	var out types.UserToken
	err := transaction.WithContext(dbc.Ctx).
		Where("access_token = ?", accessToken).
		First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *userTokenRepo) GetByRefreshToken(dbc dbctx.Context, refreshToken string) (*types.UserToken, error) {
	transaction := dbc.Transaction(r.db)
	var out types.UserToken
	err := transaction.WithContext(dbc.Ctx).
		Where("refresh_token = ?", refreshToken).
		First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *userTokenRepo) DeleteByUser(dbc dbctx.Context, userID uuid.UUID) error {
	transaction := dbc.Transaction(r.db)
	return transaction.WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
		Delete(&types.UserToken{}).Error
}
