package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"task-tracker/internal/model"
)

// TokenRepository persists bearer tokens, one per session key.
type TokenRepository struct {
	db *gorm.DB
}

func NewTokenRepository(db *gorm.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// Load returns the stored token for key, or an empty string when there is none.
func (r *TokenRepository) Load(ctx context.Context, key string) (string, error) {
	var stored model.StoredToken
	err := r.db.WithContext(ctx).Where("session_key = ?", key).First(&stored).Error
	switch {
	case err == nil:
		return stored.Token, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return "", nil
	default:
		return "", fmt.Errorf("load token: %w", err)
	}
}

// Save stores token under key, replacing any previous one.
func (r *TokenRepository) Save(ctx context.Context, key, token string) error {
	stored := model.StoredToken{Key: key, Token: token}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"token", "updated_at"}),
	}).Create(&stored).Error
	if err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

// Clear removes the token stored under key.
func (r *TokenRepository) Clear(ctx context.Context, key string) error {
	if err := r.db.WithContext(ctx).Where("session_key = ?", key).Delete(&model.StoredToken{}).Error; err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	return nil
}

// Keys lists every session key with a stored token.
func (r *TokenRepository) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	if err := r.db.WithContext(ctx).Model(&model.StoredToken{}).Where("token <> ''").Order("session_key ASC").Pluck("session_key", &keys).Error; err != nil {
		return nil, fmt.Errorf("list token keys: %w", err)
	}
	return keys, nil
}
