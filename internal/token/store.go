package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Kyz7/formbuilder/internal/apperror"
	"github.com/Kyz7/formbuilder/internal/models"
	"github.com/Kyz7/formbuilder/internal/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	MsgInvalid = "Invalid Token"
	MsgExpired = "Your link has been expired"
)

// Store keeps at most one outstanding emailed-link token per user.
// Only the sha256 of a token is persisted.
type Store struct {
	DB  *gorm.DB
	Now func() time.Time
}

func NewStore(db *gorm.DB) *Store {
	return &Store{DB: db, Now: time.Now}
}

// WithDB returns a copy of the store bound to db, usually a transaction.
func (s *Store) WithDB(db *gorm.DB) *Store {
	return &Store{DB: db, Now: s.Now}
}

// IssueOrRefresh creates a fresh token for the user, replacing any previous one.
func (s *Store) IssueOrRefresh(ctx context.Context, userID uint, purpose models.TokenPurpose) (string, error) {
	raw, err := utils.RandomToken()
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}

	now := s.Now()
	entry := models.PasswordResetToken{
		UserID:    userID,
		TokenHash: utils.HashToken(raw),
		Purpose:   purpose,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"token_hash", "purpose", "created_at", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return "", fmt.Errorf("store token: %w", err)
	}

	return raw, nil
}

// Redeem looks up a token issued for the given purpose.
func (s *Store) Redeem(ctx context.Context, raw string, purpose models.TokenPurpose) (*models.PasswordResetToken, error) {
	if raw == "" {
		return nil, apperror.NotFound(MsgInvalid)
	}

	var entry models.PasswordResetToken
	err := s.DB.WithContext(ctx).
		Where("token_hash = ? AND purpose = ?", utils.HashToken(raw), purpose).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound(MsgInvalid)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup token: %w", err)
	}
	return &entry, nil
}

// CheckNotExpired fails once more than window has passed since the token was
// issued. An expired entry is deleted before returning.
func (s *Store) CheckNotExpired(ctx context.Context, entry *models.PasswordResetToken, window time.Duration) error {
	if s.Now().Sub(entry.CreatedAt) <= window {
		return nil
	}
	if err := s.Invalidate(ctx, s.DB, entry); err != nil {
		return err
	}
	return apperror.Expired(MsgExpired)
}

// Invalidate deletes the entry. A token reissued in the meantime is left alone.
func (s *Store) Invalidate(ctx context.Context, db *gorm.DB, entry *models.PasswordResetToken) error {
	err := db.WithContext(ctx).
		Where("id = ? AND token_hash = ?", entry.ID, entry.TokenHash).
		Delete(&models.PasswordResetToken{}).Error
	if err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}

// Consume redeems a token, enforces its window and runs fn in a transaction
// that also deletes the token. The token survives if fn fails.
func (s *Store) Consume(ctx context.Context, raw string, purpose models.TokenPurpose, window time.Duration, fn func(tx *gorm.DB, entry *models.PasswordResetToken) error) error {
	entry, err := s.Redeem(ctx, raw, purpose)
	if err != nil {
		return err
	}
	if err := s.CheckNotExpired(ctx, entry, window); err != nil {
		return err
	}

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := fn(tx, entry); err != nil {
			return err
		}
		res := tx.Where("id = ? AND token_hash = ?", entry.ID, entry.TokenHash).
			Delete(&models.PasswordResetToken{})
		if res.Error != nil {
			return fmt.Errorf("delete token: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			// Someone redeemed or replaced it between lookup and now.
			return apperror.NotFound(MsgInvalid)
		}
		return nil
	})
}

// ForUser returns the user's outstanding token, or nil.
func (s *Store) ForUser(ctx context.Context, userID uint) (*models.PasswordResetToken, error) {
	var entry models.PasswordResetToken
	err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Reap deletes tokens that are past their window. Redemption already
// rejects them; this only keeps the table small.
func (s *Store) Reap(ctx context.Context, windows map[models.TokenPurpose]time.Duration) (int64, error) {
	now := s.Now()
	var total int64
	for purpose, window := range windows {
		res := s.DB.WithContext(ctx).
			Where("purpose = ? AND created_at < ?", purpose, now.Add(-window)).
			Delete(&models.PasswordResetToken{})
		if res.Error != nil {
			return total, res.Error
		}
		total += res.RowsAffected
	}
	return total, nil
}
