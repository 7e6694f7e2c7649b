package revocation

import (
	"context"
	"time"

	"github.com/Kyz7/formbuilder/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DBRevoker struct {
	DB  *gorm.DB
	Now func() time.Time
}

func NewDBRevoker(db *gorm.DB) *DBRevoker {
	return &DBRevoker{DB: db, Now: time.Now}
}

func (r *DBRevoker) Revoke(ctx context.Context, jti string, userID uint, expiresAt time.Time) error {
	entry := models.RevokedToken{JTI: jti, UserID: userID, ExpiresAt: expiresAt}
	return r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "jti"}}, DoNothing: true}).
		Create(&entry).Error
}

func (r *DBRevoker) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&models.RevokedToken{}).Where("jti = ?", jti).Count(&count).Error
	return count > 0, err
}

func (r *DBRevoker) Prune(ctx context.Context) (int64, error) {
	res := r.DB.WithContext(ctx).Where("expires_at < ?", r.Now()).Delete(&models.RevokedToken{})
	return res.RowsAffected, res.Error
}
