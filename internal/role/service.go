package role

import (
	"context"
	"errors"

	"github.com/Kyz7/formbuilder/internal/apperror"
	"github.com/Kyz7/formbuilder/internal/models"

	"gorm.io/gorm"
)

// All lists the roles a user can hold.
var All = []models.Role{models.RoleAdmin, models.RoleStandard}

const (
	MsgInvalidRole  = "role must be one of: admin, standard"
	MsgDemoteSelf   = "Cannot remove your own admin role"
	MsgRoleAssigned = "Role assigned successfully"
)

// ChangeRole sets userID's role. An admin cannot demote themselves, so the
// system always keeps the admin who made the change.
func ChangeRole(ctx context.Context, db *gorm.DB, actorID, userID uint, role models.Role) (*models.User, error) {
	if !role.Valid() {
		return nil, apperror.Field("role", MsgInvalidRole)
	}
	if actorID == userID && role != models.RoleAdmin {
		return nil, apperror.Field("role", MsgDemoteSelf)
	}

	var user models.User
	err := db.WithContext(ctx).First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("User not found")
	}
	if err != nil {
		return nil, err
	}

	if err := db.WithContext(ctx).Model(&user).Update("role", role).Error; err != nil {
		return nil, err
	}
	user.Role = role
	return &user, nil
}
