package user

import (
	"context"
	"errors"
	"strings"

	"github.com/Kyz7/formbuilder/internal/apperror"
	"github.com/Kyz7/formbuilder/internal/database"
	"github.com/Kyz7/formbuilder/internal/models"
	"github.com/Kyz7/formbuilder/internal/search"
	"github.com/Kyz7/formbuilder/internal/survey"
	"github.com/Kyz7/formbuilder/internal/utils"
	"github.com/Kyz7/formbuilder/internal/validation"

	"gorm.io/gorm"
)

const (
	MsgUsernameTaken = "username already exist"
	MsgEmailTaken    = "email already exist"
	MsgDeleteSelf    = "Cannot delete your own account"
)

var (
	searchColumns = []string{"username", "first_name", "last_name", "email", "contact"}
	orderColumns  = []string{"username", "first_name", "last_name", "email"}
)

type Service struct {
	DB        *gorm.DB
	Validator *validation.Validator
}

func NewService(db *gorm.DB, v *validation.Validator) *Service {
	return &Service{DB: db, Validator: v}
}

// ProfileInput replaces every editable profile field.
type ProfileInput struct {
	FirstName string `json:"first_name" validate:"required,alpha,min=2,max=30"`
	LastName  string `json:"last_name" validate:"required,alpha,min=2,max=30"`
	Username  string `json:"username" validate:"required,username"`
	Email     string `json:"email" validate:"required,email,max=100"`
	Contact   string `json:"contact" validate:"required,contact"`
}

// ProfilePatch changes only the fields that are present.
type ProfilePatch struct {
	FirstName *string `json:"first_name" validate:"omitempty,alpha,min=2,max=30"`
	LastName  *string `json:"last_name" validate:"omitempty,alpha,min=2,max=30"`
	Username  *string `json:"username" validate:"omitempty,username"`
	Email     *string `json:"email" validate:"omitempty,email,max=100"`
	Contact   *string `json:"contact" validate:"omitempty,contact"`
}

// MapConflict turns a unique index violation on users into a field conflict.
func MapConflict(err error) error {
	switch {
	case database.ViolatedColumn(err, "username"):
		return apperror.ConflictField("username", MsgUsernameTaken)
	case database.ViolatedColumn(err, "email"):
		return apperror.ConflictField("email", MsgEmailTaken)
	}
	return err
}

func (s *Service) list(ctx context.Context, params search.Params, scope func(*gorm.DB) *gorm.DB) (*search.Result[models.User], error) {
	query := scope(s.DB.WithContext(ctx).Model(&models.User{}))
	query = search.ApplySearch(query, params.Search, searchColumns...)
	query = search.ApplyOrdering(query, params.Ordering, orderColumns, "id")
	return search.Paginate[models.User](query, params)
}

func (s *Service) List(ctx context.Context, params search.Params) (*search.Result[models.User], error) {
	return s.list(ctx, params, func(db *gorm.DB) *gorm.DB { return db })
}

// LoggedIn lists users that have set a password.
func (s *Service) LoggedIn(ctx context.Context, params search.Params) (*search.Result[models.User], error) {
	return s.list(ctx, params, func(db *gorm.DB) *gorm.DB {
		return db.Where("password IS NOT NULL AND password <> ''")
	})
}

func (s *Service) Get(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := s.DB.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("User not found")
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Delete removes a user with their pending link, revoked tokens, assigned
// links and every survey they created.
func (s *Service) Delete(ctx context.Context, actorID, id uint) error {
	if actorID == id {
		return apperror.Field("id", MsgDeleteSelf)
	}

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		err := tx.First(&user, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound("User not found")
		}
		if err != nil {
			return err
		}

		if err := tx.Where("user_id = ?", id).Delete(&models.PasswordResetToken{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.RevokedToken{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.SurveyLink{}).Error; err != nil {
			return err
		}
		if err := survey.DeleteOwnedBy(tx, id); err != nil {
			return err
		}
		return tx.Delete(&models.User{}, id).Error
	})
}

func (s *Service) UpdateProfile(ctx context.Context, id uint, in ProfileInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := s.Validator.Struct(&in); err != nil {
		return nil, err
	}
	return s.apply(ctx, id, map[string]interface{}{
		"first_name": utils.Sanitize(in.FirstName),
		"last_name":  utils.Sanitize(in.LastName),
		"username":   in.Username,
		"email":      in.Email,
		"contact":    in.Contact,
	})
}

func (s *Service) PatchProfile(ctx context.Context, id uint, in ProfilePatch) (*models.User, error) {
	if in.Username != nil {
		trimmed := strings.TrimSpace(*in.Username)
		in.Username = &trimmed
	}
	if in.Email != nil {
		normalized := strings.ToLower(strings.TrimSpace(*in.Email))
		in.Email = &normalized
	}
	if err := s.Validator.Struct(&in); err != nil {
		return nil, err
	}

	changes := map[string]interface{}{}
	if in.FirstName != nil {
		changes["first_name"] = utils.Sanitize(*in.FirstName)
	}
	if in.LastName != nil {
		changes["last_name"] = utils.Sanitize(*in.LastName)
	}
	if in.Username != nil {
		changes["username"] = *in.Username
	}
	if in.Email != nil {
		changes["email"] = *in.Email
	}
	if in.Contact != nil {
		changes["contact"] = *in.Contact
	}
	return s.apply(ctx, id, changes)
}

func (s *Service) apply(ctx context.Context, id uint, changes map[string]interface{}) (*models.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(changes) == 0 {
		return user, nil
	}
	if err := s.DB.WithContext(ctx).Model(user).Updates(changes).Error; err != nil {
		return nil, MapConflict(err)
	}
	return s.Get(ctx, id)
}
