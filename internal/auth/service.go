package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/Kyz7/formbuilder/internal/apperror"
	"github.com/Kyz7/formbuilder/internal/config"
	"github.com/Kyz7/formbuilder/internal/models"
	"github.com/Kyz7/formbuilder/internal/notify"
	"github.com/Kyz7/formbuilder/internal/revocation"
	"github.com/Kyz7/formbuilder/internal/token"
	users "github.com/Kyz7/formbuilder/internal/user"
	"github.com/Kyz7/formbuilder/internal/utils"
	"github.com/Kyz7/formbuilder/internal/validation"

	"gorm.io/gorm"
)

const (
	MsgEmailUnknown       = "Email does not exist"
	MsgAlreadyHasPassword = "User has already set his password"
	MsgResendTooSoon      = "A set password link has already send to this email"
	MsgPasswordsDiffer    = "Passwords do not match"
	MsgUsernameDiffers    = "Username does not match this link"
	MsgInvalidCredentials = "Invalid Credentials"
	MsgInvalidRefresh     = "Token is invalid or expired"
)

// Service runs the account credential workflows.
type Service struct {
	DB        *gorm.DB
	Tokens    *token.Store
	Revoker   revocation.Revoker
	Notifier  notify.Notifier
	Validator *validation.Validator
	Config    *config.Config
	Now       func() time.Time
}

type SignupInput struct {
	FirstName string      `json:"first_name" validate:"required,alpha,min=2,max=30"`
	LastName  string      `json:"last_name" validate:"required,alpha,min=2,max=30"`
	Username  string      `json:"username" validate:"required,username"`
	Email     string      `json:"email" validate:"required,email,max=100"`
	Contact   string      `json:"contact" validate:"required,contact"`
	Role      models.Role `json:"role" validate:"omitempty,oneof=admin standard"`
}

type SetPasswordInput struct {
	Username        string `json:"username" validate:"required"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

type ResetPasswordInput struct {
	NewPassword     string `json:"new_password" validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

type SignInInput struct {
	Username string `json:"username" validate:"required,username"`
	Password string `json:"password" validate:"required,strongpwd"`
}

type SignInResult struct {
	Access  string      `json:"access"`
	Refresh string      `json:"refresh"`
	Role    models.Role `json:"role"`
	UserID  uint        `json:"user_id"`
}

// Delivery reports what happened to the notification. EmailQueued means it
// was published for asynchronous sending, so a later mail failure is only
// logged. The account change it accompanies is kept either way.
type Delivery struct {
	EmailSent   bool `json:"email_sent"`
	EmailQueued bool `json:"email_queued"`
}

// Failed is true when the notification could not be sent or queued.
func (d Delivery) Failed() bool {
	return !d.EmailSent && !d.EmailQueued
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) link(path, raw string) string {
	return fmt.Sprintf("%s/%s/%s", s.Config.FrontendURL, path, raw)
}

func (s *Service) deliver(ctx context.Context, n notify.Notification) Delivery {
	if err := s.Notifier.Notify(ctx, n); err != nil {
		log.Printf("⚠️  %s notification for user %d failed: %v", n.Kind, n.UserID, err)
		return Delivery{}
	}
	if notify.Queued(s.Notifier) {
		return Delivery{EmailQueued: true}
	}
	return Delivery{EmailSent: true}
}

func (s *Service) findByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.DB.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound(MsgEmailUnknown)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Signup creates an account without a password and mails a set-password link.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*models.User, Delivery, error) {
	in.Email = normalizeEmail(in.Email)
	in.Username = strings.TrimSpace(in.Username)
	if err := s.Validator.Struct(&in); err != nil {
		return nil, Delivery{}, err
	}
	if in.Role == "" {
		in.Role = models.RoleStandard
	}

	user := models.User{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Username:  in.Username,
		Email:     in.Email,
		Contact:   in.Contact,
		Role:      in.Role,
	}

	var raw string
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return users.MapConflict(err)
		}
		issued, err := s.Tokens.WithDB(tx).IssueOrRefresh(ctx, user.ID, models.PurposeSetPassword)
		if err != nil {
			return err
		}
		raw = issued
		return nil
	})
	if err != nil {
		return nil, Delivery{}, err
	}

	log.Printf("👤 user %d (%s) created", user.ID, user.Username)
	delivery := s.deliver(ctx, notify.Welcome(user.ID, user.Email, user.Username, s.link("set-password", raw)))
	return &user, delivery, nil
}

// ResendSetPasswordLink reissues the signup link for a user who has not set a
// password yet, at most once per cooldown window.
func (s *Service) ResendSetPasswordLink(ctx context.Context, email string) (Delivery, error) {
	if strings.TrimSpace(email) == "" {
		return Delivery{}, apperror.Field("email", "email is required")
	}

	user, err := s.findByEmail(ctx, email)
	if err != nil {
		return Delivery{}, err
	}
	if user.HasPassword() {
		return Delivery{}, apperror.Field("email", MsgAlreadyHasPassword)
	}

	pending, err := s.Tokens.ForUser(ctx, user.ID)
	if err != nil {
		return Delivery{}, err
	}
	if pending != nil && s.now().Sub(pending.UpdatedAt) < s.Config.ResendLinkCooldown {
		return Delivery{}, apperror.Field("email", MsgResendTooSoon)
	}

	raw, err := s.Tokens.IssueOrRefresh(ctx, user.ID, models.PurposeSetPassword)
	if err != nil {
		return Delivery{}, err
	}
	return s.deliver(ctx, notify.SetPasswordLink(user.ID, user.Email, s.link("set-password", raw))), nil
}

// SetPassword redeems a signup link and activates the account.
func (s *Service) SetPassword(ctx context.Context, raw string, in SetPasswordInput) error {
	return s.Tokens.Consume(ctx, raw, models.PurposeSetPassword, s.Config.SetPasswordLinkTTL,
		func(tx *gorm.DB, entry *models.PasswordResetToken) error {
			if err := s.Validator.Struct(&in); err != nil {
				return err
			}

			var user models.User
			if err := tx.First(&user, entry.UserID).Error; err != nil {
				return err
			}

			if problem := s.Validator.PasswordProblem(in.Password); problem != "" {
				return apperror.Field("password", problem)
			}
			if in.Password != in.ConfirmPassword {
				return apperror.Field("confirm_password", MsgPasswordsDiffer)
			}
			if in.Username != user.Username {
				return apperror.Field("username", MsgUsernameDiffers)
			}

			hashed, err := utils.HashPassword(in.Password)
			if err != nil {
				return err
			}
			return tx.Model(&user).Updates(map[string]interface{}{
				"password":    hashed,
				"is_activate": true,
			}).Error
		})
}

// ForgotPassword mails a reset link. Unlike the resend flow there is no
// cooldown and no password precondition.
func (s *Service) ForgotPassword(ctx context.Context, email string) (Delivery, error) {
	if strings.TrimSpace(email) == "" {
		return Delivery{}, apperror.Field("email", "email is required")
	}

	user, err := s.findByEmail(ctx, email)
	if err != nil {
		return Delivery{}, err
	}

	raw, err := s.Tokens.IssueOrRefresh(ctx, user.ID, models.PurposeResetPassword)
	if err != nil {
		return Delivery{}, err
	}
	return s.deliver(ctx, notify.PasswordReset(user.ID, user.Email, s.link("reset-password", raw))), nil
}

// ResetPassword redeems a reset link. is_activate is left as it was.
func (s *Service) ResetPassword(ctx context.Context, raw string, in ResetPasswordInput) error {
	return s.Tokens.Consume(ctx, raw, models.PurposeResetPassword, s.Config.ResetPasswordLinkTTL,
		func(tx *gorm.DB, entry *models.PasswordResetToken) error {
			if err := s.Validator.Struct(&in); err != nil {
				return err
			}
			if problem := s.Validator.PasswordProblem(in.NewPassword); problem != "" {
				return apperror.Field("new_password", problem)
			}
			if in.NewPassword != in.ConfirmPassword {
				return apperror.Field("confirm_password", MsgPasswordsDiffer)
			}

			hashed, err := utils.HashPassword(in.NewPassword)
			if err != nil {
				return err
			}
			return tx.Model(&models.User{}).Where("id = ?", entry.UserID).Update("password", hashed).Error
		})
}

func (s *Service) SignIn(ctx context.Context, in SignInInput) (*SignInResult, error) {
	in.Username = strings.TrimSpace(in.Username)
	if err := s.Validator.Struct(&in); err != nil {
		return nil, err
	}

	var user models.User
	err := s.DB.WithContext(ctx).Where("username = ?", in.Username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.Auth(MsgInvalidCredentials)
	}
	if err != nil {
		return nil, err
	}
	if !utils.CheckPasswordHash(in.Password, user.Password) {
		return nil, apperror.Auth(MsgInvalidCredentials)
	}

	return s.issueSession(ctx, &user)
}

func (s *Service) issueSession(ctx context.Context, user *models.User) (*SignInResult, error) {
	pair, err := utils.GenerateTokenPair(user.ID, string(user.Role), s.now(), s.Config.AccessTokenTTL, s.Config.RefreshTokenTTL)
	if err != nil {
		return nil, err
	}
	if err := s.DB.WithContext(ctx).Model(user).Update("token", pair.AccessToken).Error; err != nil {
		return nil, err
	}

	return &SignInResult{
		Access:  pair.AccessToken,
		Refresh: pair.RefreshToken,
		Role:    user.Role,
		UserID:  user.ID,
	}, nil
}

// verifyRefresh parses a refresh token and rejects revoked ones.
func (s *Service) verifyRefresh(ctx context.Context, refresh string) (*utils.Claims, uint, error) {
	claims, err := utils.ParseJWT(refresh, utils.RefreshToken)
	if err != nil {
		return nil, 0, apperror.Auth(MsgInvalidRefresh)
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, 0, apperror.Auth(MsgInvalidRefresh)
	}

	revoked, err := s.Revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, 0, err
	}
	if revoked {
		return nil, 0, apperror.Auth(MsgInvalidRefresh)
	}
	return claims, userID, nil
}

// Refresh mints a new access token from a live refresh token.
func (s *Service) Refresh(ctx context.Context, refresh string) (string, error) {
	_, userID, err := s.verifyRefresh(ctx, refresh)
	if err != nil {
		return "", err
	}

	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperror.Auth(MsgInvalidRefresh)
		}
		return "", err
	}

	access, _, err := utils.GenerateJWT(user.ID, string(user.Role), utils.AccessToken, s.now(), s.Config.AccessTokenTTL)
	if err != nil {
		return "", err
	}
	if err := s.DB.WithContext(ctx).Model(&user).Update("token", access).Error; err != nil {
		return "", err
	}
	return access, nil
}

// SignOut blacklists the refresh token and forgets the stored access token.
func (s *Service) SignOut(ctx context.Context, refresh string) error {
	claims, userID, err := s.verifyRefresh(ctx, refresh)
	if err != nil {
		return err
	}

	if err := s.Revoker.Revoke(ctx, claims.ID, userID, claims.ExpiresAt.Time); err != nil {
		return err
	}
	return s.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("token", "").Error
}

// SignInExisting opens a session for a user identified by a verified email,
// as returned by an external identity provider.
func (s *Service) SignInExisting(ctx context.Context, email string) (*SignInResult, error) {
	user, err := s.findByEmail(ctx, email)
	if err != nil {
		return nil, apperror.Auth("No account is registered for this email")
	}
	if !user.IsActivate {
		return nil, apperror.Auth("Set your password before signing in")
	}
	return s.issueSession(ctx, user)
}
