package assignment

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/Kyz7/formbuilder/internal/apperror"
	"github.com/Kyz7/formbuilder/internal/config"
	"github.com/Kyz7/formbuilder/internal/models"
	"github.com/Kyz7/formbuilder/internal/notify"
	"github.com/Kyz7/formbuilder/internal/search"

	"gorm.io/gorm"
)

const (
	MsgAssigned      = "Form assigned successfully"
	MsgNoneAssigned  = "No forms assigned"
	MsgNotPublished  = "Form must be published before it can be assigned"
	MsgNoPassword    = "User has not set a password yet"
	MsgUnknownUser   = "User does not exist"
	MsgUsersRequired = "user_ids is required"
)

// Service is the survey assignment ledger.
type Service struct {
	DB       *gorm.DB
	Notifier notify.Notifier
	Config   *config.Config
}

func NewService(db *gorm.DB, notifier notify.Notifier, cfg *config.Config) *Service {
	return &Service{DB: db, Notifier: notifier, Config: cfg}
}

type AssignInput struct {
	SurveyID uint   `json:"survey_id"`
	UserIDs  []uint `json:"user_ids"`
}

type AssignResult struct {
	Links        []models.SurveyLink `json:"links"`
	EmailsSent   int                 `json:"emails_sent"`
	EmailsQueued int                 `json:"emails_queued"`
	EmailsFailed int                 `json:"emails_failed"`
}

var linkOrdering = []string{"assigned_at", "is_submitted"}

// FormLink is the respondent URL mailed for a link.
func (s *Service) FormLink(linkID uint) string {
	return fmt.Sprintf("%s/survey/form/%d", s.Config.FrontendURL, linkID)
}

// Assign links one of the owner's published surveys to each user. Assigning
// the same user twice creates a second link. Every new link is announced by
// email once the links are stored.
func (s *Service) Assign(ctx context.Context, ownerID uint, in AssignInput) (*AssignResult, error) {
	if in.SurveyID == 0 {
		return nil, apperror.Field("survey_id", "survey_id is required")
	}
	if len(in.UserIDs) == 0 {
		return nil, apperror.Field("user_ids", MsgUsersRequired)
	}

	var survey models.Survey
	err := s.DB.WithContext(ctx).Where("id = ? AND created_by_id = ?", in.SurveyID, ownerID).First(&survey).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("Survey not found")
	}
	if err != nil {
		return nil, err
	}
	if !survey.IsPublished {
		return nil, apperror.Policy(MsgNotPublished)
	}

	users := make(map[uint]*models.User, len(in.UserIDs))
	for _, id := range in.UserIDs {
		if _, seen := users[id]; seen {
			continue
		}
		var user models.User
		err := s.DB.WithContext(ctx).First(&user, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Field("user_ids", fmt.Sprintf("%s: %d", MsgUnknownUser, id))
		}
		if err != nil {
			return nil, err
		}
		if !user.HasPassword() {
			return nil, apperror.Field("user_ids", fmt.Sprintf("%s: %s", MsgNoPassword, user.Username))
		}
		users[id] = &user
	}

	links := make([]models.SurveyLink, 0, len(in.UserIDs))
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, id := range in.UserIDs {
			link := models.SurveyLink{SurveyID: survey.ID, UserID: id}
			if err := tx.Create(&link).Error; err != nil {
				return err
			}
			links = append(links, link)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &AssignResult{Links: links}
	queued := notify.Queued(s.Notifier)
	for _, link := range links {
		user := users[link.UserID]
		if err := s.Notifier.Notify(ctx, notify.SurveyAssigned(user.ID, user.Email, s.FormLink(link.ID))); err != nil {
			log.Printf("⚠️  survey link %d mail to user %d failed: %v", link.ID, user.ID, err)
			result.EmailsFailed++
			continue
		}
		if queued {
			result.EmailsQueued++
			continue
		}
		result.EmailsSent++
	}
	log.Printf("📨 survey %d assigned to %d users", survey.ID, len(links))
	return result, nil
}

// ownerLinks selects links whose survey was created by ownerID.
func (s *Service) ownerLinks(ctx context.Context, ownerID uint) *gorm.DB {
	return s.DB.WithContext(ctx).Model(&models.SurveyLink{}).
		Joins("JOIN surveys ON surveys.id = survey_links.survey_id").
		Where("surveys.created_by_id = ?", ownerID)
}

// ListForOwner pages through the links of every survey ownerID created.
// search matches the survey name.
func (s *Service) ListForOwner(ctx context.Context, ownerID uint, params search.Params) (*search.Result[models.SurveyLink], error) {
	query := s.ownerLinks(ctx, ownerID)
	query = search.ApplySearch(query, params.Search, "surveys.name")
	query = search.ApplyOrdering(query, params.Ordering, linkOrdering, "survey_links.id desc")
	return search.Paginate[models.SurveyLink](query, params, "Survey", "User")
}

// Mine lists the links assigned to userID, newest first.
func (s *Service) Mine(ctx context.Context, userID uint) ([]models.SurveyLink, error) {
	links := make([]models.SurveyLink, 0)
	err := s.DB.WithContext(ctx).
		Preload("Survey").
		Where("user_id = ?", userID).
		Order("id desc").
		Find(&links).Error
	return links, err
}
