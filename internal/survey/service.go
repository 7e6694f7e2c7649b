package survey

import (
	"context"
	"errors"

	"github.com/Kyz7/formbuilder/internal/apperror"
	"github.com/Kyz7/formbuilder/internal/database"
	"github.com/Kyz7/formbuilder/internal/models"
	"github.com/Kyz7/formbuilder/internal/search"
	"github.com/Kyz7/formbuilder/internal/utils"
	"github.com/Kyz7/formbuilder/internal/validation"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Service authors surveys. Every operation is scoped to the survey's creator.
type Service struct {
	DB        *gorm.DB
	Validator *validation.Validator
}

func NewService(db *gorm.DB, v *validation.Validator) *Service {
	return &Service{DB: db, Validator: v}
}

type QuestionInput struct {
	Name         string                    `json:"name" validate:"required,max=255"`
	QuestionType models.QuestionType       `json:"question_type" validate:"required,qtype"`
	Properties   models.QuestionProperties `json:"properties"`
	Marks        uint                      `json:"marks"`
}

type BlockInput struct {
	Name      string          `json:"name" validate:"required,max=100"`
	Questions []QuestionInput `json:"questions" validate:"dive"`
}

type SurveyInput struct {
	Name        string       `json:"name" validate:"required,max=100"`
	Description string       `json:"description" validate:"max=2000"`
	IsPublished *bool        `json:"is_published"`
	Blocks      []BlockInput `json:"blocks" validate:"dive"`
}

type SurveyUpdate struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=2000"`
	IsPublished *bool  `json:"is_published"`
}

type SurveyPatch struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=100"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	IsPublished *bool   `json:"is_published"`
}

var surveyOrdering = []string{"name", "created_at", "updated_at"}

func notFound(resource string) error {
	return apperror.NotFound(resource + " not found")
}

// preloadTree loads blocks and their questions in insertion order.
func preloadTree(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Blocks", func(db *gorm.DB) *gorm.DB { return db.Order("blocks.id") }).
		Preload("Blocks.Questions", func(db *gorm.DB) *gorm.DB { return db.Order("questions.id") })
}

func (s *Service) List(ctx context.Context, ownerID uint, params search.Params) (*search.Result[models.Survey], error) {
	query := s.DB.WithContext(ctx).Model(&models.Survey{}).Where("created_by_id = ?", ownerID)
	query = search.ApplySearch(query, params.Search, "name")
	query = search.ApplyOrdering(query, params.Ordering, surveyOrdering, "created_at desc")
	return search.Paginate[models.Survey](query, params)
}

func (s *Service) Get(ctx context.Context, ownerID, id uint) (*models.Survey, error) {
	return s.load(s.DB.WithContext(ctx), ownerID, id)
}

func (s *Service) load(db *gorm.DB, ownerID, id uint) (*models.Survey, error) {
	var survey models.Survey
	err := preloadTree(db).Where("id = ? AND created_by_id = ?", id, ownerID).First(&survey).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("Survey")
	}
	if err != nil {
		return nil, err
	}
	return &survey, nil
}

// Create stores the survey with any nested blocks and questions in one
// transaction and derives is_published from the submitted tree.
func (s *Service) Create(ctx context.Context, ownerID uint, in SurveyInput) (*models.Survey, Outcome, error) {
	if err := s.validateSurvey(&in); err != nil {
		return nil, Outcome{}, err
	}

	shape := make(Shape, len(in.Blocks))
	for i, b := range in.Blocks {
		shape[i] = len(b.Questions)
	}
	outcome, err := Derive(shape, in.IsPublished, WriteCreate)
	if err != nil {
		return nil, Outcome{}, err
	}

	survey := models.Survey{
		Name:        utils.Sanitize(in.Name),
		Description: utils.Sanitize(in.Description),
		CreatedByID: ownerID,
		IsPublished: outcome.Published,
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&survey).Error; err != nil {
			return mapSurveyConflict(err)
		}
		for _, b := range in.Blocks {
			if _, err := createBlock(tx, survey.ID, b); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, Outcome{}, err
	}

	created, err := s.Get(ctx, ownerID, survey.ID)
	if err != nil {
		return nil, Outcome{}, err
	}
	return created, outcome, nil
}

func (s *Service) Update(ctx context.Context, ownerID, id uint, in SurveyUpdate) (*models.Survey, Outcome, error) {
	if err := s.Validator.Struct(&in); err != nil {
		return nil, Outcome{}, err
	}
	name, description := utils.Sanitize(in.Name), utils.Sanitize(in.Description)
	return s.write(ctx, ownerID, id, WriteUpdate, in.IsPublished, map[string]interface{}{
		"name":        name,
		"description": description,
	})
}

func (s *Service) Patch(ctx context.Context, ownerID, id uint, in SurveyPatch) (*models.Survey, Outcome, error) {
	if err := s.Validator.Struct(&in); err != nil {
		return nil, Outcome{}, err
	}
	changes := map[string]interface{}{}
	if in.Name != nil {
		changes["name"] = utils.Sanitize(*in.Name)
	}
	if in.Description != nil {
		changes["description"] = utils.Sanitize(*in.Description)
	}
	return s.write(ctx, ownerID, id, WritePatch, in.IsPublished, changes)
}

// SetStatus publishes or unpublishes a survey. Publishing needs the same
// one block with one question shape as create and update.
func (s *Service) SetStatus(ctx context.Context, ownerID, id uint, isPublished bool) (*models.Survey, Outcome, error) {
	return s.write(ctx, ownerID, id, WriteStatus, &isPublished, map[string]interface{}{})
}

func (s *Service) write(ctx context.Context, ownerID, id uint, write Write, requested *bool, changes map[string]interface{}) (*models.Survey, Outcome, error) {
	var outcome Outcome
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		survey, err := s.load(tx, ownerID, id)
		if err != nil {
			return err
		}

		outcome, err = Derive(ShapeOf(survey), requested, write)
		if err != nil {
			return err
		}
		changes["is_published"] = outcome.Published

		if err := tx.Model(&models.Survey{}).Where("id = ?", survey.ID).Updates(changes).Error; err != nil {
			return mapSurveyConflict(err)
		}
		return nil
	})
	if err != nil {
		return nil, Outcome{}, err
	}

	survey, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, Outcome{}, err
	}
	return survey, outcome, nil
}

// Delete removes the survey together with its blocks, their questions and
// every link assigning it.
func (s *Service) Delete(ctx context.Context, ownerID, id uint) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var survey models.Survey
		err := tx.Where("id = ? AND created_by_id = ?", id, ownerID).First(&survey).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound("Survey")
		}
		if err != nil {
			return err
		}
		return deleteSurveyTree(tx, []uint{survey.ID})
	})
}

// deleteSurveyTree deletes surveys and everything they own. tx must be a
// transaction.
func deleteSurveyTree(tx *gorm.DB, surveyIDs []uint) error {
	if len(surveyIDs) == 0 {
		return nil
	}
	blockIDs := tx.Model(&models.Block{}).Select("id").Where("survey_id IN ?", surveyIDs)
	if err := tx.Where("block_id IN (?)", blockIDs).Delete(&models.Question{}).Error; err != nil {
		return err
	}
	if err := tx.Where("survey_id IN ?", surveyIDs).Delete(&models.Block{}).Error; err != nil {
		return err
	}
	if err := tx.Where("survey_id IN ?", surveyIDs).Delete(&models.SurveyLink{}).Error; err != nil {
		return err
	}
	return tx.Where("id IN ?", surveyIDs).Delete(&models.Survey{}).Error
}

// DeleteOwnedBy removes every survey created by ownerID. tx must be a transaction.
func DeleteOwnedBy(tx *gorm.DB, ownerID uint) error {
	var ids []uint
	if err := tx.Model(&models.Survey{}).Where("created_by_id = ?", ownerID).Pluck("id", &ids).Error; err != nil {
		return err
	}
	return deleteSurveyTree(tx, ids)
}

func (s *Service) validateSurvey(in *SurveyInput) error {
	if err := s.Validator.Struct(in); err != nil {
		return err
	}
	seen := make(map[string]bool, len(in.Blocks))
	for _, b := range in.Blocks {
		name := utils.Sanitize(b.Name)
		if seen[name] {
			return apperror.ConflictField("blocks", MsgBlockNameTaken)
		}
		seen[name] = true
		for _, q := range b.Questions {
			if err := checkChoices(q); err != nil {
				return err
			}
		}
	}
	return nil
}

// checkChoices requires at least one labelled choice for radio and checkbox questions.
func checkChoices(q QuestionInput) error {
	if q.QuestionType.HasChoices() && len(q.Properties.Choices) == 0 {
		return apperror.Field("properties", string(q.QuestionType)+" questions need at least one choice")
	}
	for _, c := range q.Properties.Choices {
		if c.Label == "" || c.Value == "" {
			return apperror.Field("properties", "every choice needs a label and a value")
		}
	}
	return nil
}

// newQuestion builds a question row. Text questions never keep choices.
func newQuestion(blockID *uint, q QuestionInput) models.Question {
	props := q.Properties
	props.Label = utils.Sanitize(props.Label)
	if !q.QuestionType.HasChoices() {
		props.Choices = nil
	}
	return models.Question{
		BlockID:      blockID,
		Name:         utils.Sanitize(q.Name),
		QuestionType: q.QuestionType,
		Properties:   datatypes.NewJSONType(props),
		Marks:        q.Marks,
	}
}

func createBlock(tx *gorm.DB, surveyID uint, in BlockInput) (*models.Block, error) {
	block := models.Block{Name: utils.Sanitize(in.Name), SurveyID: surveyID}
	if err := tx.Create(&block).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperror.ConflictField("name", MsgBlockNameTaken)
		}
		return nil, err
	}
	for _, q := range in.Questions {
		question := newQuestion(&block.ID, q)
		if err := tx.Create(&question).Error; err != nil {
			return nil, err
		}
		block.Questions = append(block.Questions, question)
	}
	return &block, nil
}

func mapSurveyConflict(err error) error {
	if database.IsUniqueViolation(err) {
		return apperror.ConflictField("name", MsgNameTaken)
	}
	return err
}
