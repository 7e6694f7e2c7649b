package survey

import (
	"context"
	"errors"

	"github.com/Kyz7/formbuilder/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func (s *Service) ListQuestions(ctx context.Context, ownerID, blockID uint) ([]models.Question, error) {
	block, err := s.GetBlock(ctx, ownerID, blockID)
	if err != nil {
		return nil, err
	}
	if block.Questions == nil {
		return []models.Question{}, nil
	}
	return block.Questions, nil
}

func (s *Service) GetQuestion(ctx context.Context, ownerID, questionID uint) (*models.Question, error) {
	return s.loadQuestion(s.DB.WithContext(ctx), ownerID, questionID)
}

func (s *Service) loadQuestion(db *gorm.DB, ownerID, questionID uint) (*models.Question, error) {
	var question models.Question
	err := db.Model(&models.Question{}).
		Joins("JOIN blocks ON blocks.id = questions.block_id").
		Joins("JOIN surveys ON surveys.id = blocks.survey_id").
		Where("questions.id = ? AND surveys.created_by_id = ?", questionID, ownerID).
		First(&question).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("Question")
	}
	if err != nil {
		return nil, err
	}
	return &question, nil
}

func (s *Service) CreateQuestion(ctx context.Context, ownerID, blockID uint, in QuestionInput) (*models.Question, error) {
	if err := s.Validator.Struct(&in); err != nil {
		return nil, err
	}
	if err := checkChoices(in); err != nil {
		return nil, err
	}

	block, err := s.GetBlock(ctx, ownerID, blockID)
	if err != nil {
		return nil, err
	}

	question := newQuestion(&block.ID, in)
	if err := s.DB.WithContext(ctx).Create(&question).Error; err != nil {
		return nil, err
	}
	return &question, nil
}

func (s *Service) UpdateQuestion(ctx context.Context, ownerID, questionID uint, in QuestionInput) (*models.Question, error) {
	if err := s.Validator.Struct(&in); err != nil {
		return nil, err
	}
	if err := checkChoices(in); err != nil {
		return nil, err
	}

	question, err := s.GetQuestion(ctx, ownerID, questionID)
	if err != nil {
		return nil, err
	}

	updated := newQuestion(question.BlockID, in)
	err = s.DB.WithContext(ctx).Model(&models.Question{ID: question.ID}).Updates(map[string]interface{}{
		"name":          updated.Name,
		"question_type": updated.QuestionType,
		"properties":    updated.Properties,
		"marks":         updated.Marks,
	}).Error
	if err != nil {
		return nil, err
	}
	return s.GetQuestion(ctx, ownerID, questionID)
}

func (s *Service) DeleteQuestion(ctx context.Context, ownerID, questionID uint) error {
	question, err := s.GetQuestion(ctx, ownerID, questionID)
	if err != nil {
		return err
	}
	return s.DB.WithContext(ctx).Delete(&models.Question{}, question.ID).Error
}

// DefaultQuestions is the template pool seeded by SeedDefaultQuestions.
var DefaultQuestions = []models.DefaultQuestion{
	{
		Name:         "Text Question",
		QuestionType: models.QuestionText,
		Properties:   datatypes.NewJSONType(models.QuestionProperties{Label: "Text Question", Required: true}),
		Marks:        1,
	},
	{
		Name:         "Radio Question",
		QuestionType: models.QuestionRadio,
		Properties: datatypes.NewJSONType(models.QuestionProperties{
			Label:    "Radio Question",
			Required: true,
			Choices: []models.Choice{
				{Label: "Option 1", Value: "option_1", Marks: 1},
				{Label: "Option 2", Value: "option_2", Marks: 0},
			},
		}),
		Marks: 2,
	},
	{
		Name:         "Checkbox Question",
		QuestionType: models.QuestionCheckbox,
		Properties: datatypes.NewJSONType(models.QuestionProperties{
			Label: "Checkbox Question",
			Choices: []models.Choice{
				{Label: "Option 1", Value: "option_1", Marks: 1},
				{Label: "Option 2", Value: "option_2", Marks: 1},
				{Label: "Option 3", Value: "option_3", Marks: 1},
			},
		}),
		Marks: 3,
	},
}

// SeedDefaultQuestions inserts the templates that are not present yet.
func SeedDefaultQuestions(ctx context.Context, db *gorm.DB) (int, error) {
	created := 0
	for _, tmpl := range DefaultQuestions {
		var existing models.DefaultQuestion
		err := db.WithContext(ctx).Where("name = ?", tmpl.Name).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return created, err
		}

		q := tmpl
		if err := db.WithContext(ctx).Create(&q).Error; err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

func (s *Service) ListDefaultQuestions(ctx context.Context) ([]models.DefaultQuestion, error) {
	questions := make([]models.DefaultQuestion, 0)
	err := s.DB.WithContext(ctx).Order("id").Find(&questions).Error
	return questions, err
}

func (s *Service) GetDefaultQuestion(ctx context.Context, id uint) (*models.DefaultQuestion, error) {
	var q models.DefaultQuestion
	err := s.DB.WithContext(ctx).First(&q, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("Default question")
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}
