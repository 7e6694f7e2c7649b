package survey

import (
	"context"
	"errors"

	"github.com/Kyz7/formbuilder/internal/apperror"
	"github.com/Kyz7/formbuilder/internal/database"
	"github.com/Kyz7/formbuilder/internal/models"
	"github.com/Kyz7/formbuilder/internal/utils"

	"gorm.io/gorm"
)

type BlockUpdate struct {
	Name string `json:"name" validate:"required,max=100"`
}

// ownedBlock scopes a block query to surveys created by ownerID.
func ownedBlock(db *gorm.DB, ownerID uint) *gorm.DB {
	return db.Model(&models.Block{}).
		Joins("JOIN surveys ON surveys.id = blocks.survey_id").
		Where("surveys.created_by_id = ?", ownerID)
}

func (s *Service) ListBlocks(ctx context.Context, ownerID, surveyID uint) ([]models.Block, error) {
	if _, err := s.ownedSurvey(s.DB.WithContext(ctx), ownerID, surveyID); err != nil {
		return nil, err
	}

	blocks := make([]models.Block, 0)
	err := s.DB.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB { return db.Order("questions.id") }).
		Where("survey_id = ?", surveyID).
		Order("id").
		Find(&blocks).Error
	return blocks, err
}

func (s *Service) GetBlock(ctx context.Context, ownerID, blockID uint) (*models.Block, error) {
	return s.loadBlock(s.DB.WithContext(ctx), ownerID, blockID)
}

func (s *Service) loadBlock(db *gorm.DB, ownerID, blockID uint) (*models.Block, error) {
	var block models.Block
	err := ownedBlock(db, ownerID).
		Preload("Questions", func(db *gorm.DB) *gorm.DB { return db.Order("questions.id") }).
		Where("blocks.id = ?", blockID).
		First(&block).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("Block")
	}
	if err != nil {
		return nil, err
	}
	return &block, nil
}

func (s *Service) ownedSurvey(db *gorm.DB, ownerID, surveyID uint) (*models.Survey, error) {
	var survey models.Survey
	err := db.Where("id = ? AND created_by_id = ?", surveyID, ownerID).First(&survey).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("Survey")
	}
	if err != nil {
		return nil, err
	}
	return &survey, nil
}

// CreateBlock adds a block, optionally with questions, to one of the owner's
// surveys. The survey's publication state is left as it is.
func (s *Service) CreateBlock(ctx context.Context, ownerID, surveyID uint, in BlockInput) (*models.Block, error) {
	if err := s.Validator.Struct(&in); err != nil {
		return nil, err
	}
	for _, q := range in.Questions {
		if err := checkChoices(q); err != nil {
			return nil, err
		}
	}

	var block *models.Block
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.ownedSurvey(tx, ownerID, surveyID); err != nil {
			return err
		}
		created, err := createBlock(tx, surveyID, in)
		if err != nil {
			return err
		}
		block = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetBlock(ctx, ownerID, block.ID)
}

func (s *Service) UpdateBlock(ctx context.Context, ownerID, blockID uint, in BlockUpdate) (*models.Block, error) {
	if err := s.Validator.Struct(&in); err != nil {
		return nil, err
	}

	block, err := s.GetBlock(ctx, ownerID, blockID)
	if err != nil {
		return nil, err
	}
	err = s.DB.WithContext(ctx).Model(&models.Block{ID: block.ID}).Update("name", utils.Sanitize(in.Name)).Error
	if database.IsUniqueViolation(err) {
		return nil, apperror.ConflictField("name", MsgBlockNameTaken)
	}
	if err != nil {
		return nil, err
	}
	return s.GetBlock(ctx, ownerID, blockID)
}

func (s *Service) DeleteBlock(ctx context.Context, ownerID, blockID uint) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		block, err := s.loadBlock(tx, ownerID, blockID)
		if err != nil {
			return err
		}
		if err := tx.Where("block_id = ?", block.ID).Delete(&models.Question{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Block{}, block.ID).Error
	})
}
