package assignment

import (
	"context"
	"fmt"

	"github.com/Kyz7/formbuilder/internal/models"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Survey Links"

var exportHeader = []interface{}{"Link ID", "Survey", "Username", "Email", "Assigned At", "Submitted"}

// Export writes the owner's survey links to an xlsx workbook.
func (s *Service) Export(ctx context.Context, ownerID uint) ([]byte, error) {
	links := make([]models.SurveyLink, 0)
	err := s.ownerLinks(ctx, ownerID).
		Preload("Survey").
		Preload("User").
		Order("survey_links.id").
		Find(&links).Error
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(exportSheet, "A1", &exportHeader); err != nil {
		return nil, err
	}

	for i, link := range links {
		var surveyName, username, email string
		if link.Survey != nil {
			surveyName = link.Survey.Name
		}
		if link.User != nil {
			username, email = link.User.Username, link.User.Email
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []interface{}{
			link.ID,
			surveyName,
			username,
			email,
			link.AssignedAt.UTC().Format("2006-01-02 15:04:05"),
			yesNo(link.IsSubmitted),
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
