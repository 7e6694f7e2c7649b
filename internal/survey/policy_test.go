package survey_test

import (
	"testing"

	"github.com/Kyz7/formbuilder/internal/apperror"
	"github.com/Kyz7/formbuilder/internal/survey"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }

func TestDerive(t *testing.T) {
	tests := []struct {
		name      string
		shape     survey.Shape
		requested *bool
		write     survey.Write
		published bool
		message   string
		policyErr bool
	}{
		{"create one block one question", survey.Shape{1}, nil, survey.WriteCreate, true, survey.MsgPublished, false},
		{"create asked to publish and publishable", survey.Shape{1}, boolPtr(true), survey.WriteCreate, true, survey.MsgPublished, false},
		{"create asked not to publish but publishable", survey.Shape{1}, boolPtr(false), survey.WriteCreate, true, survey.MsgPublished, false},
		{"create empty", survey.Shape{}, nil, survey.WriteCreate, false, survey.MsgSavedAsDraft, false},
		{"create one block two questions", survey.Shape{2}, nil, survey.WriteCreate, false, survey.MsgSavedAsDraft, false},
		{"create two blocks", survey.Shape{1, 1}, nil, survey.WriteCreate, false, survey.MsgSavedAsDraft, false},
		{"create empty block", survey.Shape{0}, nil, survey.WriteCreate, false, survey.MsgSavedAsDraft, false},
		{"create asked to publish two questions", survey.Shape{2}, boolPtr(true), survey.WriteCreate, false, "", true},
		{"update publishable", survey.Shape{1}, nil, survey.WriteUpdate, true, survey.MsgUpdated, false},
		{"update asked to publish two questions", survey.Shape{2}, boolPtr(true), survey.WriteUpdate, false, survey.MsgSavedAsDraft, false},
		{"patch publishable", survey.Shape{1}, boolPtr(false), survey.WritePatch, true, survey.MsgUpdated, false},
		{"patch empty", survey.Shape{}, nil, survey.WritePatch, false, survey.MsgSavedAsDraft, false},
		{"status publish", survey.Shape{1}, boolPtr(true), survey.WriteStatus, true, survey.MsgStatusChanged, false},
		{"status unpublish publishable", survey.Shape{1}, boolPtr(false), survey.WriteStatus, false, survey.MsgStatusChanged, false},
		{"status unpublish empty", survey.Shape{}, boolPtr(false), survey.WriteStatus, false, survey.MsgStatusChanged, false},
		{"status publish two blocks", survey.Shape{1, 1}, boolPtr(true), survey.WriteStatus, false, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome, err := survey.Derive(tt.shape, tt.requested, tt.write)
			if tt.policyErr {
				require.Error(t, err)
				assert.Equal(t, apperror.KindPolicy, apperror.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.published, outcome.Published)
			assert.Equal(t, tt.message, outcome.Message)
		})
	}
}

func TestShapePublishable(t *testing.T) {
	assert.True(t, survey.Shape{1}.Publishable())
	assert.False(t, survey.Shape(nil).Publishable())
	assert.False(t, survey.Shape{3}.Publishable())
	assert.False(t, survey.Shape{1, 0}.Publishable())
}
