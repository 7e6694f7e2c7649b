package survey

import (
	"github.com/Kyz7/formbuilder/internal/apperror"
	"github.com/Kyz7/formbuilder/internal/models"
)

const (
	MsgPublished      = "Form published successfully"
	MsgSavedAsDraft   = "Form cannot be published until there is one block with a question, Form saved as Draft"
	MsgCannotPublish  = "Form cannot be published until there is one block with a question"
	MsgUpdated        = "Form updated successfully"
	MsgCreated        = "Form created successfully"
	MsgStatusChanged  = "Form status updated successfully"
	MsgDeleted        = "Form deleted successfully"
	MsgNameTaken      = "Form with this name already exists"
	MsgBlockNameTaken = "Block with this name already exists"
)

// Shape is the number of questions in each block of a survey, in block order.
type Shape []int

func ShapeOf(s *models.Survey) Shape {
	shape := make(Shape, len(s.Blocks))
	for i, b := range s.Blocks {
		shape[i] = len(b.Questions)
	}
	return shape
}

// Publishable is true for exactly one block holding exactly one question.
func (s Shape) Publishable() bool {
	return len(s) == 1 && s[0] == 1
}

// Write identifies which survey write is being derived.
type Write int

const (
	WriteCreate Write = iota
	WriteUpdate
	WritePatch
	WriteStatus
)

// Outcome is the derived publication state and the message the caller reports.
type Outcome struct {
	Published bool
	Message   string
}

// Derive decides is_published from the shape. requested is the caller's
// explicit is_published value, nil when absent. Create, update and patch
// ignore requested apart from reporting: asking to publish an unpublishable
// survey is a policy error on create and a draft on update and patch.
// The status write follows requested, subject to the same shape rule.
func Derive(shape Shape, requested *bool, write Write) (Outcome, error) {
	askedToPublish := requested != nil && *requested

	if write == WriteStatus && !askedToPublish {
		return Outcome{Published: false, Message: MsgStatusChanged}, nil
	}

	if shape.Publishable() {
		msg := MsgPublished
		switch write {
		case WriteUpdate, WritePatch:
			msg = MsgUpdated
		case WriteStatus:
			msg = MsgStatusChanged
		}
		return Outcome{Published: true, Message: msg}, nil
	}

	if askedToPublish && (write == WriteCreate || write == WriteStatus) {
		return Outcome{}, apperror.Policy(MsgCannotPublish)
	}
	return Outcome{Published: false, Message: MsgSavedAsDraft}, nil
}
