package gradesvc

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/courseware"
	"github.com/darasahq/darasa/core/eval"
)

// consoleService logs passed-back grades instead of forwarding them.
// It stands in for the gradebook in local development and tests.
type consoleService struct {
	logger core.Logger
}

var _ eval.GradePassback = (*consoleService)(nil)

func NewConsoleService(logger core.Logger) *consoleService {
	return &consoleService{logger: logger}
}

func (svc consoleService) PostScore(
	ctx context.Context,
	studentID, elementID uuid.UUID,
	elementType courseware.ElementType,
	value float64,
	operator courseware.MutationOperator,
) error {
	svc.logger.Info(
		fmt.Sprintf("grade passback: student=%s element=%s (%s) op=%s value=%v",
			studentID, elementID, elementType, operator, value),
	)
	return nil
}
