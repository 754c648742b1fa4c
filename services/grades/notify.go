package gradesvc

import (
	"context"
	"fmt"
	"net/mail"

	"github.com/google/uuid"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/courseware"
	"github.com/darasahq/darasa/core/eval"
)

// notifyingPassback wraps a passback collaborator and emails the support
// inbox when a post fails. The error still propagates; the notice exists so
// staff can reconcile the gradebook by hand.
type notifyingPassback struct {
	next    eval.GradePassback
	mail    core.EmailService
	support mail.Address
}

var _ eval.GradePassback = (*notifyingPassback)(nil)

func NewNotifyingPassback(next eval.GradePassback, mailSvc core.EmailService, conf *core.Config) *notifyingPassback {
	return &notifyingPassback{next: next, mail: mailSvc, support: conf.SupportEmail}
}

func (svc *notifyingPassback) PostScore(
	ctx context.Context,
	studentID, elementID uuid.UUID,
	elementType courseware.ElementType,
	value float64,
	operator courseware.MutationOperator,
) error {
	err := svc.next.PostScore(ctx, studentID, elementID, elementType, value, operator)
	if err != nil {
		svc.mail.SendMessages(&core.EmailMessage{
			To:      []mail.Address{svc.support},
			Subject: fmt.Sprintf("Grade passback failed for student %s", studentID),
			BodyStr: fmt.Sprintf("Posting %s %g on %s %s failed: %v\n", operator, value, elementType, elementID, err),
		})
	}
	return err
}
