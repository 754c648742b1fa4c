package emailsvc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/mail"

	"github.com/google/uuid"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/eval"
)

// OnlineChecker reports whether a student is reachable on the realtime
// channel right now.
type OnlineChecker interface {
	Online(studentID uuid.UUID) bool
}

// feedbackEmitter delivers feedback over the realtime channel and falls
// back to the support inbox when the student is offline, so feedback fired
// by delayed or teacher-driven evaluations is not silently lost.
type feedbackEmitter struct {
	primary interface {
		eval.FeedbackEmitter
		OnlineChecker
	}
	mail    core.EmailService
	support mail.Address
}

var _ eval.FeedbackEmitter = (*feedbackEmitter)(nil)

func NewFeedbackEmitter(
	primary interface {
		eval.FeedbackEmitter
		OnlineChecker
	},
	mailSvc core.EmailService,
	conf *core.Config,
) *feedbackEmitter {
	return &feedbackEmitter{primary: primary, mail: mailSvc, support: conf.SupportEmail}
}

func (e *feedbackEmitter) EmitFeedback(ctx context.Context, studentID, elementID uuid.UUID, value json.RawMessage) error {
	if e.primary.Online(studentID) {
		return e.primary.EmitFeedback(ctx, studentID, elementID, value)
	}

	e.mail.SendMessages(&core.EmailMessage{
		To:      []mail.Address{e.support},
		Subject: fmt.Sprintf("Undelivered feedback for student %s", studentID),
		BodyStr: fmt.Sprintf("Student %s was offline when feedback fired on element %s.\n\nPayload:\n%s\n", studentID, elementID, value),
	})
	return nil
}
