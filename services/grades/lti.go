package gradesvc

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/courseware"
	"github.com/darasahq/darasa/core/eval"
)

// ltiService forwards scores to the platform gradebook through the LTI
// Basic Outcomes endpoint. Mutation semantics are resolved here: the
// outcomes protocol only knows replaceResult, so ADD/SUBTRACT callers must
// pass the already-combined value.
type ltiService struct {
	url    string
	client *http.Client
	logger core.Logger
}

var _ eval.GradePassback = (*ltiService)(nil)

func NewLTIService(conf *core.Config, logger core.Logger) *ltiService {
	return &ltiService{
		url:    conf.LTIOutcomesURL,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger,
	}
}

type (
	envelopeRequest struct {
		XMLName xml.Name    `xml:"imsx_POXEnvelopeRequest"`
		Body    requestBody `xml:"imsx_POXBody"`
	}

	requestBody struct {
		ReplaceResult replaceResult `xml:"replaceResultRequest"`
	}

	replaceResult struct {
		Record resultRecord `xml:"resultRecord"`
	}

	resultRecord struct {
		SourcedID string `xml:"sourcedGUID>sourcedId"`
		Score     string `xml:"result>resultScore>textString"`
	}
)

func (svc ltiService) PostScore(
	ctx context.Context,
	studentID, elementID uuid.UUID,
	elementType courseware.ElementType,
	value float64,
	operator courseware.MutationOperator,
) error {
	payload := envelopeRequest{
		Body: requestBody{
			ReplaceResult: replaceResult{
				Record: resultRecord{
					SourcedID: fmt.Sprintf("%s:%s", studentID, elementID),
					Score:     fmt.Sprintf("%g", value),
				},
			},
		},
	}
	data, err := xml.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "encoding outcomes request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, svc.url, bytes.NewReader(data))
	if err != nil {
		return errors.Wrap(err, "building outcomes request")
	}
	req.Header.Set("Content-Type", "application/xml")

	res, err := svc.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "posting score")
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusBadRequest {
		return errors.Errorf("posting score: outcomes endpoint replied %d", res.StatusCode)
	}
	svc.logger.Debug(fmt.Sprintf("grade passback accepted: student=%s element=%s value=%g", studentID, elementID, value))
	return nil
}
