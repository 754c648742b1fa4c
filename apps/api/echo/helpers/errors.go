package helpers

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	ut "github.com/go-playground/universal-translator"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/courseware"
	"github.com/darasahq/darasa/core/eval"
	"github.com/darasahq/darasa/core/progress"
	"github.com/darasahq/darasa/core/scope"
)

// AppHTTPErrorHandler maps service errors to API responses.
func AppHTTPErrorHandler(translator ut.Translator) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		var code int
		var message interface{}

		switch cause := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if cause.Internal != nil {
				if herr, ok := cause.Internal.(*echo.HTTPError); ok {
					cause = herr
				}
			}
			code = cause.Code
			message = cause.Message
		case validator.ValidationErrors:
			fldErrs := make(map[string]string)
			for _, vErr := range cause {
				fldErrs[vErr.Field()] = vErr.Translate(translator)
			}
			code = http.StatusBadRequest
			message = fldErrs
		case *core.ValidationError:
			if cause.Fields != nil {
				fldErrs := make(map[string]string)
				for _, fErr := range cause.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				message = fldErrs
			} else {
				message = cause.Error()
			}
			code = http.StatusBadRequest
		case *core.StructuralError:
			// authored content no longer matches recorded traversal state
			code = http.StatusUnprocessableEntity
			message = cause.Error()
		case *eval.UnsupportedActionError:
			code = http.StatusBadRequest
			message = cause.Error()
		default:
			switch errors.Cause(err) {
			case courseware.ErrNotFound, courseware.ErrScenarioNotFound, progress.ErrNotFound, scope.ErrNotFound:
				code = http.StatusNotFound
				message = errors.Cause(err).Error()
			default: // any other error is a server error
				code = http.StatusInternalServerError
				message = http.StatusText(http.StatusInternalServerError)
			}
		}

		if c.Echo().Debug {
			message = err.Error()
		}
		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		if !c.Response().Committed {
			if c.Request().Method == http.MethodHead {
				err = c.NoContent(code)
			} else {
				err = c.JSON(code, message)
			}
			if err != nil {
				c.Echo().Logger.Error(err)
			}
		}
	}
}
