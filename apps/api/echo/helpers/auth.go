package helpers

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/darasahq/darasa/core"
)

var (
	errUnauthorized  = echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	ErrHTTPForbidden = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	ErrHTTPNotFound  = echo.NewHTTPError(http.StatusNotFound, "not found")

	contextClaimsKey = "claims"
)

// Claims represents the authorization claims transmitted via a JWT. Tokens
// are issued by the SSO gateway; this service only verifies them.
type Claims struct {
	jwt.RegisteredClaims
	StudentID uuid.UUID `json:"student_id,omitempty"`
	IsStudent bool      `json:"is_student,omitempty"` // -> LEARNER PORTAL
	IsTeacher bool      `json:"is_teacher,omitempty"` // -> AUTHORING PORTAL
	IsAdmin   bool      `json:"is_admin,omitempty"`
}

// JWTMiddleware verifies the Authorization bearer token and stores its
// claims on the request context.
func JWTMiddleware(conf *core.Config) echo.MiddlewareFunc {
	key := []byte(conf.SecretKey)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			raw := ctx.Request().Header.Get(echo.HeaderAuthorization)
			if raw == "" {
				// websocket clients cannot set headers
				raw = "Bearer " + ctx.QueryParam("token")
			}
			if !strings.HasPrefix(raw, "Bearer ") || raw == "Bearer " {
				return errUnauthorized
			}

			claims := new(Claims)
			token, err := jwt.ParseWithClaims(strings.TrimPrefix(raw, "Bearer "), claims, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, errUnauthorized
				}
				return key, nil
			})
			if err != nil || !token.Valid {
				return errUnauthorized
			}

			ctx.Set(contextClaimsKey, *claims)
			return next(ctx)
		}
	}
}

// TeacherMiddleware restricts a route to authoring users.
func TeacherMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := GetContextClaims(ctx)
			if err != nil {
				return err
			}
			if !(claims.IsTeacher || claims.IsAdmin) {
				return ErrHTTPForbidden
			}
			return next(ctx)
		}
	}
}

func GetContextClaims(ctx echo.Context) (Claims, error) {
	if claims, ok := ctx.Get(contextClaimsKey).(Claims); ok {
		return claims, nil
	}
	return Claims{}, errUnauthorized
}

// ContextStudentID returns the acting student. Teachers and admins may act
// on behalf of any student via the studentId query param.
func ContextStudentID(ctx echo.Context) (uuid.UUID, error) {
	claims, err := GetContextClaims(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	if claims.IsTeacher || claims.IsAdmin {
		if raw := ctx.QueryParam("studentId"); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid studentId")
			}
			return id, nil
		}
	}
	if claims.StudentID == uuid.Nil {
		return uuid.Nil, errUnauthorized
	}
	return claims.StudentID, nil
}
