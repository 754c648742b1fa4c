package helpers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darasahq/darasa/core"
)

func signToken(t *testing.T, key string, claims Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	require.NoError(t, err)
	return token
}

func learnerClaims(studentID uuid.UUID) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		StudentID: studentID,
		IsStudent: true,
	}
}

func authContext(e *echo.Echo, target string, header string) echo.Context {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	return e.NewContext(req, httptest.NewRecorder())
}

func passthrough(called *bool) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		*called = true
		return nil
	}
}

func TestJWTMiddleware(t *testing.T) {
	conf := &core.Config{SecretKey: "poivron rouge"}
	mw := JWTMiddleware(conf)
	e := echo.New()
	studentID := uuid.New()

	t.Run("valid bearer token", func(t *testing.T) {
		ctx := authContext(e, "/", "Bearer "+signToken(t, conf.SecretKey, learnerClaims(studentID)))
		var called bool
		require.NoError(t, mw(passthrough(&called))(ctx))
		assert.True(t, called)

		claims, err := GetContextClaims(ctx)
		require.NoError(t, err)
		assert.Equal(t, studentID, claims.StudentID)
		assert.True(t, claims.IsStudent)
	})

	t.Run("token via query param for websocket clients", func(t *testing.T) {
		ctx := authContext(e, "/?token="+signToken(t, conf.SecretKey, learnerClaims(studentID)), "")
		var called bool
		require.NoError(t, mw(passthrough(&called))(ctx))
		assert.True(t, called)
	})

	t.Run("missing token", func(t *testing.T) {
		ctx := authContext(e, "/", "")
		var called bool
		err := mw(passthrough(&called))(ctx)
		assert.Equal(t, errUnauthorized, err)
		assert.False(t, called)
	})

	t.Run("wrong signing key", func(t *testing.T) {
		ctx := authContext(e, "/", "Bearer "+signToken(t, "not the key", learnerClaims(studentID)))
		var called bool
		assert.Equal(t, errUnauthorized, mw(passthrough(&called))(ctx))
	})

	t.Run("expired token", func(t *testing.T) {
		claims := learnerClaims(studentID)
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
		ctx := authContext(e, "/", "Bearer "+signToken(t, conf.SecretKey, claims))
		var called bool
		assert.Equal(t, errUnauthorized, mw(passthrough(&called))(ctx))
	})
}

func TestTeacherMiddleware(t *testing.T) {
	mw := TeacherMiddleware()
	e := echo.New()

	t.Run("teacher passes", func(t *testing.T) {
		ctx := authContext(e, "/", "")
		ctx.Set(contextClaimsKey, Claims{IsTeacher: true})
		var called bool
		require.NoError(t, mw(passthrough(&called))(ctx))
		assert.True(t, called)
	})

	t.Run("admin passes", func(t *testing.T) {
		ctx := authContext(e, "/", "")
		ctx.Set(contextClaimsKey, Claims{IsAdmin: true})
		var called bool
		require.NoError(t, mw(passthrough(&called))(ctx))
		assert.True(t, called)
	})

	t.Run("learner is forbidden", func(t *testing.T) {
		ctx := authContext(e, "/", "")
		ctx.Set(contextClaimsKey, Claims{StudentID: uuid.New(), IsStudent: true})
		var called bool
		assert.Equal(t, ErrHTTPForbidden, mw(passthrough(&called))(ctx))
		assert.False(t, called)
	})

	t.Run("no claims", func(t *testing.T) {
		ctx := authContext(e, "/", "")
		var called bool
		assert.Equal(t, errUnauthorized, mw(passthrough(&called))(ctx))
	})
}

func TestContextStudentID(t *testing.T) {
	e := echo.New()

	t.Run("learner acts as themselves", func(t *testing.T) {
		studentID := uuid.New()
		ctx := authContext(e, "/?studentId="+uuid.New().String(), "")
		ctx.Set(contextClaimsKey, Claims{StudentID: studentID, IsStudent: true})

		// the query param is ignored for learners
		got, err := ContextStudentID(ctx)
		require.NoError(t, err)
		assert.Equal(t, studentID, got)
	})

	t.Run("teacher acts on behalf of a student", func(t *testing.T) {
		studentID := uuid.New()
		ctx := authContext(e, "/?studentId="+studentID.String(), "")
		ctx.Set(contextClaimsKey, Claims{IsTeacher: true})

		got, err := ContextStudentID(ctx)
		require.NoError(t, err)
		assert.Equal(t, studentID, got)
	})

	t.Run("teacher with bad studentId param", func(t *testing.T) {
		ctx := authContext(e, "/?studentId=nope", "")
		ctx.Set(contextClaimsKey, Claims{IsTeacher: true})

		_, err := ContextStudentID(ctx)
		require.Error(t, err)
		httpErr, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusBadRequest, httpErr.Code)
	})

	t.Run("teacher without student context", func(t *testing.T) {
		ctx := authContext(e, "/", "")
		ctx.Set(contextClaimsKey, Claims{IsTeacher: true})

		_, err := ContextStudentID(ctx)
		assert.Equal(t, errUnauthorized, err)
	})
}
