package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Satyam0004/leave/internal/auth"
	autherrors "github.com/Satyam0004/leave/internal/auth/errors"
	"github.com/Satyam0004/leave/internal/user"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type apiEnvelope struct {
	Ok    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Error *apiError       `json:"error"`
}

func decodeEnvelope(t *testing.T, body []byte) apiEnvelope {
	t.Helper()
	var env apiEnvelope
	err := json.Unmarshal(body, &env)
	assert.NoError(t, err)
	return env
}

type fakeAuthService struct {
	registerStudentFn     func(ctx context.Context, req auth.RegisterStudentRequest) (auth.AuthResponse, error)
	registerCoordinatorFn func(ctx context.Context, req auth.RegisterCoordinatorRequest) (auth.AuthResponse, error)
	loginFn               func(ctx context.Context, email, password string) (auth.AuthResponse, error)
	getMeFn               func(ctx context.Context, userID string) (*auth.AuthResponse, error)
}

func (f *fakeAuthService) RegisterStudent(ctx context.Context, req auth.RegisterStudentRequest) (auth.AuthResponse, error) {
	return f.registerStudentFn(ctx, req)
}
func (f *fakeAuthService) RegisterCoordinator(ctx context.Context, req auth.RegisterCoordinatorRequest) (auth.AuthResponse, error) {
	return f.registerCoordinatorFn(ctx, req)
}
func (f *fakeAuthService) Login(ctx context.Context, email, password string) (auth.AuthResponse, error) {
	return f.loginFn(ctx, email, password)
}
func (f *fakeAuthService) GetMe(ctx context.Context, userID string) (*auth.AuthResponse, error) {
	return f.getMeFn(ctx, userID)
}

func TestAuthHandler_RegisterStudent(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc := &fakeAuthService{
			registerStudentFn: func(ctx context.Context, req auth.RegisterStudentRequest) (auth.AuthResponse, error) {
				assert.Equal(t, "asha@school.test", req.Email)
				assert.Equal(t, "10-A", req.StudentClass)
				return auth.AuthResponse{
					ID:    uuid.New().String(),
					Email: req.Email,
					Name:  req.Name,
					Role:  user.RoleStudent,
				}, nil
			},
		}

		h := auth.NewHandler(svc)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		body := `{"email":"asha@school.test","name":"Asha Verma","password":"secret123","roll_number":"10A-17","student_class":"10-A"}`
		c.Request = httptest.NewRequest(http.MethodPost, "/auth/register/student", strings.NewReader(body))
		c.Request.Header.Set("Content-Type", "application/json")

		h.RegisterStudent(c)

		assert.Equal(t, http.StatusCreated, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.True(t, env.Ok)
	})

	t.Run("negative short password fails binding", func(t *testing.T) {
		svc := &fakeAuthService{
			registerStudentFn: func(ctx context.Context, req auth.RegisterStudentRequest) (auth.AuthResponse, error) {
				t.Fatal("service must not be called")
				return auth.AuthResponse{}, nil
			},
		}

		h := auth.NewHandler(svc)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		body := `{"email":"asha@school.test","name":"Asha Verma","password":"abc","roll_number":"10A-17","student_class":"10-A"}`
		c.Request = httptest.NewRequest(http.MethodPost, "/auth/register/student", strings.NewReader(body))
		c.Request.Header.Set("Content-Type", "application/json")

		h.RegisterStudent(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAuthHandler_Login(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc := &fakeAuthService{
			loginFn: func(ctx context.Context, email, password string) (auth.AuthResponse, error) {
				return auth.AuthResponse{
					ID:    uuid.New().String(),
					Email: email,
					Role:  user.RoleStudent,
					Token: "signed-token",
				}, nil
			},
		}

		h := auth.NewHandler(svc)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		body := `{"email":"asha@school.test","password":"secret123"}`
		c.Request = httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
		c.Request.Header.Set("Content-Type", "application/json")

		h.Login(c)

		assert.Equal(t, http.StatusOK, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		var got auth.AuthResponse
		assert.NoError(t, json.Unmarshal(env.Data, &got))
		assert.Equal(t, "signed-token", got.Token)
	})

	t.Run("negative bad credentials map to 401", func(t *testing.T) {
		svc := &fakeAuthService{
			loginFn: func(ctx context.Context, email, password string) (auth.AuthResponse, error) {
				return auth.AuthResponse{}, autherrors.ErrInvalidCredentials
			},
		}

		h := auth.NewHandler(svc)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		body := `{"email":"asha@school.test","password":"wrong"}`
		c.Request = httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
		c.Request.Header.Set("Content-Type", "application/json")

		h.Login(c)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.False(t, env.Ok)
	})
}

func TestAuthHandler_GetMe(t *testing.T) {
	t.Run("success reads identity from context", func(t *testing.T) {
		userID := uuid.New().String()
		svc := &fakeAuthService{
			getMeFn: func(ctx context.Context, gotID string) (*auth.AuthResponse, error) {
				assert.Equal(t, userID, gotID)
				return &auth.AuthResponse{ID: gotID, Role: user.RoleCoordinator}, nil
			},
		}

		h := auth.NewHandler(svc)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		c.Set("user_id", userID)

		h.GetMe(c)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}
