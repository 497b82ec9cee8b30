package auth_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/Satyam0004/leave/internal/auth"
	autherrors "github.com/Satyam0004/leave/internal/auth/errors"
	"github.com/Satyam0004/leave/internal/user"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type fakeUserRepository struct {
	createFn      func(ctx context.Context, u *user.User) error
	findByIDFn    func(ctx context.Context, id string) (*user.User, error)
	findByEmailFn func(ctx context.Context, email string) (*user.User, error)
}

func (f *fakeUserRepository) WithTx(tx *sql.Tx) user.Repository { return f }

func (f *fakeUserRepository) Create(ctx context.Context, u *user.User) error {
	if f.createFn != nil {
		return f.createFn(ctx, u)
	}
	return nil
}

func (f *fakeUserRepository) FindByID(ctx context.Context, id string) (*user.User, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(ctx, id)
	}
	return &user.User{}, gorm.ErrRecordNotFound
}

func (f *fakeUserRepository) FindByIDForUpdate(ctx context.Context, id string) (*user.User, error) {
	return f.FindByID(ctx, id)
}

func (f *fakeUserRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	if f.findByEmailFn != nil {
		return f.findByEmailFn(ctx, email)
	}
	return &user.User{}, gorm.ErrRecordNotFound
}

func (f *fakeUserRepository) FindCoordinatorsByClass(ctx context.Context, studentClass string) ([]user.User, error) {
	return nil, nil
}

func TestAuthService_RegisterStudent(t *testing.T) {
	ctx := context.Background()

	req := auth.RegisterStudentRequest{
		Email:        "asha@school.test",
		Name:         "Asha Verma",
		Password:     "secret123",
		RollNumber:   "10A-17",
		StudentClass: "10-A",
	}

	t.Run("success", func(t *testing.T) {
		users := &fakeUserRepository{}
		var created *user.User
		users.createFn = func(ctx context.Context, u *user.User) error {
			created = u
			return nil
		}

		svc := auth.NewService(users)
		resp, err := svc.RegisterStudent(ctx, req)

		assert.NoError(t, err)
		assert.Equal(t, user.RoleStudent, resp.Role)
		assert.Empty(t, resp.Token)
		assert.NotNil(t, created)
		assert.True(t, created.IsActive)
		assert.NotNil(t, created.RollNumber)
		assert.Equal(t, "10A-17", *created.RollNumber)
		assert.NotNil(t, created.StudentClass)
		assert.Equal(t, "10-A", *created.StudentClass)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.Password), []byte("secret123")))
	})

	t.Run("negative email already registered", func(t *testing.T) {
		users := &fakeUserRepository{
			findByEmailFn: func(ctx context.Context, email string) (*user.User, error) {
				return &user.User{ID: uuid.New(), Email: email}, nil
			},
		}

		svc := auth.NewService(users)
		_, err := svc.RegisterStudent(ctx, req)

		assert.ErrorIs(t, err, autherrors.ErrEmailAlreadyRegistered)
	})
}

func TestAuthService_RegisterCoordinator(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		users := &fakeUserRepository{}
		var created *user.User
		users.createFn = func(ctx context.Context, u *user.User) error {
			created = u
			return nil
		}

		svc := auth.NewService(users)
		resp, err := svc.RegisterCoordinator(ctx, auth.RegisterCoordinatorRequest{
			Email:         "mentor@school.test",
			Name:          "R. Iyer",
			Password:      "secret123",
			AssignedClass: "10-A",
		})

		assert.NoError(t, err)
		assert.Equal(t, user.RoleCoordinator, resp.Role)
		assert.NotNil(t, created)
		assert.Nil(t, created.RollNumber)
		assert.NotNil(t, created.AssignedClass)
		assert.Equal(t, "10-A", *created.AssignedClass)
	})
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	t.Setenv("JWT_SECRET", "test-secret")

	hashed, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	assert.NoError(t, err)

	active := &user.User{
		ID:       uuid.New(),
		Email:    "asha@school.test",
		Name:     "Asha Verma",
		Password: string(hashed),
		Role:     user.RoleStudent,
		IsActive: true,
	}

	t.Run("success issues a token with identity claims", func(t *testing.T) {
		users := &fakeUserRepository{
			findByEmailFn: func(ctx context.Context, email string) (*user.User, error) {
				assert.Equal(t, "asha@school.test", email)
				return active, nil
			},
		}

		svc := auth.NewService(users)
		resp, err := svc.Login(ctx, "asha@school.test", "secret123")

		assert.NoError(t, err)
		assert.NotEmpty(t, resp.Token)

		parsed, err := jwt.Parse(resp.Token, func(token *jwt.Token) (interface{}, error) {
			return []byte("test-secret"), nil
		})
		assert.NoError(t, err)
		claims := parsed.Claims.(jwt.MapClaims)
		assert.Equal(t, active.ID.String(), claims["user_id"])
		assert.Equal(t, user.RoleStudent, claims["role"])
		assert.Equal(t, "Asha Verma", claims["name"])
	})

	t.Run("negative wrong password", func(t *testing.T) {
		users := &fakeUserRepository{
			findByEmailFn: func(ctx context.Context, email string) (*user.User, error) {
				return active, nil
			},
		}

		svc := auth.NewService(users)
		_, err := svc.Login(ctx, "asha@school.test", "wrong")

		assert.ErrorIs(t, err, autherrors.ErrInvalidCredentials)
	})

	t.Run("negative unknown email", func(t *testing.T) {
		svc := auth.NewService(&fakeUserRepository{})
		_, err := svc.Login(ctx, "ghost@school.test", "secret123")

		assert.ErrorIs(t, err, autherrors.ErrInvalidCredentials)
	})

	t.Run("negative inactive account", func(t *testing.T) {
		inactive := *active
		inactive.IsActive = false
		users := &fakeUserRepository{
			findByEmailFn: func(ctx context.Context, email string) (*user.User, error) {
				return &inactive, nil
			},
		}

		svc := auth.NewService(users)
		_, err := svc.Login(ctx, "asha@school.test", "secret123")

		assert.ErrorIs(t, err, autherrors.ErrInvalidCredentials)
	})
}

func TestAuthService_GetMe(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		id := uuid.New()
		users := &fakeUserRepository{
			findByIDFn: func(ctx context.Context, gotID string) (*user.User, error) {
				assert.Equal(t, id.String(), gotID)
				return &user.User{ID: id, Email: "asha@school.test", Name: "Asha Verma", Role: user.RoleStudent}, nil
			},
		}

		svc := auth.NewService(users)
		resp, err := svc.GetMe(ctx, id.String())

		assert.NoError(t, err)
		assert.Equal(t, id.String(), resp.ID)
		assert.Equal(t, user.RoleStudent, resp.Role)
	})

	t.Run("negative malformed id", func(t *testing.T) {
		svc := auth.NewService(&fakeUserRepository{})
		_, err := svc.GetMe(ctx, "not-a-uuid")

		assert.ErrorIs(t, err, autherrors.ErrInvalidUserID)
	})
}
