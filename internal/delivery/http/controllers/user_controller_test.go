package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatherly/internal/delivery/http/middleware"
	"gatherly/internal/domain"
)

// fakeAuthService implements domain.UserService for user handler tests.
type fakeAuthService struct {
	registerErr  error
	lastRegister *domain.User
	lastPassword string

	loginErr    error
	loginUser   *domain.User
	lastEmail   string

	profileUser *domain.User
	updateErr   error
	lastUpdate  *domain.User
}

func (f *fakeAuthService) Register(ctx context.Context, user *domain.User, password string) (string, error) {
	f.lastRegister = user
	f.lastPassword = password
	if f.registerErr != nil {
		return "", f.registerErr
	}
	user.ID = "user-created"
	return "token-abc", nil
}

func (f *fakeAuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	f.lastEmail = email
	if f.loginErr != nil {
		return "", nil, f.loginErr
	}
	return "token-abc", f.loginUser, nil
}

func (f *fakeAuthService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if f.profileUser != nil && f.profileUser.ID == id {
		clone := *f.profileUser
		return &clone, nil
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeAuthService) Update(ctx context.Context, user *domain.User) (*domain.User, error) {
	f.lastUpdate = user
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return user, nil
}

func profileFixture() *domain.User {
	return &domain.User{
		ID: "user-123", FirstName: "Sam", LastName: "Rivera",
		Email: "sam@example.com", Phone: "5551234567", Notify: domain.NotifyEmail,
	}
}

func TestUserController_Register(t *testing.T) {
	validBody := `{"firstName":"Sam","lastName":"Rivera","email":"Sam@Example.com","notify":"email","password":"secret1","confirmPassword":"secret1"}`

	tests := []struct {
		name        string
		body        string
		fakeErr     error
		wantStatus  int
		wantField   string
		wantMessage string
		checkCall   func(t *testing.T, fake *fakeAuthService, body map[string]any)
	}{
		{
			name:       "success",
			body:       validBody,
			wantStatus: http.StatusCreated,
			checkCall: func(t *testing.T, fake *fakeAuthService, body map[string]any) {
				assert.Equal(t, "token-abc", body["token"])
				assert.Equal(t, "Account created successfully!", body["success"])
				assert.Equal(t, "secret1", fake.lastPassword)
				user, ok := body["user"].(map[string]any)
				require.True(t, ok)
				assert.Equal(t, "user-created", user["id"])
			},
		},
		{
			name:        "missing first name",
			body:        `{"lastName":"Rivera","email":"sam@example.com","password":"secret1","confirmPassword":"secret1"}`,
			wantStatus:  http.StatusBadRequest,
			wantField:   "firstName",
			wantMessage: "Must not be empty!",
		},
		{
			name:        "bad email",
			body:        `{"firstName":"Sam","lastName":"Rivera","email":"not-an-email","password":"secret1","confirmPassword":"secret1"}`,
			wantStatus:  http.StatusBadRequest,
			wantField:   "email",
			wantMessage: "Must be a valid email address!",
		},
		{
			name:        "short password",
			body:        `{"firstName":"Sam","lastName":"Rivera","email":"sam@example.com","password":"abc","confirmPassword":"abc"}`,
			wantStatus:  http.StatusBadRequest,
			wantField:   "password",
			wantMessage: "Must be at least 6 characters!",
		},
		{
			name:        "password mismatch",
			body:        `{"firstName":"Sam","lastName":"Rivera","email":"sam@example.com","password":"secret1","confirmPassword":"secret2"}`,
			wantStatus:  http.StatusBadRequest,
			wantField:   "confirmPassword",
			wantMessage: "Passwords must match!",
		},
		{
			name:        "bad notify channel",
			body:        `{"firstName":"Sam","lastName":"Rivera","email":"sam@example.com","notify":"carrier-pigeon","password":"secret1","confirmPassword":"secret1"}`,
			wantStatus:  http.StatusBadRequest,
			wantField:   "notify",
			wantMessage: "Must be email or sms!",
		},
		{
			name:        "duplicate email",
			body:        validBody,
			fakeErr:     domain.ErrDuplicateEmail,
			wantStatus:  http.StatusBadRequest,
			wantField:   "email",
			wantMessage: "Email already in use!",
		},
		{
			name:        "duplicate phone",
			body:        validBody,
			fakeErr:     domain.ErrDuplicatePhone,
			wantStatus:  http.StatusBadRequest,
			wantField:   "phone",
			wantMessage: "Phone number already in use!",
		},
		{
			name:        "service error",
			body:        validBody,
			fakeErr:     errors.New("db error"),
			wantStatus:  http.StatusInternalServerError,
			wantField:   "error",
			wantMessage: "Something went wrong!",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeAuthService{registerErr: tt.fakeErr}
			ctrl := NewUserController(testLogger, fake)
			req := httptest.NewRequest(http.MethodPost, "/users/register", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rr := httptest.NewRecorder()

			ctrl.Register(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code, "status code")
			var body map[string]any
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
			if tt.wantField != "" {
				assert.Equal(t, tt.wantMessage, body[tt.wantField])
			}
			if tt.checkCall != nil {
				tt.checkCall(t, fake, body)
			}
		})
	}
}

func TestUserController_Login(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		fakeErr     error
		wantStatus  int
		wantField   string
		wantMessage string
	}{
		{
			name:       "success",
			body:       `{"email":"sam@example.com","password":"secret1"}`,
			wantStatus: http.StatusOK,
		},
		{
			name:        "unknown email",
			body:        `{"email":"nobody@example.com","password":"secret1"}`,
			fakeErr:     domain.ErrUserNotFound,
			wantStatus:  http.StatusNotFound,
			wantField:   "email",
			wantMessage: "Error, user not found!",
		},
		{
			name:        "wrong password",
			body:        `{"email":"sam@example.com","password":"nope123"}`,
			fakeErr:     domain.ErrForbidden,
			wantStatus:  http.StatusForbidden,
			wantField:   "password",
			wantMessage: "Wrong credentials, please try again!",
		},
		{
			name:        "missing password",
			body:        `{"email":"sam@example.com"}`,
			wantStatus:  http.StatusBadRequest,
			wantField:   "password",
			wantMessage: "Must not be empty!",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeAuthService{
				loginErr:  tt.fakeErr,
				loginUser: &domain.User{ID: "user-123", Email: "sam@example.com"},
			}
			ctrl := NewUserController(testLogger, fake)
			req := httptest.NewRequest(http.MethodPost, "/users/login", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rr := httptest.NewRecorder()

			ctrl.Login(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code, "status code")
			var body map[string]any
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
			if tt.wantField != "" {
				assert.Equal(t, tt.wantMessage, body[tt.wantField])
			}
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, "token-abc", body["token"])
				user, ok := body["user"].(map[string]any)
				require.True(t, ok)
				assert.Equal(t, "user-123", user["id"])
			}
		})
	}
}

func TestUserController_Me(t *testing.T) {
	t.Run("returns the caller's profile", func(t *testing.T) {
		fake := &fakeAuthService{profileUser: profileFixture()}
		ctrl := NewUserController(testLogger, fake)
		req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
		req = req.WithContext(middleware.SetUserID(req.Context(), "user-123"))
		rr := httptest.NewRecorder()

		ctrl.Me(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		body := decodeBody(t, rr)
		user, ok := body["user"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "user-123", user["id"])
		assert.Equal(t, "sam@example.com", user["email"])
	})

	t.Run("no user in context", func(t *testing.T) {
		ctrl := NewUserController(testLogger, &fakeAuthService{})
		req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
		rr := httptest.NewRecorder()

		ctrl.Me(rr, req)

		require.Equal(t, http.StatusUnauthorized, rr.Code)
		body := decodeBody(t, rr)
		assert.Equal(t, "Unauthorized!", body["auth"])
	})

	t.Run("account no longer exists", func(t *testing.T) {
		ctrl := NewUserController(testLogger, &fakeAuthService{})
		req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
		req = req.WithContext(middleware.SetUserID(req.Context(), "user-gone"))
		rr := httptest.NewRecorder()

		ctrl.Me(rr, req)

		require.Equal(t, http.StatusNotFound, rr.Code)
		body := decodeBody(t, rr)
		assert.Equal(t, "Error, user not found!", body["user"])
	})
}

func TestUserController_UpdateProfile(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		noContext   bool
		fakeErr     error
		wantStatus  int
		wantField   string
		wantMessage string
		checkCall   func(t *testing.T, fake *fakeAuthService, body map[string]any)
	}{
		{
			name:       "partial update keeps omitted fields",
			body:       `{"firstName":"Samantha","notify":"sms"}`,
			wantStatus: http.StatusOK,
			checkCall: func(t *testing.T, fake *fakeAuthService, body map[string]any) {
				require.NotNil(t, fake.lastUpdate)
				assert.Equal(t, "Samantha", fake.lastUpdate.FirstName)
				assert.Equal(t, "Rivera", fake.lastUpdate.LastName)
				assert.Equal(t, domain.NotifySMS, fake.lastUpdate.Notify)
				assert.Equal(t, "5551234567", fake.lastUpdate.Phone)
				assert.Equal(t, "Profile updated successfully!", body["success"])
				user, ok := body["user"].(map[string]any)
				require.True(t, ok)
				assert.Equal(t, "Samantha", user["firstName"])
			},
		},
		{
			name:       "phone update",
			body:       `{"phone":"+44 20 7946 0958"}`,
			wantStatus: http.StatusOK,
			checkCall: func(t *testing.T, fake *fakeAuthService, body map[string]any) {
				require.NotNil(t, fake.lastUpdate)
				assert.Equal(t, "+44 20 7946 0958", fake.lastUpdate.Phone)
			},
		},
		{
			name:        "empty first name rejected",
			body:        `{"firstName":""}`,
			wantStatus:  http.StatusBadRequest,
			wantField:   "firstName",
			wantMessage: "Must not be empty!",
		},
		{
			name:        "bad phone rejected",
			body:        `{"phone":"not-a-phone"}`,
			wantStatus:  http.StatusBadRequest,
			wantField:   "phone",
			wantMessage: "Must be a valid phone number!",
		},
		{
			name:        "bad notify channel rejected",
			body:        `{"notify":"carrier-pigeon"}`,
			wantStatus:  http.StatusBadRequest,
			wantField:   "notify",
			wantMessage: "Must be email or sms!",
		},
		{
			name:        "no user in context",
			body:        `{"firstName":"Samantha"}`,
			noContext:   true,
			wantStatus:  http.StatusUnauthorized,
			wantField:   "auth",
			wantMessage: "Unauthorized!",
		},
		{
			name:        "account deleted mid-flight",
			body:        `{"firstName":"Samantha"}`,
			fakeErr:     domain.ErrUserNotFound,
			wantStatus:  http.StatusNotFound,
			wantField:   "user",
			wantMessage: "Error, user not found!",
		},
		{
			name:        "service error",
			body:        `{"firstName":"Samantha"}`,
			fakeErr:     errors.New("db error"),
			wantStatus:  http.StatusInternalServerError,
			wantField:   "error",
			wantMessage: "Something went wrong!",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeAuthService{profileUser: profileFixture(), updateErr: tt.fakeErr}
			ctrl := NewUserController(testLogger, fake)
			req := httptest.NewRequest(http.MethodPut, "/users/update", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			if !tt.noContext {
				req = req.WithContext(middleware.SetUserID(req.Context(), "user-123"))
			}
			rr := httptest.NewRecorder()

			ctrl.UpdateProfile(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code, "status code")
			body := decodeBody(t, rr)
			if tt.wantField != "" {
				assert.Equal(t, tt.wantMessage, body[tt.wantField])
			}
			if tt.checkCall != nil {
				tt.checkCall(t, fake, body)
			}
		})
	}
}
