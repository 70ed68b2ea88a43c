package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"gatherly/internal/delivery/http/helpers"
	"gatherly/internal/delivery/http/middleware"
	"gatherly/internal/domain"
)

type UserController struct {
	Logger  *slog.Logger
	Service domain.UserService
}

func NewUserController(logger *slog.Logger, svc domain.UserService) *UserController {
	return &UserController{
		Logger:  logger,
		Service: svc,
	}
}

// RegisterRequest is the request body for POST /users/register.
type RegisterRequest struct {
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Notify          string `json:"notify"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// Validate implements Validator.
func (req RegisterRequest) Validate() map[string]string {
	fields := map[string]string{}
	if req.FirstName == "" {
		fields["firstName"] = "Must not be empty!"
	}
	if req.LastName == "" {
		fields["lastName"] = "Must not be empty!"
	}
	if !domain.IsEmail(req.Email) {
		fields["email"] = "Must be a valid email address!"
	}
	if req.Phone != "" && !domain.IsPhone(req.Phone) {
		fields["phone"] = "Must be a valid phone number!"
	}
	if req.Notify != "" && req.Notify != domain.NotifyEmail && req.Notify != domain.NotifySMS {
		fields["notify"] = "Must be email or sms!"
	}
	if len(req.Password) < 6 {
		fields["password"] = "Must be at least 6 characters!"
	}
	if req.Password != req.ConfirmPassword {
		fields["confirmPassword"] = "Passwords must match!"
	}
	return fields
}

// Register godoc
// @Summary Register a new account
// @Tags users
// @Accept json
// @Produce json
// @Param user body RegisterRequest true "Account details"
// @Success 201 {object} map[string]any "token and user"
// @Failure 400 {object} map[string]string "field errors"
// @Router /users/register [post]
func (c *UserController) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	user := &domain.User{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Notify:    req.Notify,
	}
	token, err := c.Service.Register(r.Context(), user, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrDuplicateEmail):
			helpers.WriteFieldError(w, http.StatusBadRequest, "email", "Email already in use!")
		case errors.Is(err, domain.ErrDuplicatePhone):
			helpers.WriteFieldError(w, http.StatusBadRequest, "phone", "Phone number already in use!")
		default:
			c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
			helpers.WriteFieldError(w, http.StatusInternalServerError, "error", "Something went wrong!")
		}
		return
	}
	helpers.WriteJSON(w, http.StatusCreated, map[string]any{
		"token":   token,
		"user":    user,
		"success": "Account created successfully!",
	})
}

// LoginRequest is the request body for POST /users/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate implements Validator.
func (req LoginRequest) Validate() map[string]string {
	fields := map[string]string{}
	if req.Email == "" {
		fields["email"] = "Must not be empty!"
	}
	if req.Password == "" {
		fields["password"] = "Must not be empty!"
	}
	return fields
}

// Login godoc
// @Summary Log in with email and password
// @Tags users
// @Accept json
// @Produce json
// @Param credentials body LoginRequest true "Credentials"
// @Success 200 {object} map[string]any "token and user"
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /users/login [post]
func (c *UserController) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	token, user, err := c.Service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUserNotFound):
			helpers.WriteFieldError(w, http.StatusNotFound, "email", "Error, user not found!")
		case errors.Is(err, domain.ErrForbidden):
			helpers.WriteFieldError(w, http.StatusForbidden, "password", "Wrong credentials, please try again!")
		default:
			c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
			helpers.WriteFieldError(w, http.StatusInternalServerError, "error", "Something went wrong!")
		}
		return
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  user,
	})
}

// Me godoc
// @Summary Get the caller's profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]any
// @Router /users/me [get]
func (c *UserController) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteFieldError(w, http.StatusUnauthorized, "auth", "Unauthorized!")
		return
	}
	user, err := c.Service.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			helpers.WriteFieldError(w, http.StatusNotFound, "user", "Error, user not found!")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteFieldError(w, http.StatusInternalServerError, "error", "Something went wrong!")
		return
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]any{
		"user": user,
	})
}

// UpdateProfileRequest is the request body for PUT /users/update. All fields
// are optional; omitted fields are unchanged.
type UpdateProfileRequest struct {
	FirstName  *string `json:"firstName"`
	LastName   *string `json:"lastName"`
	Phone      *string `json:"phone"`
	Notify     *string `json:"notify"`
	ProfilePic *string `json:"profilePic"`
}

// Validate implements Validator.
func (req UpdateProfileRequest) Validate() map[string]string {
	fields := map[string]string{}
	if req.FirstName != nil && *req.FirstName == "" {
		fields["firstName"] = "Must not be empty!"
	}
	if req.LastName != nil && *req.LastName == "" {
		fields["lastName"] = "Must not be empty!"
	}
	if req.Phone != nil && *req.Phone != "" && !domain.IsPhone(*req.Phone) {
		fields["phone"] = "Must be a valid phone number!"
	}
	if req.Notify != nil && *req.Notify != domain.NotifyEmail && *req.Notify != domain.NotifySMS {
		fields["notify"] = "Must be email or sms!"
	}
	return fields
}

// UpdateProfile godoc
// @Summary Update the caller's profile
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param profile body UpdateProfileRequest true "Fields to update"
// @Success 200 {object} map[string]any "updated user"
// @Failure 400 {object} map[string]string "field errors"
// @Router /users/update [put]
func (c *UserController) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req UpdateProfileRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteFieldError(w, http.StatusUnauthorized, "auth", "Unauthorized!")
		return
	}
	user, err := c.Service.GetByID(r.Context(), userID)
	if err != nil {
		helpers.WriteFieldError(w, http.StatusUnauthorized, "auth", "Unauthorized!")
		return
	}
	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	if req.Notify != nil {
		user.Notify = *req.Notify
	}
	if req.ProfilePic != nil {
		user.ProfilePic = *req.ProfilePic
	}
	updated, err := c.Service.Update(r.Context(), user)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			helpers.WriteFieldError(w, http.StatusNotFound, "user", "Error, user not found!")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteFieldError(w, http.StatusInternalServerError, "error", "Something went wrong!")
		return
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]any{
		"user":    updated,
		"success": "Profile updated successfully!",
	})
}
