package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/claimdesk/internal/middleware"
	"github.com/suteetoe/claimdesk/internal/model"
	"github.com/suteetoe/claimdesk/internal/repository"
	"github.com/suteetoe/claimdesk/pkg/jwtutil"
	"github.com/suteetoe/claimdesk/pkg/logger"
	"github.com/suteetoe/claimdesk/prometheus"
	"go.uber.org/zap"
)

// UserHandler serves registration, token issuance and the caller's own profile.
type UserHandler struct {
	users repository.UserRepository
	jwt   *jwtutil.JWTUtil
}

func NewUserHandler(users repository.UserRepository, jwt *jwtutil.JWTUtil) *UserHandler {
	return &UserHandler{users: users, jwt: jwt}
}

func (h *UserHandler) Create(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.IncRegister()

	var req userCreateRequest
	if err := bindAndValidate(c, &req); err != nil {
		prometheus.RecordAuthError("invalid_request")
		return respondError(c, err, "register user")
	}

	user := &model.User{Email: req.Email, Name: req.Name}
	if err := h.users.Create(c.Request().Context(), user, req.Password); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			prometheus.RecordAuthError("email_already_exists")
		}
		return respondError(c, err, "register user")
	}

	log.Info("User registered", zap.String("email", user.Email))
	return c.JSON(http.StatusCreated, user)
}

// Token exchanges email and password for a bearer token.
func (h *UserHandler) Token(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.IncLogin()

	var req tokenRequest
	if err := bindAndValidate(c, &req); err != nil {
		prometheus.RecordAuthError("invalid_request")
		return respondError(c, err, "issue token")
	}

	user, err := h.users.GetByEmail(c.Request().Context(), req.Email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return respondError(c, err, "issue token")
	}
	if user == nil || !user.IsActive || !user.CheckPassword(req.Password) {
		log.Info("Invalid credentials", zap.String("email", req.Email))
		prometheus.RecordAuthError("invalid_credentials")
		return badRequest(c, "Unable to authenticate with provided credentials.")
	}

	token, err := h.jwt.GenerateToken(user.Email, user.ID, user.IsStaff)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
	}

	log.Info("Token issued", zap.Uint("user_id", user.ID))
	return c.JSON(http.StatusOK, echo.Map{"token": token})
}

func (h *UserHandler) Me(c echo.Context) error {
	user, err := h.users.GetByID(c.Request().Context(), middleware.CurrentUser(c).UserID)
	if err != nil {
		return respondError(c, err, "get profile")
	}
	return c.JSON(http.StatusOK, user)
}

// UpdateMe handles PUT and PATCH on the caller's profile. PUT needs email, password and name.
func (h *UserHandler) UpdateMe(c echo.Context) error {
	var req userUpdateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err, "update profile")
	}
	if c.Request().Method == http.MethodPut {
		verr := model.NewValidationError()
		requirePresent(verr, "email", req.Email != nil)
		requirePresent(verr, "password", req.Password != nil)
		requirePresent(verr, "name", req.Name != nil)
		if err := verr.OrNil(); err != nil {
			return respondError(c, err, "update profile")
		}
	}

	user, err := h.users.Update(c.Request().Context(), middleware.CurrentUser(c).UserID, repository.UserPatch{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		return respondError(c, err, "update profile")
	}

	logger.FromEcho(c).Info("Profile updated", zap.Uint("user_id", user.ID))
	return c.JSON(http.StatusOK, user)
}
