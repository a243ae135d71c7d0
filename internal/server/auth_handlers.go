package server

import (
	"errors"

	"thoughtstream/internal/auth"
	"thoughtstream/internal/models"
	"thoughtstream/internal/observability"
	"thoughtstream/internal/validation"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

// Signup handles POST /api/auth/signup
func (s *Server) Signup(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	// Validate input
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Username, email, and password are required"))
	}

	// Validate username format
	if err := validation.ValidateUsername(req.Username); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}

	// Validate email format
	if err := validation.ValidateEmail(req.Email); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}

	// Validate password strength
	if err := validation.ValidatePassword(req.Password); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}

	// Check if user already exists
	existing, err := s.userRepo.GetByEmail(c.Context(), req.Email)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	if existing != nil {
		return models.RespondWithError(c, fiber.StatusConflict,
			models.NewValidationError("User already exists"))
	}

	// Hash password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	// Create user
	user := &models.User{
		Username: req.Username,
		Email:    req.Email,
		Password: string(hashedPassword),
	}

	if createErr := s.userRepo.Create(c.Context(), user); createErr != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, createErr)
	}

	accessToken, refreshToken, err := s.issueTokenPair(user.ID, false)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"user":          user,
	})
}

// Login handles POST /api/auth/login.
// remember_me selects the extended access-token lifetime.
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Email      string `json:"email"`
		Password   string `json:"password"`
		RememberMe bool   `json:"remember_me"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if req.Email == "" || req.Password == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Email and password are required"))
	}

	// Find user by email. Bad credentials are a validation failure of the
	// login form, not a 401: there is no token to refresh or re-present.
	user, err := s.userRepo.GetByEmail(c.Context(), req.Email)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	if user == nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid credentials"))
	}

	// Compare password
	if cmpErr := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); cmpErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid credentials"))
	}

	accessToken, refreshToken, err := s.issueTokenPair(user.ID, req.RememberMe)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"username":      user.Username,
		"email":         user.Email,
	})
}

// Refresh handles POST /api/auth/refresh. It exchanges a valid refresh token
// for a new access token. An expired refresh token is reported with its own
// code so clients know a new login is required.
func (s *Server) Refresh(c *fiber.Ctx) error {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.BodyParser(&req); err != nil || req.RefreshToken == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Refresh token is required"))
	}

	userID, err := s.tokens.Validate(req.RefreshToken, auth.KindRefresh)
	if err != nil {
		if errors.Is(err, auth.ErrExpired) {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewAuthError(models.CodeTokenExpired, "Refresh token has expired"))
		}
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewAuthError(models.CodeInvalidToken, "Invalid refresh token"))
	}

	// The subject must still have an account
	user, err := s.resolveUser(c.Context(), userID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	if user == nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewAuthError(models.CodeUnknownSubject, "Account no longer exists"))
	}

	accessToken, err := s.tokens.Issue(user.ID, auth.KindAccess, false)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	observability.RecordTokenIssued(string(auth.KindAccess))

	return c.JSON(fiber.Map{
		"access_token": accessToken,
	})
}

// issueTokenPair mints an access and a refresh token for the given user.
func (s *Server) issueTokenPair(userID uint, extended bool) (string, string, error) {
	accessToken, err := s.tokens.Issue(userID, auth.KindAccess, extended)
	if err != nil {
		return "", "", err
	}
	refreshToken, err := s.tokens.Issue(userID, auth.KindRefresh, false)
	if err != nil {
		return "", "", err
	}
	observability.RecordTokenIssued(string(auth.KindAccess))
	observability.RecordTokenIssued(string(auth.KindRefresh))
	return accessToken, refreshToken, nil
}
