package handlers

import (
	"plastikhb/internal/middleware"
	"plastikhb/internal/models"
	"plastikhb/internal/services"
	"plastikhb/pkg/logger"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	authService *services.AuthService
	validate    *validator.Validate
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validate:    validator.New(),
	}
}

// RegisterRoutes registers the authentication routes with the Fiber app. Only an
// authenticated admin can register another account.
func (h *AuthHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	authRoutes := router.Group("/auth")
	authRoutes.Post("/login", h.HandleLogin)
	authRoutes.Post("/logout", h.HandleLogout)
	authRoutes.Post("/verify-session", h.HandleVerifySession)
	authRoutes.Post("/register", auth, h.HandleRegister)
}

// HandleRegister handles new user registration.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var user models.User
	if err := parseBody(c, h.validate, &user); err != nil {
		return err
	}

	if err := h.authService.RegisterUser(c.UserContext(), &user); err != nil {
		logger.Warn().Err(err).Str("username", user.Username).Msg("registration failed")
		return err
	}

	// For security, do not return the password hash
	user.Password = ""
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User registered successfully",
		"data":    user,
	})
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin checks the credentials and opens a session.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil || req.Email == "" || req.Password == "" {
		return badRequest("Email and password are required.")
	}

	token, err := h.authService.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		logger.Info().Str("email", req.Email).Msg("login failed")
		return err
	}

	return c.JSON(fiber.Map{
		"message": "Login successful",
		"token":   token,
	})
}

// TokenRequest carries a session token in the body.
type TokenRequest struct {
	Token string `json:"token"`
}

// sessionToken reads the token from the body, falling back to the Authorization header.
func sessionToken(c *fiber.Ctx) string {
	var req TokenRequest
	if err := c.BodyParser(&req); err == nil && req.Token != "" {
		return req.Token
	}
	return middleware.BearerToken(c.Get(fiber.HeaderAuthorization))
}

// HandleLogout ends the session behind the token.
func (h *AuthHandler) HandleLogout(c *fiber.Ctx) error {
	if err := h.authService.Logout(c.UserContext(), sessionToken(c)); err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Logout successful",
	})
}

// HandleVerifySession reports whether the token belongs to a live session.
func (h *AuthHandler) HandleVerifySession(c *fiber.Ctx) error {
	session, err := h.authService.VerifySession(c.UserContext(), sessionToken(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Session is valid",
		"data": fiber.Map{
			"user_id":    session.UserID,
			"expires_at": session.ExpiresAt,
		},
	})
}
