package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"plastikhb/internal/models"
	"plastikhb/internal/repositories"
	"plastikhb/pkg/logger"
	"plastikhb/pkg/metrics"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"
)

// AuthService handles business logic for authentication and sessions.
type AuthService struct {
	users      repositories.UserRepository
	sessions   repositories.SessionRepository
	jwtSecret  []byte
	sessionTTL time.Duration
	now        func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(users repositories.UserRepository, sessions repositories.SessionRepository, jwtSecret string, sessionTTL time.Duration) *AuthService {
	if sessionTTL <= 0 {
		sessionTTL = 7 * 24 * time.Hour
	}
	return &AuthService{
		users:      users,
		sessions:   sessions,
		jwtSecret:  []byte(jwtSecret),
		sessionTTL: sessionTTL,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// RegisterUser registers a new user, hashes their password, and saves them to the database.
func (s *AuthService) RegisterUser(ctx context.Context, user *models.User) error {
	if err := s.ensureUnique(ctx, user); err != nil {
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.Password = string(hashedPassword)

	if err := s.users.Create(ctx, user); err != nil {
		return persistenceError("failed to register user", err)
	}
	return nil
}

func (s *AuthService) ensureUnique(ctx context.Context, user *models.User) error {
	if _, err := s.users.GetByUsername(ctx, user.Username); err == nil {
		return conflictError("username '%s' already taken", user.Username)
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return persistenceError("failed to look up user", err)
	}
	if _, err := s.users.GetByEmail(ctx, user.Email); err == nil {
		return conflictError("email '%s' already registered", user.Email)
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return persistenceError("failed to look up user", err)
	}
	return nil
}

// EnsureAdmin registers the given account when no user exists yet. It reports whether a
// user was created.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, email, password string) (bool, error) {
	if username == "" || email == "" || password == "" {
		return false, nil
	}
	n, err := s.users.Count(ctx)
	if err != nil {
		return false, persistenceError("failed to count users", err)
	}
	if n > 0 {
		return false, nil
	}
	if err := s.RegisterUser(ctx, &models.User{Username: username, Email: email, Password: password}); err != nil {
		return false, err
	}
	logger.Info().Str("username", username).Msg("admin account created")
	return true, nil
}

// Login checks the credentials and opens a session. The returned token is a signed JWT whose
// ID is the session's ID, so it stops verifying as soon as the session is deleted.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		metrics.AuthLogins.WithLabelValues("failed").Inc()
		if errors.Is(err, repositories.ErrNotFound) {
			return "", unauthorizedError("Invalid email or password.", ErrInvalidCredentials)
		}
		return "", persistenceError("failed to look up user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		metrics.AuthLogins.WithLabelValues("failed").Inc()
		return "", unauthorizedError("Invalid email or password.", ErrInvalidCredentials)
	}

	now := s.now()
	session := &models.Session{UserID: user.ID, ExpiresAt: now.Add(s.sessionTTL)}
	if err := s.sessions.Create(ctx, session); err != nil {
		return "", persistenceError("failed to create session", err)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.StandardClaims{
		Id:        session.ID,
		Subject:   user.ID,
		IssuedAt:  now.Unix(),
		ExpiresAt: session.ExpiresAt.Unix(),
	})
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	metrics.AuthLogins.WithLabelValues("success").Inc()
	return tokenString, nil
}

// Logout deletes the session behind token.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	claims, err := s.parseToken(token)
	if err != nil {
		return err
	}
	if _, err := s.sessions.GetByID(ctx, claims.Id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return unauthorizedError("Invalid session token.", err)
		}
		return persistenceError("failed to look up session", err)
	}
	if err := s.sessions.Delete(ctx, claims.Id); err != nil {
		return persistenceError("failed to delete session", err)
	}
	return nil
}

// VerifySession returns the live session behind token.
func (s *AuthService) VerifySession(ctx context.Context, token string) (*models.Session, error) {
	claims, err := s.parseToken(token)
	if err != nil {
		return nil, err
	}
	session, err := s.sessions.GetByID(ctx, claims.Id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, unauthorizedError("Invalid session token.", err)
		}
		return nil, persistenceError("failed to look up session", err)
	}
	if session.Expired(s.now()) {
		return nil, unauthorizedError("Session token has expired.", nil)
	}
	return session, nil
}

// PurgeExpiredSessions deletes every session past its expiry.
func (s *AuthService) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	n, err := s.sessions.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, persistenceError("failed to purge sessions", err)
	}
	metrics.SessionsPurged.Add(float64(n))
	return n, nil
}

func (s *AuthService) parseToken(tokenString string) (*jwt.StandardClaims, error) {
	if strings.TrimSpace(tokenString) == "" {
		return nil, validationError("Token is required.")
	}

	claims := &jwt.StandardClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		var vErr *jwt.ValidationError
		if errors.As(err, &vErr) && vErr.Errors&jwt.ValidationErrorExpired != 0 {
			return nil, unauthorizedError("Session token has expired.", err)
		}
		return nil, unauthorizedError("Invalid session token.", err)
	}
	if !token.Valid || claims.Id == "" {
		return nil, unauthorizedError("Invalid session token.", nil)
	}
	return claims, nil
}
