package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/oncoward/ward-api/pkg/config"
	appErrors "github.com/oncoward/ward-api/pkg/errors"
)

// AuthService guards the API with a single configured ward account. There
// is no user store; the nurses share one login provisioned through config.
type AuthService struct {
	username     string
	passwordHash string
	jwtSecret    []byte
	tokenExpiry  time.Duration
	logger       *zap.Logger
}

// NewAuthService constructs the service from auth config.
func NewAuthService(cfg config.AuthConfig, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		username:     cfg.Username,
		passwordHash: cfg.PasswordHash,
		jwtSecret:    []byte(cfg.JWTSecret),
		tokenExpiry:  cfg.TokenExpiry,
		logger:       logger,
	}
}

// Enabled reports whether authentication is configured at all. Without a
// password hash the API runs open, which suits single-ward deployments on a
// trusted network.
func (s *AuthService) Enabled() bool {
	return s.username != "" && s.passwordHash != ""
}

// Login verifies the credentials and issues a signed token.
func (s *AuthService) Login(username, password string) (string, time.Time, error) {
	if !s.Enabled() {
		return "", time.Time{}, appErrors.Clone(appErrors.ErrUnauthorized, "đăng nhập chưa được cấu hình")
	}
	if username != s.username {
		return "", time.Time{}, appErrors.Clone(appErrors.ErrInvalidCredentials, "Tên đăng nhập hoặc mật khẩu không đúng")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.passwordHash), []byte(password)); err != nil {
		return "", time.Time{}, appErrors.Clone(appErrors.ErrInvalidCredentials, "Tên đăng nhập hoặc mật khẩu không đúng")
	}

	expiresAt := time.Now().Add(s.tokenExpiry)
	claims := jwt.RegisteredClaims{
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "")
	}

	s.logger.Info("user logged in", zap.String("username", username))
	return signed, expiresAt, nil
}

// ValidateToken parses and verifies a bearer token, returning the subject.
func (s *AuthService) ValidateToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "")
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return "", appErrors.Clone(appErrors.ErrUnauthorized, "")
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", appErrors.Clone(appErrors.ErrUnauthorized, "")
	}
	return claims.Subject, nil
}
