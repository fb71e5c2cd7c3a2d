package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hoangdanh165/devplanner/internal/model"
	"github.com/hoangdanh165/devplanner/internal/oauth"
)

type UserStore interface {
	FindByID(ctx context.Context, id string) (model.User, error)
	FindByEmail(ctx context.Context, email string) (model.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, u model.User) error
	UpdatePassword(ctx context.Context, userID string, passwordHash string) error
}

type TokenStore interface {
	Store(ctx context.Context, token string, userID string, expiresAt time.Time) error
	Validate(ctx context.Context, token string) (string, error)
	Revoke(ctx context.Context, token string) error
	RevokeAllForUser(ctx context.Context, userID string) error
	StoreReset(ctx context.Context, token string, userID string, expiresAt time.Time) error
}

type AuthService struct {
	jwtSecret  []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	users      UserStore
	tokens     TokenStore
}

func NewAuthService(jwtSecret string, accessTTL time.Duration, refreshTTL time.Duration, users UserStore, tokens TokenStore) (*AuthService, error) {
	if strings.TrimSpace(jwtSecret) == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}

	return &AuthService{
		jwtSecret:  []byte(jwtSecret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		users:      users,
		tokens:     tokens,
	}, nil
}

func (s *AuthService) RefreshTTL() time.Duration {
	return s.refreshTTL
}

func (s *AuthService) SignUp(ctx context.Context, email string, fullName string, password string) (model.SessionPayload, string, error) {
	email = strings.TrimSpace(email)
	fullName = strings.TrimSpace(fullName)

	if email == "" || password == "" {
		return model.SessionPayload{}, "", model.ErrInvalidInput
	}

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return model.SessionPayload{}, "", err
	}
	if exists {
		return model.SessionPayload{}, "", model.ErrUserAlreadyExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return model.SessionPayload{}, "", err
	}

	now := time.Now().UTC()
	user := model.User{
		ID:           uuid.NewString(),
		Email:        email,
		FullName:     fullName,
		PasswordHash: string(hash),
		Role:         "user",
		Status:       model.StatusActive,
		Provider:     model.ProviderLocal,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return model.SessionPayload{}, "", err
	}

	return s.issueSession(ctx, user)
}

func (s *AuthService) SignIn(ctx context.Context, email string, password string) (model.SessionPayload, string, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return model.SessionPayload{}, "", model.ErrInvalidCredentials
	}

	if user.PasswordHash == "" {
		// OAuth-only account.
		return model.SessionPayload{}, "", model.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return model.SessionPayload{}, "", model.ErrInvalidCredentials
	}

	return s.issueSession(ctx, user)
}

// SignInWithProvider signs in (creating the account on first contact) a user
// identified by an OAuth provider. Banned accounts still get a session; the
// status field in the payload is what downstream guards act on.
func (s *AuthService) SignInWithProvider(ctx context.Context, info oauth.UserInfo, provider string) (model.SessionPayload, string, error) {
	user, err := s.users.FindByEmail(ctx, info.Email)
	if err == nil {
		return s.issueSession(ctx, user)
	}

	now := time.Now().UTC()
	user = model.User{
		ID:        uuid.NewString(),
		Email:     info.Email,
		FullName:  info.FullName,
		Role:      "user",
		Status:    model.StatusActive,
		Avatar:    info.Avatar,
		Provider:  provider,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return model.SessionPayload{}, "", err
	}

	return s.issueSession(ctx, user)
}

// Refresh rotates the presented refresh token: the old token is revoked before
// a new pair is issued, so a replayed token fails validation.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (model.SessionPayload, string, error) {
	claims, err := s.ValidateToken(refreshToken, "refresh")
	if err != nil {
		return model.SessionPayload{}, "", err
	}

	ownerID, err := s.tokens.Validate(ctx, refreshToken)
	if err != nil || ownerID != claims.UserID {
		return model.SessionPayload{}, "", model.ErrTokenNotFound
	}

	if err := s.tokens.Revoke(ctx, refreshToken); err != nil {
		return model.SessionPayload{}, "", err
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		return model.SessionPayload{}, "", model.ErrTokenNotFound
	}

	return s.issueSession(ctx, user)
}

// SignOut revokes the refresh token. Callers treat this as best effort.
func (s *AuthService) SignOut(ctx context.Context, refreshToken string) error {
	if strings.TrimSpace(refreshToken) == "" {
		return nil
	}
	return s.tokens.Revoke(ctx, refreshToken)
}

// ForgotPassword issues a reset token when the account exists. It never
// reports whether the email is registered.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil
	}

	token := uuid.NewString()
	return s.tokens.StoreReset(ctx, token, user.ID, time.Now().UTC().Add(time.Hour))
}

func (s *AuthService) GetUserByID(ctx context.Context, userID string) (model.User, error) {
	return s.users.FindByID(ctx, userID)
}

func (s *AuthService) ValidateToken(tokenString string, expectedType string) (*model.AuthClaims, error) {
	parsed, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, model.ErrUnauthorized
		}
		return s.jwtSecret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, model.ErrUnauthorized
	}

	claimsMap, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, model.ErrUnauthorized
	}

	typ, _ := claimsMap["typ"].(string)
	if expectedType != "" && typ != expectedType {
		return nil, model.ErrUnauthorized
	}

	claims := &model.AuthClaims{Type: typ}
	claims.UserID, _ = claimsMap["sub"].(string)
	claims.Email, _ = claimsMap["email"].(string)
	claims.Role, _ = claimsMap["role"].(string)
	claims.TokenID, _ = claimsMap["jti"].(string)
	if status, ok := claimsMap["status"].(float64); ok {
		claims.Status = int(status)
	}

	if claims.UserID == "" {
		return nil, model.ErrUnauthorized
	}

	return claims, nil
}

func (s *AuthService) issueSession(ctx context.Context, user model.User) (model.SessionPayload, string, error) {
	now := time.Now().UTC()

	accessToken, err := s.signToken(jwt.MapClaims{
		"sub":    user.ID,
		"email":  user.Email,
		"role":   user.Role,
		"status": user.Status,
		"typ":    "access",
		"jti":    uuid.NewString(),
		"iat":    now.Unix(),
		"exp":    now.Add(s.accessTTL).Unix(),
	})
	if err != nil {
		return model.SessionPayload{}, "", err
	}

	refreshToken, err := s.signToken(jwt.MapClaims{
		"sub": user.ID,
		"typ": "refresh",
		"jti": uuid.NewString(),
		"iat": now.Unix(),
		"exp": now.Add(s.refreshTTL).Unix(),
	})
	if err != nil {
		return model.SessionPayload{}, "", err
	}

	if err := s.tokens.Store(ctx, refreshToken, user.ID, now.Add(s.refreshTTL)); err != nil {
		return model.SessionPayload{}, "", err
	}

	return model.SessionFor(user, accessToken), refreshToken, nil
}

func (s *AuthService) signToken(claims jwt.MapClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}
