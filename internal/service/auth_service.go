package service

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/RezaAbdollahigit/StoreTrack/internal/domain"
	"github.com/RezaAbdollahigit/StoreTrack/internal/repository"
)

// AuthService issues and verifies access tokens. The signing secret is
// injected from config at startup.
type AuthService struct {
	store    *repository.Store
	secret   []byte
	tokenTTL time.Duration
	logger   *zap.Logger
}

func NewAuthService(store *repository.Store, secret string, tokenTTL time.Duration, logger *zap.Logger) *AuthService {
	return &AuthService{
		store:    store,
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
		logger:   logger,
	}
}

func (s *AuthService) Signup(ctx context.Context, email, password string) (*domain.User, error) {
	if _, err := s.store.GetUserByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &domain.User{Email: email, PasswordHash: string(hash)}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("User registered", zap.Uint("user_id", user.ID))
	return user, nil
}

func (s *AuthService) Signin(ctx context.Context, email, password string) (string, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", ErrInvalidCredentials
	}

	claims := jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"exp":   time.Now().Add(s.tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// VerifyToken parses a bearer token and returns the user it identifies.
func (s *AuthService) VerifyToken(ctx context.Context, tokenString string) (*domain.User, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidCredentials
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidCredentials
	}
	sub, ok := claims["sub"].(float64)
	if !ok {
		return nil, ErrInvalidCredentials
	}
	user, err := s.store.GetUser(ctx, uint(sub))
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}
