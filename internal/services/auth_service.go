package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/mpchat/server/internal/models"
	"github.com/mpchat/server/internal/repositories"
	"github.com/mpchat/server/internal/utils"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameExists     = errors.New("username already exists")
)

type AuthService struct {
	users  repositories.UserRepository
	tokens *TokenService
}

type AuthResponse struct {
	Token string       `json:"access_token"`
	User  *models.User `json:"user"`
}

func NewAuthService(users repositories.UserRepository, tokens *TokenService) *AuthService {
	return &AuthService{users: users, tokens: tokens}
}

func (s *AuthService) Register(ctx context.Context, username, password string) (*AuthResponse, error) {
	existing, err := s.users.GetByUsername(ctx, username)
	if err == nil && existing != nil {
		return nil, ErrUsernameExists
	}
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}

	hashedPassword, err := utils.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hashedPassword,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &AuthResponse{
		Token: s.tokens.Issue(user.ID, user.Username),
		User:  user,
	}, nil
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*AuthResponse, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !utils.CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	return &AuthResponse{
		Token: s.tokens.Issue(user.ID, user.Username),
		User:  user,
	}, nil
}
