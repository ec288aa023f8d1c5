package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrAlreadyExists = errors.New("already exists")
	ErrAuthFailed    = errors.New("authentication failed")
	ErrInvalidInput  = errors.New("invalid input")
)

const MinPasswordLength = 8

type AuthService interface {
	Login(ctx context.Context, id, password string) (string, error)
	Register(ctx context.Context, in RegisterRequest) error
}

type Service struct {
	store  AccountStore
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewService(store AccountStore, secret []byte, ttl time.Duration) *Service {
	return &Service{store: store, secret: secret, ttl: ttl, now: time.Now}
}

func (s *Service) Login(ctx context.Context, id, password string) (string, error) {
	acct, err := s.store.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	// 存在しない・無効・パスワード違いは区別しない
	if acct == nil || acct.IsDisabled {
		return "", ErrAuthFailed
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
		return "", ErrAuthFailed
	}
	return s.IssueToken(acct.ID, acct.Role)
}

func (s *Service) IssueToken(sub, role string) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	})
	return token.SignedString(s.secret)
}

func (s *Service) Register(ctx context.Context, in RegisterRequest) error {
	id := strings.TrimSpace(in.ID)
	if id == "" || len(in.Password) < MinPasswordLength {
		return ErrInvalidInput
	}
	role := RoleEmployee
	if in.Role != nil && *in.Role != "" {
		role = *in.Role
	}
	if role != RoleEmployee && role != RoleHR {
		return ErrInvalidInput
	}

	exists, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if exists != nil {
		return ErrAlreadyExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	return s.store.Create(ctx, &Account{
		ID:           id,
		DisplayName:  strings.TrimSpace(in.DisplayName),
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    s.now(),
	})
}
