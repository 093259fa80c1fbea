package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/plantcare/internal/db"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrUserNotFound 在用户不存在时返回
	ErrUserNotFound = fmt.Errorf("user %w", db.ErrNotFound)
	// ErrInvalidUser 在注册字段缺失时返回
	ErrInvalidUser = errors.New("invalid user")
	// ErrPasswordMismatch 在两次密码不一致时返回
	ErrPasswordMismatch = errors.New("password and confirm password do not match")
	// ErrEmailExists 在邮箱已被注册时返回
	ErrEmailExists = errors.New("email already exists")
	// ErrInvalidCredentials 在邮箱或密码错误时返回，不区分具体原因
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// AuthService 负责注册、登录与令牌签发
type AuthService struct {
	users  UserRepository
	tokens *Tokens
	cost   int
}

// RegisterInput 定义注册字段
type RegisterInput struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
	City            *string
	BirthDate       *string
}

// AuthResult 是注册/登录成功后返回给客户端的内容
type AuthResult struct {
	User  *db.User `json:"user"`
	Token string   `json:"token"`
}

// NewAuthService 构造 AuthService
func NewAuthService(users UserRepository, tokens *Tokens) *AuthService {
	return &AuthService{users: users, tokens: tokens, cost: bcrypt.DefaultCost}
}

// WithHashCost 调整 bcrypt 代价，测试中使用 bcrypt.MinCost
func (s *AuthService) WithHashCost(cost int) *AuthService {
	s.cost = cost
	return s
}

// Tokens 暴露令牌组件供中间件校验
func (s *AuthService) Tokens() *Tokens {
	return s.tokens
}

// Register 创建用户并签发令牌
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	name := sanitizeText(input.Name)
	email := normalizeEmail(input.Email)
	if name == "" || email == "" || input.Password == "" {
		return nil, fmt.Errorf("%w: name, email and password are required", ErrInvalidUser)
	}
	if input.Password != input.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, ErrEmailExists
	} else if !errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("check email: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := db.User{
		ID:        uuid.New(),
		Name:      name,
		Email:     email,
		Password:  string(hashed),
		City:      optionalText(input.City),
		BirthDate: optionalText(input.BirthDate),
	}
	if err := s.users.Create(ctx, &user); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return s.result(&user)
}

// Login 校验邮箱与密码并签发令牌
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.result(user)
}

// Me 返回当前用户资料
func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*db.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func (s *AuthService) result(user *db.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func optionalText(raw *string) *string {
	if raw == nil {
		return nil
	}
	value := sanitizeText(*raw)
	if value == "" {
		return nil
	}
	return &value
}
