package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	defaultTokenTTL = 24 * time.Hour
	devTokenPrefix  = "user_"
)

// ErrInvalidToken 在令牌缺失、签名错误、过期或主体非法时返回
var ErrInvalidToken = errors.New("invalid token")

// Tokens 签发并校验 HS256 JWT，sub 为用户 ID
type Tokens struct {
	secret   []byte
	ttl      time.Duration
	allowDev bool
	now      func() time.Time
}

// TokenOptions 配置令牌行为
type TokenOptions struct {
	Secret string
	TTL    time.Duration
	// AllowDevTokens 允许 "user_<uuid>" 形式的调试令牌，仅用于本地开发
	AllowDevTokens bool
}

// NewTokens 构造 Tokens，secret 不能为空
func NewTokens(opts TokenOptions) (*Tokens, error) {
	if strings.TrimSpace(opts.Secret) == "" {
		return nil, errors.New("jwt secret is required")
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &Tokens{
		secret:   []byte(opts.Secret),
		ttl:      ttl,
		allowDev: opts.AllowDevTokens,
		now:      time.Now,
	}, nil
}

// Issue 为用户签发令牌
func (t *Tokens) Issue(userID uuid.UUID) (string, error) {
	now := t.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify 校验令牌并返回用户 ID
func (t *Tokens) Verify(token string) (uuid.UUID, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return uuid.Nil, ErrInvalidToken
	}

	if t.allowDev {
		if raw, ok := strings.CutPrefix(token, devTokenPrefix); ok {
			id, err := uuid.Parse(raw)
			if err != nil {
				return uuid.Nil, fmt.Errorf("%w: bad user id in dev token", ErrInvalidToken)
			}
			return id, nil
		}
	}

	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || !parsed.Valid {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	return id, nil
}
