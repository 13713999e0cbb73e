package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"finance-hertz/biz/dal/pg"
	"finance-hertz/biz/logger"
	"finance-hertz/biz/model"
	"finance-hertz/conf"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// RegisterRequest 注册表单，字段名 username / password / confirmation
type RegisterRequest struct {
	Username     string `json:"username" form:"username"`
	Password     string `json:"password" form:"password"`
	Confirmation string `json:"confirmation" form:"confirmation"`
}

type LoginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// Claims 会话 token，ID 为 jti，注销时按 jti 吊销
type Claims struct {
	UserID   uint   `json:"uid"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Revoker 已注销 token 的存储
type Revoker interface {
	Revoke(ctx context.Context, jti string, until time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type AuthService struct {
	store    *pg.Store
	revoker  Revoker
	auth     conf.Auth
	trading  conf.Trading
	starting decimal.Decimal
}

func NewAuthService(store *pg.Store, revoker Revoker, auth conf.Auth, trading conf.Trading) (*AuthService, error) {
	starting, err := decimal.NewFromString(trading.StartingCash)
	if err != nil {
		return nil, fmt.Errorf("invalid starting cash %q: %w", trading.StartingCash, err)
	}
	starting = starting.Round(model.MoneyScale)
	return &AuthService{
		store:    store,
		revoker:  revoker,
		auth:     auth,
		trading:  trading,
		starting: starting,
	}, nil
}

// Register 创建用户并发放初始资金；可选记录一条不展示的入金流水
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*model.User, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, fmt.Errorf("%w: username", ErrMissingField)
	}
	if req.Password == "" {
		return nil, fmt.Errorf("%w: password", ErrMissingField)
	}
	if utf8.RuneCountInString(username) < s.trading.MinUsernameLength {
		return nil, ErrUsernameTooShort
	}
	if utf8.RuneCountInString(username) > model.MaxUsernameLength {
		return nil, ErrUsernameTooLong
	}
	if req.Password != req.Confirmation {
		return nil, ErrPasswordMismatch
	}
	exists, err := s.store.UsernameExists(ctx, username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUsernameTaken
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.auth.BcryptCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{Username: username, Hash: string(hash), Cash: s.starting}
	err = s.store.Transaction(ctx, func(tx *pg.Store) error {
		if err := tx.CreateUser(ctx, user); err != nil {
			return err
		}
		if !s.trading.RecordOpeningDeposit {
			return nil
		}
		return tx.CreateTransaction(ctx, &model.Transaction{
			UserID:   user.ID,
			Quantity: 0,
			Price:    decimal.Zero,
			Amount:   s.starting,
			Currency: s.trading.Currency,
			Visible:  false,
		})
	})
	if errors.Is(err, pg.ErrDuplicate) {
		// 并发注册同名用户，唯一索引兜底
		return nil, ErrUsernameTaken
	}
	if err != nil {
		return nil, err
	}
	logger.Log.Info("user registered", zap.Uint("user_id", user.ID), zap.String("username", user.Username))
	return user, nil
}

// Login 用户不存在与密码错误返回同一个错误
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*model.User, error) {
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		return nil, ErrInvalidCredentials
	}
	user, err := s.store.GetUserByUsername(ctx, req.Username)
	if errors.Is(err, pg.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Hash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// IssueToken 签发会话 token
func (s *AuthService) IssueToken(user *model.User) (string, time.Time, error) {
	now := time.Now()
	expires := now.Add(time.Duration(s.auth.ExpireHours) * time.Hour)
	claims := Claims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.auth.JWTSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expires, nil
}

// ParseToken 校验签名、过期与吊销状态
func (s *AuthService) ParseToken(ctx context.Context, raw string) (*Claims, error) {
	claims := new(Claims)
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.auth.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if s.revoker != nil && claims.ID != "" {
		revoked, err := s.revoker.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, err
		}
		if revoked {
			return nil, errors.New("token revoked")
		}
	}
	return claims, nil
}

// Logout 吊销 token 直到其自然过期
func (s *AuthService) Logout(ctx context.Context, claims *Claims) error {
	if s.revoker == nil || claims == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}
	return s.revoker.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}

func (s *AuthService) CookieName() string {
	return s.auth.CookieName
}
