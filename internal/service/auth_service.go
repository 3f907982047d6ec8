package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v5"

	"github.com/iyoadidey/mother-julie/internal/config"
)

var ErrBadCredentials = errors.New("invalid username or password")

type JwtCustomClaims struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// AuthService issues admin session tokens. Credentials come from the
// environment; the signed token is mirrored in redis so sessions can be
// revoked by deleting the key.
type AuthService struct {
	rdb *redis.Client
}

func NewAuthService(rdb *redis.Client) *AuthService {
	return &AuthService{rdb: rdb}
}

func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	wantUser := config.Env("ADMIN_USERNAME", "admin")
	wantPass := config.Env("ADMIN_PASSWORD", "")
	if wantPass == "" {
		return "", ErrBadCredentials
	}

	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(wantUser)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(wantPass)) == 1
	if !userOK || !passOK {
		return "", ErrBadCredentials
	}

	claims := &JwtCustomClaims{
		Name: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour * 24)),
		},
	}

	tkn := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	t, err := tkn.SignedString([]byte(config.JWTSecret()))
	if err != nil {
		return "", err
	}

	if os.Getenv("ENV") != "test" {
		if err := s.rdb.Set(ctx, "session:"+username, t, time.Hour*24).Err(); err != nil {
			return "", err
		}
	}

	return t, nil
}
