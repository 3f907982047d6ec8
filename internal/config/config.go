package config

import "os"

// Env returns the value of an environment variable or a fallback.
func Env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func RedisAddr() string {
	return Env("REDIS_ADDR", "localhost:6379")
}

func JWTSecret() string {
	return Env("JWT_SECRET", "secret")
}
