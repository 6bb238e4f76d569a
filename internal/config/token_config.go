package config

import "time"

const (
	jwtSecretVar            = "JWT_SECRET"
	accessTokenTTLVar       = "ACCESS_TOKEN_TTL"
	refreshTokenTTLVar      = "REFRESH_TOKEN_TTL"
	refreshRatePerMinuteVar = "REFRESH_RATE_PER_MINUTE"
)

type TokenConfig interface {
	GetJWTSecret() string
	GetAccessTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
	GetRefreshTokenLength() int
	GetRefreshRatePerMinute() int
}

type Tokens struct{}

var _ TokenConfig = Tokens{}

func (Tokens) GetJWTSecret() string {
	return GetEnv(jwtSecretVar, "dev-secret-change-me")
}

func (Tokens) GetAccessTokenExpiry() time.Duration {
	return GetDurationEnv(accessTokenTTLVar, 15*time.Minute)
}

func (Tokens) GetRefreshTokenExpiry() time.Duration {
	return GetDurationEnv(refreshTokenTTLVar, 7*24*time.Hour) // 7 days
}

func (Tokens) GetRefreshTokenLength() int {
	return 32 // 32 bytes = 256 bits
}

func (Tokens) GetRefreshRatePerMinute() int {
	return GetIntEnv(refreshRatePerMinuteVar, 30)
}
