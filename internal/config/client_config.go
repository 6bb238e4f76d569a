package config

import "time"

const (
	apiBaseURLVar     = "API_BASE_URL"
	requestTimeoutVar = "REQUEST_TIMEOUT"
	refreshDedupVar   = "REFRESH_DEDUP"
)

type ClientConfig interface {
	GetAPIBaseURL() string
	GetRequestTimeout() time.Duration
	GetRefreshDeduplication() bool
}

type Client struct{}

var _ ClientConfig = Client{}

// GetAPIBaseURL returns the backend origin every request is resolved against
func (Client) GetAPIBaseURL() string {
	return GetEnv(apiBaseURLVar, "http://localhost:8080/api")
}

func (Client) GetRequestTimeout() time.Duration {
	return GetDurationEnv(requestTimeoutVar, 30*time.Second)
}

// GetRefreshDeduplication shares one in-flight refresh per namespace when set
func (Client) GetRefreshDeduplication() bool {
	return GetBoolEnv(refreshDedupVar, false)
}
