package config

type Config interface {
	EnvConfig
	ClientConfig
	StoreConfig
	CorsConfig
	TokenConfig
	BackendConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Client
	Store
	Cors
	Tokens
	Backend
}

func New() Config {
	return mainConfig{}
}
