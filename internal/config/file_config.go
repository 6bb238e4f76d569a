package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// File is the optional YAML settings file read by the CLI. Values set in it
// win over the environment.
type File struct {
	APIBaseURL     string        `yaml:"api_base_url"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	RefreshDedup   *bool         `yaml:"refresh_dedup"`
	Redis          struct {
		Addr      string `yaml:"addr"`
		Password  string `yaml:"password"`
		DB        *int   `yaml:"db"`
		KeyPrefix string `yaml:"key_prefix"`
	} `yaml:"redis"`
}

type fileConfig struct {
	Config
	file File
}

// WithFile layers the YAML file at path over base
func WithFile(base Config, path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return fileConfig{Config: base, file: f}, nil
}

func (c fileConfig) GetAPIBaseURL() string {
	if c.file.APIBaseURL != "" {
		return c.file.APIBaseURL
	}
	return c.Config.GetAPIBaseURL()
}

func (c fileConfig) GetRequestTimeout() time.Duration {
	if c.file.RequestTimeout > 0 {
		return c.file.RequestTimeout
	}
	return c.Config.GetRequestTimeout()
}

func (c fileConfig) GetRefreshDeduplication() bool {
	if c.file.RefreshDedup != nil {
		return *c.file.RefreshDedup
	}
	return c.Config.GetRefreshDeduplication()
}

func (c fileConfig) GetRedisAddr() string {
	if c.file.Redis.Addr != "" {
		return c.file.Redis.Addr
	}
	return c.Config.GetRedisAddr()
}

func (c fileConfig) GetRedisPassword() string {
	if c.file.Redis.Password != "" {
		return c.file.Redis.Password
	}
	return c.Config.GetRedisPassword()
}

func (c fileConfig) GetRedisDB() int {
	if c.file.Redis.DB != nil {
		return *c.file.Redis.DB
	}
	return c.Config.GetRedisDB()
}

func (c fileConfig) GetStoreKeyPrefix() string {
	if c.file.Redis.KeyPrefix != "" {
		return c.file.Redis.KeyPrefix
	}
	return c.Config.GetStoreKeyPrefix()
}
