package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/pkg/errors"
)

type Config interface {
	EnvConfig
	CorsConfig
	OAuthConfig
	StorageConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	IsDev() bool
	GetLogLevel() string
	GetBaseURL() string
	GetSeedFile() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Cors
	OAuth
	Storage
}

var _ Config = (*mainConfig)(nil)

// New reads the configuration from the environment.
func New() (Config, error) {
	c := &mainConfig{}
	if err := env.Parse(c); err != nil {
		return nil, errors.Wrap(err, "[config.New] parse env")
	}
	if err := c.validate(); err != nil {
		return nil, errors.Wrap(err, "[config.New]")
	}
	return c, nil
}

func (c *mainConfig) validate() error {
	if err := c.Storage.validate(); err != nil {
		return err
	}
	return c.OAuth.validate()
}
