package config

import (
	ierrors "github.com/jrsteele09/go-oauth2-token-server/internal/errors"
	"github.com/pkg/errors"
)

const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

type StorageConfig interface {
	GetStorageDriver() string
	GetStorageDSN() string
}

type Storage struct {
	Driver string `env:"STORAGE_DRIVER" envDefault:"memory"`
	DSN    string `env:"STORAGE_DSN"`
}

var _ StorageConfig = Storage{}

func (s Storage) GetStorageDriver() string {
	return s.Driver
}

// GetStorageDSN defaults to a private in-memory database for sqlite.
func (s Storage) GetStorageDSN() string {
	if s.DSN == "" && s.Driver == StorageSQLite {
		return ":memory:"
	}
	return s.DSN
}

func (s Storage) validate() error {
	switch s.Driver {
	case StorageMemory, StorageSQLite:
		return nil
	case StoragePostgres:
		if s.DSN == "" {
			return errors.New("STORAGE_DSN is required for postgres")
		}
		return nil
	default:
		return errors.Wrapf(ierrors.ErrUnknownDriver, "STORAGE_DRIVER %q", s.Driver)
	}
}
