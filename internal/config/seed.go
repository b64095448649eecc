package config

import (
	"github.com/jrsteele09/go-oauth2-token-server/clients"
	"github.com/jrsteele09/go-oauth2-token-server/users"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

// SeedUser is a user entry in the seed file. Passwords are plain text in the
// file and hashed before they reach a store.
type SeedUser struct {
	ID       string `koanf:"id"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	Blocked  bool   `koanf:"blocked"`
}

// Seed is the initial set of clients and users loaded into an empty store.
//
//	clients:
//	  - id: web
//	    secret: s3cret
//	    user_id: service-account
//	    grant_types: [client_credentials, refresh_token]
//	users:
//	  - username: alice
//	    password: Passw0rd!
type Seed struct {
	Clients []clients.Client `koanf:"clients"`
	Users   []SeedUser       `koanf:"users"`
}

// LoadSeed reads a yaml seed file. Seeded passwords must pass the same strength
// rules as any other user password.
func LoadSeed(path string) (*Seed, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, errors.Wrapf(err, "[config.LoadSeed] load %s", path)
	}

	seed := &Seed{}
	if err := k.Unmarshal("", seed); err != nil {
		return nil, errors.Wrapf(err, "[config.LoadSeed] unmarshal %s", path)
	}
	for i := range seed.Clients {
		if err := seed.Clients[i].Validate(); err != nil {
			return nil, errors.Wrapf(err, "[config.LoadSeed] client %d", i)
		}
	}
	for i, u := range seed.Users {
		if u.Username == "" || u.Password == "" {
			return nil, errors.Errorf("[config.LoadSeed] user %d needs a username and password", i)
		}
		if err := users.ValidatePasswordStrength(u.Password); err != nil {
			return nil, errors.Wrapf(err, "[config.LoadSeed] user %s", u.Username)
		}
	}
	return seed, nil
}
