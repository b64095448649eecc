package server

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-oauth2-token-server/internal/config"
	"github.com/jrsteele09/go-oauth2-token-server/oauth2"
	"github.com/jrsteele09/go-oauth2-token-server/store"
	"github.com/jrsteele09/go-oauth2-token-server/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Bootstrap registers the clients and users of the seed with the store.
// Registration is an upsert, so running it against a populated store is safe.
func Bootstrap(ctx context.Context, registrar store.Registrar, seed *config.Seed) error {
	if seed == nil {
		log.Warn().Msg("Bootstrap: no seed file configured, the store starts empty")
		return nil
	}

	for i := range seed.Clients {
		client := seed.Clients[i]
		if err := registrar.RegisterClient(ctx, &client); err != nil {
			return errors.Wrapf(err, "[server.Bootstrap] register client %s", client.ID)
		}
		log.Info().Str("client_id", client.ID).Strs("grant_types", grantTypeNames(client.GrantTypes)).Msg("Bootstrap: client registered")
	}

	for _, su := range seed.Users {
		hash, err := users.HashPassword(su.Password)
		if err != nil {
			return errors.Wrapf(err, "[server.Bootstrap] hash password for %s", su.Username)
		}
		id := su.ID
		if id == "" {
			// Stable across restarts so a re-run updates rather than duplicates
			id = uuid.NewSHA1(uuid.NameSpaceOID, []byte("user:"+su.Username)).String()
		}
		user := &users.User{
			ID:           id,
			Username:     su.Username,
			PasswordHash: hash,
			DateJoined:   time.Now().UTC(),
			Blocked:      su.Blocked,
		}
		if err := registrar.RegisterUser(ctx, user); err != nil {
			return errors.Wrapf(err, "[server.Bootstrap] register user %s", su.Username)
		}
		log.Info().Str("user_id", user.ID).Str("username", user.Username).Msg("Bootstrap: user registered")
	}
	return nil
}

func grantTypeNames(grantTypes []oauth2.GrantType) []string {
	names := make([]string, 0, len(grantTypes))
	for _, gt := range grantTypes {
		names = append(names, gt.String())
	}
	return names
}
