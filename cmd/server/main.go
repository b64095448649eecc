package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	memclientrepo "github.com/jrsteele09/go-oauth2-token-server/clients/memrepo"
	"github.com/jrsteele09/go-oauth2-token-server/grant"
	"github.com/jrsteele09/go-oauth2-token-server/internal/config"
	"github.com/jrsteele09/go-oauth2-token-server/resource"
	"github.com/jrsteele09/go-oauth2-token-server/server"
	"github.com/jrsteele09/go-oauth2-token-server/store"
	"github.com/jrsteele09/go-oauth2-token-server/store/memstore"
	"github.com/jrsteele09/go-oauth2-token-server/store/sqlstore"
	"github.com/jrsteele09/go-oauth2-token-server/token"
	memuserrepo "github.com/jrsteele09/go-oauth2-token-server/users/memrepo"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// backend is what the server needs from a storage implementation
type backend interface {
	store.DataHandler
	store.Registrar
	io.Closer
}

// memBackend adds a no-op Close to the in-memory store
type memBackend struct {
	*memstore.Store
}

func (memBackend) Close() error { return nil }

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Error running server")
	}
	log.Info().Msg("Server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	c, err := config.New()
	if err != nil {
		return err
	}
	setupLogging(c)
	displayAppname(c.GetAppName())

	ctx := context.Background()
	generator, keySet, err := newGenerator(c)
	if err != nil {
		return err
	}
	data, err := openStore(ctx, c, generator)
	if err != nil {
		return err
	}
	defer data.Close()

	var seed *config.Seed
	if c.GetSeedFile() != "" {
		if seed, err = config.LoadSeed(c.GetSeedFile()); err != nil {
			return err
		}
	}
	if err := server.Bootstrap(ctx, data, seed); err != nil {
		return err
	}

	dispatcher := grant.NewDispatcher(data, grant.WithLogger(log.Logger))
	validator := resource.NewValidator(data, resource.WithLogger(log.Logger))
	var opts []server.Option
	if keySet != nil {
		opts = append(opts, server.WithKeySet(keySet))
	}

	httpServer := &http.Server{
		Addr:              c.GetPort(),
		Handler:           server.New(c, dispatcher, validator, opts...),
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- listenAndServe(httpServer)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(httpServer)
}

func setupLogging(c config.Config) {
	level, err := zerolog.ParseLevel(c.GetLogLevel())
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if c.IsDev() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

// newGenerator picks the access token format. The key set is only returned for
// asymmetric JWT signers.
func newGenerator(c config.Config) (token.Generator, server.KeySetProvider, error) {
	if c.GetTokenFormat() != config.TokenFormatJWT {
		return token.OpaqueGenerator{}, nil, nil
	}

	signer, err := token.NewSigner(token.SignerSettings{
		Algorithm:      c.GetJWTSigningAlgorithm(),
		Secret:         c.GetJWTSigningKey(),
		KeyID:          c.GetJWTKeyID(),
		PrivateKeyFile: c.GetJWTPrivateKeyFile(),
	})
	if err != nil {
		return nil, nil, err
	}
	alg := signer.GetSigningMethod().Alg()
	if _, ok := signer.(*token.KeyPairSigner); ok && c.GetJWTPrivateKeyFile() == "" {
		log.Warn().Str("alg", alg).Msg("Issuing JWT access tokens with an ephemeral key, set JWT_PRIVATE_KEY_FILE to keep it across restarts")
	} else {
		log.Info().Str("alg", alg).Str("key_file", c.GetJWTPrivateKeyFile()).Msg("Issuing JWT access tokens")
	}

	generator := token.NewJWTGenerator(signer, token.WithIssuer(c.GetBaseURL()))
	if keySet, ok := signer.(*token.KeyPairSigner); ok {
		return generator, keySet, nil
	}
	return generator, nil, nil
}

func openStore(ctx context.Context, c config.Config, generator token.Generator) (backend, error) {
	driver := c.GetStorageDriver()
	log.Info().Str("driver", driver).Msg("Opening store")

	if driver == config.StorageMemory {
		return memBackend{memstore.New(memclientrepo.New(), memuserrepo.New(),
			memstore.WithGenerator(generator),
			memstore.WithAccessTokenExpiry(c.GetAccessTokenExpiry()),
			memstore.WithAuthCodeExpiry(c.GetAuthCodeExpiry()),
		)}, nil
	}

	dialect, err := sqlstore.ParseDialect(driver)
	if err != nil {
		return nil, err
	}
	sqlStore, err := sqlstore.Open(ctx, dialect, c.GetStorageDSN(),
		sqlstore.WithGenerator(generator),
		sqlstore.WithAccessTokenExpiry(c.GetAccessTokenExpiry()),
		sqlstore.WithAuthCodeExpiry(c.GetAuthCodeExpiry()),
	)
	if err != nil {
		return nil, err
	}
	return sqlStore, nil
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "server.ListenAndServe")
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "server.Shutdown")
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
