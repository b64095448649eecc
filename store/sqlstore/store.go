// Package sqlstore is a store.DataHandler on database/sql, backed by SQLite
// (modernc.org/sqlite) or PostgreSQL (lib/pq).
package sqlstore

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-oauth2-token-server/clients"
	ierrors "github.com/jrsteele09/go-oauth2-token-server/internal/errors"
	"github.com/jrsteele09/go-oauth2-token-server/oauth2"
	"github.com/jrsteele09/go-oauth2-token-server/store"
	"github.com/jrsteele09/go-oauth2-token-server/token"
	"github.com/jrsteele09/go-oauth2-token-server/users"
	"github.com/pkg/errors"
)

var (
	_ store.DataHandler    = (*Store)(nil)
	_ store.ScopeValidator = (*Store)(nil)
	_ store.Registrar      = (*Store)(nil)
	_ store.CodeIssuer     = (*Store)(nil)
)

const (
	defaultAccessTokenExpiry = time.Hour
	defaultAuthCodeExpiry    = 10 * time.Minute
)

type Store struct {
	db      *sql.DB
	dialect Dialect

	generator         token.Generator
	accessTokenExpiry time.Duration
	authCodeExpiry    time.Duration
	nowFunc           func() time.Time
}

type Option func(*Store)

func WithGenerator(g token.Generator) Option {
	return func(s *Store) {
		s.generator = g
	}
}

func WithAccessTokenExpiry(d time.Duration) Option {
	return func(s *Store) {
		s.accessTokenExpiry = d
	}
}

func WithAuthCodeExpiry(d time.Duration) Option {
	return func(s *Store) {
		s.authCodeExpiry = d
	}
}

func WithNowFunc(now func() time.Time) Option {
	return func(s *Store) {
		s.nowFunc = now
	}
}

// New wraps an open database. The schema is not touched; call Migrate.
func New(db *sql.DB, dialect Dialect, options ...Option) *Store {
	s := &Store{db: db, dialect: dialect}
	for _, opt := range options {
		opt(s)
	}
	if s.generator == nil {
		s.generator = token.OpaqueGenerator{}
	}
	if s.accessTokenExpiry <= 0 {
		s.accessTokenExpiry = defaultAccessTokenExpiry
	}
	if s.authCodeExpiry <= 0 {
		s.authCodeExpiry = defaultAuthCodeExpiry
	}
	if s.nowFunc == nil {
		s.nowFunc = time.Now
	}
	return s
}

// Open connects to the database, verifies the connection and applies the schema.
func Open(ctx context.Context, dialect Dialect, dsn string, options ...Option) (*Store, error) {
	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, errors.Wrap(err, "[sqlstore.Open] sql.Open")
	}
	if dialect == SQLite {
		// A single connection keeps :memory: databases shared and serialises writers.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "[sqlstore.Open] Ping")
	}

	s := New(db, dialect, options...)
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "[Store.Migrate] ExecContext")
		}
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) q(query string) string {
	return s.dialect.Rebind(query)
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func nullable(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ierrors.ErrNotFound
	}
	return err
}

// Clients and users

func (s *Store) RegisterClient(ctx context.Context, client *clients.Client) error {
	if err := client.Validate(); err != nil {
		return errors.Wrap(err, "[Store.RegisterClient] Validate")
	}
	grantTypes := make([]string, 0, len(client.GrantTypes))
	for _, gt := range client.GrantTypes {
		grantTypes = append(grantTypes, gt.String())
	}
	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO clients (id, description, secret, user_id, grant_types, redirect_uris, scopes)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			description = excluded.description,
			secret = excluded.secret,
			user_id = excluded.user_id,
			grant_types = excluded.grant_types,
			redirect_uris = excluded.redirect_uris,
			scopes = excluded.scopes`),
		client.ID, client.Description, client.Secret, client.UserID,
		strings.Join(grantTypes, " "), strings.Join(client.RedirectURIs, " "), strings.Join(client.Scopes, " "),
	)
	return errors.Wrap(err, "[Store.RegisterClient] ExecContext")
}

func (s *Store) RegisterUser(ctx context.Context, user *users.User) error {
	if err := user.Validate(); err != nil {
		return errors.Wrap(err, "[Store.RegisterUser] Validate")
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.DateJoined.IsZero() {
		user.DateJoined = s.nowFunc()
	}
	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO users (id, username, password_hash, date_joined, blocked)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			username = excluded.username,
			password_hash = excluded.password_hash,
			blocked = excluded.blocked`),
		user.ID, user.Username, user.PasswordHash, toMillis(user.DateJoined), boolToInt(user.Blocked),
	)
	if isUniqueViolation(err) {
		return errors.Wrapf(ierrors.ErrDuplicate, "[Store.RegisterUser] username %s", user.Username)
	}
	return errors.Wrap(err, "[Store.RegisterUser] ExecContext")
}

const clientColumns = `id, description, secret, user_id, grant_types, redirect_uris, scopes`

func (s *Store) getClient(ctx context.Context, clientID string) (*clients.Client, error) {
	var (
		c                                clients.Client
		grantTypes, redirectURIs, scopes string
	)
	err := s.db.QueryRowContext(ctx, s.q(`SELECT `+clientColumns+` FROM clients WHERE id = ?`), clientID).
		Scan(&c.ID, &c.Description, &c.Secret, &c.UserID, &grantTypes, &redirectURIs, &scopes)
	if err != nil {
		return nil, notFound(err)
	}
	for _, gt := range strings.Fields(grantTypes) {
		c.GrantTypes = append(c.GrantTypes, oauth2.GrantType(gt))
	}
	c.RedirectURIs = strings.Fields(redirectURIs)
	c.Scopes = strings.Fields(scopes)
	return &c, nil
}

const userColumns = `id, username, password_hash, date_joined, blocked`

func (s *Store) getUser(ctx context.Context, where string, arg string) (*users.User, error) {
	var (
		u       users.User
		joined  int64
		blocked int
	)
	err := s.db.QueryRowContext(ctx, s.q(`SELECT `+userColumns+` FROM users WHERE `+where+` = ?`), arg).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &joined, &blocked)
	if err != nil {
		return nil, notFound(err)
	}
	u.DateJoined = fromMillis(joined)
	u.Blocked = blocked != 0
	return &u, nil
}

func (s *Store) authenticateClient(ctx context.Context, clientID, clientSecret string) (*clients.Client, error) {
	client, err := s.getClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if !client.CheckSecret(clientSecret) {
		return nil, ierrors.ErrInvalidSecret
	}
	return client, nil
}

func (s *Store) ValidateClient(ctx context.Context, clientID, clientSecret string, grantType oauth2.GrantType) (bool, error) {
	client, err := s.authenticateClient(ctx, clientID, clientSecret)
	if err != nil {
		if ierrors.Is(err, ierrors.ErrNotFound) || ierrors.Is(err, ierrors.ErrInvalidSecret) {
			return false, nil
		}
		return false, errors.Wrap(err, "[Store.ValidateClient] getClient")
	}
	return client.AllowsGrantType(grantType), nil
}

// GetClientUserID returns the client's configured user, or the client ID when
// the client acts on its own behalf.
func (s *Store) GetClientUserID(ctx context.Context, clientID, clientSecret string) (string, error) {
	client, err := s.authenticateClient(ctx, clientID, clientSecret)
	if err != nil {
		return "", err
	}
	if client.UserID != "" {
		return client.UserID, nil
	}
	return client.ID, nil
}

func (s *Store) GetUserID(ctx context.Context, username, password string) (string, error) {
	user, err := s.getUser(ctx, "username", username)
	if err != nil {
		return "", err
	}
	if !user.Active() || !user.CheckPassword(password) {
		return "", ierrors.ErrInvalidSecret
	}
	return user.ID, nil
}

func (s *Store) ValidateScope(ctx context.Context, clientID, scope string) (bool, error) {
	client, err := s.getClient(ctx, clientID)
	if err != nil {
		return false, err
	}
	return client.ValidateScopes(scope) == nil, nil
}

func (s *Store) ValidateClientByID(ctx context.Context, clientID string) (bool, error) {
	if _, err := s.getClient(ctx, clientID); err != nil {
		if ierrors.Is(err, ierrors.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ValidateUserByID accepts active users and clients acting as themselves.
func (s *Store) ValidateUserByID(ctx context.Context, userID string) (bool, error) {
	user, err := s.getUser(ctx, "id", userID)
	if err == nil {
		return user.Active(), nil
	}
	if !ierrors.Is(err, ierrors.ErrNotFound) {
		return false, err
	}
	return s.ValidateClientByID(ctx, userID)
}
