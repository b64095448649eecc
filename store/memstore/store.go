// Package memstore is an in-memory store.DataHandler backed by the clients and
// users repositories. It is safe for concurrent use.
package memstore

import (
	"context"
	"sync"
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

type grantRecord struct {
	info       store.AuthInfo
	codeExpiry time.Time
}

type Store struct {
	clientRepo clients.Repo
	userRepo   users.UserRepo
	generator  token.Generator

	accessTokenExpiry time.Duration
	authCodeExpiry    time.Duration
	nowFunc           func() time.Time

	lock          sync.RWMutex
	grants        map[string]*grantRecord       // by AuthInfo ID
	byCode        map[string]string             // code to AuthInfo ID
	byRefresh     map[string]string             // refresh token to AuthInfo ID
	byPair        map[string]string             // client/user pair to AuthInfo ID
	tokens        map[string]*store.AccessToken // by token string
	tokenByAuthID map[string]string             // AuthInfo ID to its current token
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

func New(clientRepo clients.Repo, userRepo users.UserRepo, options ...Option) *Store {
	s := &Store{
		clientRepo:    clientRepo,
		userRepo:      userRepo,
		grants:        make(map[string]*grantRecord),
		byCode:        make(map[string]string),
		byRefresh:     make(map[string]string),
		byPair:        make(map[string]string),
		tokens:        make(map[string]*store.AccessToken),
		tokenByAuthID: make(map[string]string),
	}
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

func (s *Store) RegisterClient(_ context.Context, client *clients.Client) error {
	return errors.Wrap(s.clientRepo.Upsert(client), "[Store.RegisterClient] Upsert")
}

func (s *Store) RegisterUser(_ context.Context, user *users.User) error {
	return errors.Wrap(s.userRepo.Upsert(user), "[Store.RegisterUser] Upsert")
}

func (s *Store) authenticateClient(clientID, clientSecret string) (*clients.Client, error) {
	client, err := s.clientRepo.Get(clientID)
	if err != nil {
		return nil, err
	}
	if !client.CheckSecret(clientSecret) {
		return nil, ierrors.ErrInvalidSecret
	}
	return client, nil
}

func (s *Store) ValidateClient(_ context.Context, clientID, clientSecret string, grantType oauth2.GrantType) (bool, error) {
	client, err := s.authenticateClient(clientID, clientSecret)
	if err != nil {
		if ierrors.Is(err, ierrors.ErrNotFound) || ierrors.Is(err, ierrors.ErrInvalidSecret) {
			return false, nil
		}
		return false, errors.Wrap(err, "[Store.ValidateClient] Get")
	}
	return client.AllowsGrantType(grantType), nil
}

// GetClientUserID returns the client's configured user, or the client ID when
// the client acts on its own behalf.
func (s *Store) GetClientUserID(_ context.Context, clientID, clientSecret string) (string, error) {
	client, err := s.authenticateClient(clientID, clientSecret)
	if err != nil {
		return "", err
	}
	if client.UserID != "" {
		return client.UserID, nil
	}
	return client.ID, nil
}

func (s *Store) GetUserID(_ context.Context, username, password string) (string, error) {
	user, err := s.userRepo.GetByUsername(username)
	if err != nil {
		return "", err
	}
	if !user.Active() || !user.CheckPassword(password) {
		return "", ierrors.ErrInvalidSecret
	}
	return user.ID, nil
}

func (s *Store) ValidateScope(_ context.Context, clientID, scope string) (bool, error) {
	client, err := s.clientRepo.Get(clientID)
	if err != nil {
		return false, err
	}
	return client.ValidateScopes(scope) == nil, nil
}

// CreateOrUpdateAuthInfo keeps one grant per client/user pair. A repeated
// request updates the scope of the existing grant.
func (s *Store) CreateOrUpdateAuthInfo(_ context.Context, clientID, userID, scope string) (*store.AuthInfo, error) {
	client, err := s.clientRepo.Get(clientID)
	if err != nil {
		return nil, err
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	if id, ok := s.byPair[pairKey(clientID, userID)]; ok {
		rec := s.grants[id]
		rec.info.Scope = scope
		out := rec.info
		return &out, nil
	}

	info := store.AuthInfo{
		ID:       uuid.New().String(),
		ClientID: clientID,
		UserID:   userID,
		Scope:    scope,
	}
	if client.AllowsGrantType(oauth2.RefreshTokenGrant) {
		if info.RefreshToken, err = token.RandomString(0); err != nil {
			return nil, errors.Wrap(err, "[Store.CreateOrUpdateAuthInfo] refresh token")
		}
		s.byRefresh[info.RefreshToken] = info.ID
	}
	s.grants[info.ID] = &grantRecord{info: info}
	s.byPair[pairKey(clientID, userID)] = info.ID
	out := info
	return &out, nil
}

// IssueAuthorizationCode records a grant redeemable once at the token endpoint.
func (s *Store) IssueAuthorizationCode(_ context.Context, clientID, userID, scope, redirectURI string) (*store.AuthInfo, error) {
	client, err := s.clientRepo.Get(clientID)
	if err != nil {
		return nil, errors.Wrap(err, "[Store.IssueAuthorizationCode] Get client")
	}
	if len(client.RedirectURIs) > 0 && !client.HasRedirectURI(redirectURI) {
		return nil, errors.Errorf("[Store.IssueAuthorizationCode] redirect uri %q not registered", redirectURI)
	}

	info := store.AuthInfo{
		ID:          uuid.New().String(),
		ClientID:    clientID,
		UserID:      userID,
		Scope:       scope,
		RedirectURI: redirectURI,
	}
	if info.Code, err = token.RandomString(0); err != nil {
		return nil, errors.Wrap(err, "[Store.IssueAuthorizationCode] code")
	}
	if client.AllowsGrantType(oauth2.RefreshTokenGrant) {
		if info.RefreshToken, err = token.RandomString(0); err != nil {
			return nil, errors.Wrap(err, "[Store.IssueAuthorizationCode] refresh token")
		}
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	s.grants[info.ID] = &grantRecord{info: info, codeExpiry: s.nowFunc().Add(s.authCodeExpiry)}
	s.byCode[info.Code] = info.ID
	if info.RefreshToken != "" {
		s.byRefresh[info.RefreshToken] = info.ID
	}
	out := info
	return &out, nil
}

func (s *Store) GetAuthInfoByCode(_ context.Context, code string) (*store.AuthInfo, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	rec, ok := s.grants[s.byCode[code]]
	if !ok {
		return nil, ierrors.ErrNotFound
	}
	if s.nowFunc().After(rec.codeExpiry) {
		return nil, ierrors.ErrExpired
	}
	out := rec.info
	return &out, nil
}

func (s *Store) GetAuthInfoByRefreshToken(_ context.Context, refreshToken string) (*store.AuthInfo, error) {
	return s.getAuthInfo(s.byRefreshID(refreshToken))
}

func (s *Store) GetAuthInfoByID(_ context.Context, id string) (*store.AuthInfo, error) {
	return s.getAuthInfo(id)
}

func (s *Store) byRefreshID(refreshToken string) string {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.byRefresh[refreshToken]
}

func (s *Store) getAuthInfo(id string) (*store.AuthInfo, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	rec, ok := s.grants[id]
	if !ok {
		return nil, ierrors.ErrNotFound
	}
	out := rec.info
	out.Code = ""
	return &out, nil
}

// CreateOrUpdateAccessToken mints a new token for the grant, replacing any
// previous one. Redeeming a code consumes it.
func (s *Store) CreateOrUpdateAccessToken(_ context.Context, authInfo *store.AuthInfo) (*store.AccessToken, error) {
	now := s.nowFunc()
	raw, err := s.generator.Generate(token.Claims{
		ClientID:  authInfo.ClientID,
		UserID:    authInfo.UserID,
		Scope:     authInfo.Scope,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.accessTokenExpiry),
	})
	if err != nil {
		return nil, errors.Wrap(err, "[Store.CreateOrUpdateAccessToken] Generate")
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	rec, ok := s.grants[authInfo.ID]
	if !ok {
		return nil, ierrors.ErrNotFound
	}
	if authInfo.Code != "" {
		if s.byCode[authInfo.Code] != authInfo.ID {
			// Already redeemed by a concurrent request
			return nil, ierrors.ErrNotFound
		}
		delete(s.byCode, authInfo.Code)
		rec.info.Code = ""
	}

	if previous, ok := s.tokenByAuthID[authInfo.ID]; ok {
		delete(s.tokens, previous)
	}
	at := &store.AccessToken{
		Token:     raw,
		ExpiresIn: int64(s.accessTokenExpiry / time.Second),
		CreatedOn: now,
		AuthID:    authInfo.ID,
	}
	s.tokens[raw] = at
	s.tokenByAuthID[authInfo.ID] = raw

	out := *at
	return &out, nil
}

func (s *Store) GetAccessToken(_ context.Context, tokenStr string) (*store.AccessToken, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	at, ok := s.tokens[tokenStr]
	if !ok {
		return nil, ierrors.ErrNotFound
	}
	out := *at
	return &out, nil
}

func (s *Store) ValidateClientByID(_ context.Context, clientID string) (bool, error) {
	if _, err := s.clientRepo.Get(clientID); err != nil {
		if ierrors.Is(err, ierrors.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ValidateUserByID accepts active users and clients acting as themselves.
func (s *Store) ValidateUserByID(_ context.Context, userID string) (bool, error) {
	user, err := s.userRepo.GetByID(userID)
	if err == nil {
		return user.Active(), nil
	}
	if !ierrors.Is(err, ierrors.ErrNotFound) {
		return false, err
	}
	if _, err := s.clientRepo.Get(userID); err == nil {
		return true, nil
	}
	return false, nil
}

func pairKey(clientID, userID string) string {
	return clientID + "\x00" + userID
}
