// Package storefake provides a recording, map driven store.DataHandler for tests.
package storefake

import (
	"context"
	"sync"
	"time"

	"github.com/jrsteele09/go-oauth2-token-server/oauth2"
	"github.com/jrsteele09/go-oauth2-token-server/store"
)

var _ store.DataHandler = (*DataHandler)(nil)

// Client is a registered client as seen by the fake.
type Client struct {
	Secret     string
	UserID     string             // returned by GetClientUserID, empty means absent
	GrantTypes []oauth2.GrantType // empty allows every grant type
	Disabled   bool               // ValidateClientByID returns false
}

// User is a resource owner as seen by the fake.
type User struct {
	ID       string
	Password string
	Disabled bool
}

// DataHandler answers every port call from the exported maps and records the
// name of each call made. Zero value maps behave as empty stores.
type DataHandler struct {
	Clients map[string]Client // by client id
	Users   map[string]User   // by username

	AuthByCode    map[string]*store.AuthInfo
	AuthByRefresh map[string]*store.AuthInfo
	AuthByID      map[string]*store.AuthInfo

	// AuthByClient is what CreateOrUpdateAuthInfo returns for a client id. The
	// requested user and scope are recorded on the returned copy when empty.
	AuthByClient map[string]*store.AuthInfo

	// IssuedToken is returned from CreateOrUpdateAccessToken, bound to the AuthInfo.
	IssuedToken *store.AccessToken

	AccessTokens map[string]*store.AccessToken // by token string

	// Errors forces a method, by name, to fail.
	Errors map[string]error

	lock  sync.Mutex
	calls []string
}

// Calls returns the names of the port methods invoked so far, in order.
func (d *DataHandler) Calls() []string {
	d.lock.Lock()
	defer d.lock.Unlock()
	return append([]string(nil), d.calls...)
}

// CallCount returns the number of port calls made so far.
func (d *DataHandler) CallCount() int {
	d.lock.Lock()
	defer d.lock.Unlock()
	return len(d.calls)
}

func (d *DataHandler) record(method string) error {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.calls = append(d.calls, method)
	return d.Errors[method]
}

func (d *DataHandler) ValidateClient(_ context.Context, clientID, clientSecret string, grantType oauth2.GrantType) (bool, error) {
	if err := d.record("ValidateClient"); err != nil {
		return false, err
	}
	c, ok := d.Clients[clientID]
	if !ok || c.Secret != clientSecret {
		return false, nil
	}
	if len(c.GrantTypes) == 0 {
		return true, nil
	}
	for _, gt := range c.GrantTypes {
		if gt == grantType {
			return true, nil
		}
	}
	return false, nil
}

func (d *DataHandler) GetClientUserID(_ context.Context, clientID, clientSecret string) (string, error) {
	if err := d.record("GetClientUserID"); err != nil {
		return "", err
	}
	c, ok := d.Clients[clientID]
	if !ok || c.Secret != clientSecret || c.UserID == "" {
		return "", store.ErrNotFound
	}
	return c.UserID, nil
}

func (d *DataHandler) GetUserID(_ context.Context, username, password string) (string, error) {
	if err := d.record("GetUserID"); err != nil {
		return "", err
	}
	u, ok := d.Users[username]
	if !ok || u.Password != password {
		return "", store.ErrNotFound
	}
	return u.ID, nil
}

func (d *DataHandler) CreateOrUpdateAuthInfo(_ context.Context, clientID, userID, scope string) (*store.AuthInfo, error) {
	if err := d.record("CreateOrUpdateAuthInfo"); err != nil {
		return nil, err
	}
	ai, ok := d.AuthByClient[clientID]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := *ai
	if out.UserID == "" {
		out.UserID = userID
	}
	if out.Scope == "" {
		out.Scope = scope
	}
	return &out, nil
}

func (d *DataHandler) GetAuthInfoByCode(_ context.Context, code string) (*store.AuthInfo, error) {
	return d.lookup("GetAuthInfoByCode", d.AuthByCode, code)
}

func (d *DataHandler) GetAuthInfoByRefreshToken(_ context.Context, refreshToken string) (*store.AuthInfo, error) {
	return d.lookup("GetAuthInfoByRefreshToken", d.AuthByRefresh, refreshToken)
}

func (d *DataHandler) GetAuthInfoByID(_ context.Context, id string) (*store.AuthInfo, error) {
	return d.lookup("GetAuthInfoByID", d.AuthByID, id)
}

func (d *DataHandler) lookup(method string, m map[string]*store.AuthInfo, key string) (*store.AuthInfo, error) {
	if err := d.record(method); err != nil {
		return nil, err
	}
	ai, ok := m[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := *ai
	return &out, nil
}

func (d *DataHandler) CreateOrUpdateAccessToken(_ context.Context, authInfo *store.AuthInfo) (*store.AccessToken, error) {
	if err := d.record("CreateOrUpdateAccessToken"); err != nil {
		return nil, err
	}
	if d.IssuedToken == nil {
		return nil, store.ErrNotFound
	}
	out := *d.IssuedToken
	out.AuthID = authInfo.ID
	return &out, nil
}

func (d *DataHandler) GetAccessToken(_ context.Context, token string) (*store.AccessToken, error) {
	if err := d.record("GetAccessToken"); err != nil {
		return nil, err
	}
	at, ok := d.AccessTokens[token]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := *at
	return &out, nil
}

func (d *DataHandler) ValidateClientByID(_ context.Context, clientID string) (bool, error) {
	if err := d.record("ValidateClientByID"); err != nil {
		return false, err
	}
	c, ok := d.Clients[clientID]
	return ok && !c.Disabled, nil
}

func (d *DataHandler) ValidateUserByID(_ context.Context, userID string) (bool, error) {
	if err := d.record("ValidateUserByID"); err != nil {
		return false, err
	}
	for _, u := range d.Users {
		if u.ID == userID {
			return !u.Disabled, nil
		}
	}
	return false, nil
}

// ScopedDataHandler adds store.ScopeValidator to the fake. Scopes lists the
// scope strings each client may request; the empty scope is always allowed.
type ScopedDataHandler struct {
	*DataHandler
	Scopes map[string][]string
}

var _ store.ScopeValidator = (*ScopedDataHandler)(nil)

func (s *ScopedDataHandler) ValidateScope(_ context.Context, clientID, scope string) (bool, error) {
	if err := s.record("ValidateScope"); err != nil {
		return false, err
	}
	if scope == "" {
		return true, nil
	}
	for _, allowed := range s.Scopes[clientID] {
		if allowed == scope {
			return true, nil
		}
	}
	return false, nil
}

// Fixture values shared by the grant and resource tests.
const (
	ClientID1     = "clientId1"
	ClientSecret1 = "clientSecret1"
	ClientID2     = "clientId2"
	ClientSecret2 = "clientSecret2"
	UserID1       = "userId1"
	Username1     = "username1"
	Password1     = "password1"
	Code1         = "code1"
	Code2         = "code2"
	NullCode1     = "nullCode1"
	CodeMissing   = "code2missingRedirect"
	RedirectURI1  = "redirectUri1"
	RedirectURI2  = "redirectUri2"
	RefreshToken1 = "refreshToken1"
	RefreshToken2 = "refreshToken2"
	Scope1        = "scope1"
	AuthID1       = "authId1"
	AuthID2       = "authId2"
	AccessToken1  = "accessToken1"
	ExpiredToken  = "expiredToken"
	OrphanToken   = "orphanToken"
	DisabledAuth  = "disabledAuth"
	BlockedAuth   = "blockedAuth"
	ExpiresIn900  = int64(900)

	DisabledClientToken = "disabledClientToken"
	BlockedUserToken    = "blockedUserToken"
	BlockedUsername     = "blocked"

	// AuthInfoNotFound is a valid client for which no grant record can be created.
	AuthInfoNotFound = "authInfoNotFound"
	// DisabledClient authenticates but no longer passes ValidateClientByID.
	DisabledClient = "disabledClient"
	// BlockedUserID belongs to a user that no longer passes ValidateUserByID.
	BlockedUserID = "blockedUserId"
)

// NewFixture returns a fake seeded with the standard scenario data, with now
// used as the creation time of live access tokens.
func NewFixture(now time.Time) *DataHandler {
	grant1 := &store.AuthInfo{
		ID:           AuthID1,
		ClientID:     ClientID1,
		UserID:       UserID1,
		Scope:        Scope1,
		Code:         Code1,
		RedirectURI:  RedirectURI1,
		RefreshToken: RefreshToken1,
	}
	return &DataHandler{
		Clients: map[string]Client{
			ClientID1:        {Secret: ClientSecret1, UserID: UserID1},
			ClientID2:        {Secret: ClientSecret2, UserID: UserID1},
			AuthInfoNotFound: {Secret: ClientSecret1, UserID: UserID1},
			DisabledClient:   {Secret: ClientSecret1, UserID: UserID1, Disabled: true},
		},
		Users: map[string]User{
			Username1:       {ID: UserID1, Password: Password1},
			BlockedUsername: {ID: BlockedUserID, Password: Password1, Disabled: true},
		},
		AuthByCode: map[string]*store.AuthInfo{
			Code1:       grant1,
			Code2:       {ID: AuthID2, ClientID: ClientID2, UserID: UserID1, Scope: Scope1, Code: Code2, RedirectURI: RedirectURI2, RefreshToken: RefreshToken2},
			CodeMissing: {ID: "authIdMissingRedirect", ClientID: ClientID1, UserID: UserID1, Scope: Scope1, Code: CodeMissing, RefreshToken: RefreshToken1},
		},
		AuthByRefresh: map[string]*store.AuthInfo{
			RefreshToken1: grant1,
			RefreshToken2: {ID: AuthID2, ClientID: ClientID2, UserID: UserID1, Scope: Scope1, RefreshToken: RefreshToken2},
		},
		AuthByID: map[string]*store.AuthInfo{
			AuthID1:      grant1,
			DisabledAuth: {ID: DisabledAuth, ClientID: DisabledClient, UserID: UserID1, Scope: Scope1},
			BlockedAuth:  {ID: BlockedAuth, ClientID: ClientID1, UserID: BlockedUserID, Scope: Scope1},
		},
		AuthByClient: map[string]*store.AuthInfo{
			ClientID1: grant1,
			ClientID2: {ID: AuthID2, ClientID: ClientID2},
		},
		IssuedToken: &store.AccessToken{Token: AccessToken1, ExpiresIn: ExpiresIn900, CreatedOn: now},
		AccessTokens: map[string]*store.AccessToken{
			AccessToken1:        {Token: AccessToken1, ExpiresIn: 3600, CreatedOn: now, AuthID: AuthID1},
			ExpiredToken:        {Token: ExpiredToken, ExpiresIn: 3600, CreatedOn: now.AddDate(0, 0, -1), AuthID: AuthID1},
			OrphanToken:         {Token: OrphanToken, ExpiresIn: 3600, CreatedOn: now, AuthID: "missingAuth"},
			DisabledClientToken: {Token: DisabledClientToken, ExpiresIn: 3600, CreatedOn: now, AuthID: DisabledAuth},
			BlockedUserToken:    {Token: BlockedUserToken, ExpiresIn: 3600, CreatedOn: now, AuthID: BlockedAuth},
		},
	}
}
