package sqlstore

import (
	"context"

	"github.com/google/uuid"
	ierrors "github.com/jrsteele09/go-oauth2-token-server/internal/errors"
	"github.com/jrsteele09/go-oauth2-token-server/oauth2"
	"github.com/jrsteele09/go-oauth2-token-server/store"
	"github.com/jrsteele09/go-oauth2-token-server/token"
	"github.com/pkg/errors"
)

const authInfoColumns = `id, client_id, user_id, scope, COALESCE(code, ''), code_expires_at, redirect_uri, COALESCE(refresh_token, '')`

func (s *Store) getAuthInfo(ctx context.Context, column, value string) (*store.AuthInfo, int64, error) {
	var (
		ai          store.AuthInfo
		codeExpires int64
	)
	err := s.db.QueryRowContext(ctx, s.q(`SELECT `+authInfoColumns+` FROM auth_info WHERE `+column+` = ?`), value).
		Scan(&ai.ID, &ai.ClientID, &ai.UserID, &ai.Scope, &ai.Code, &codeExpires, &ai.RedirectURI, &ai.RefreshToken)
	if err != nil {
		return nil, 0, notFound(err)
	}
	return &ai, codeExpires, nil
}

// CreateOrUpdateAuthInfo keeps one grant per client/user pair. A repeated
// request updates the scope of the existing grant. The pair is unique in the
// schema, so concurrent callers converge on the same row.
func (s *Store) CreateOrUpdateAuthInfo(ctx context.Context, clientID, userID, scope string) (*store.AuthInfo, error) {
	client, err := s.getClient(ctx, clientID)
	if err != nil {
		return nil, err
	}

	var refreshToken string
	if client.AllowsGrantType(oauth2.RefreshTokenGrant) {
		if refreshToken, err = token.RandomString(0); err != nil {
			return nil, errors.Wrap(err, "[Store.CreateOrUpdateAuthInfo] refresh token")
		}
	}
	// An existing grant keeps its id and refresh token
	_, err = s.db.ExecContext(ctx, s.q(`
		INSERT INTO auth_info (id, origin, client_id, user_id, scope, code, code_expires_at, redirect_uri, refresh_token)
		VALUES (?, ?, ?, ?, ?, NULL, 0, '', ?)
		ON CONFLICT (client_id, user_id) WHERE origin = '`+originToken+`'
		DO UPDATE SET scope = excluded.scope`),
		uuid.New().String(), originToken, clientID, userID, scope, nullable(refreshToken),
	)
	if err != nil {
		return nil, errors.Wrap(err, "[Store.CreateOrUpdateAuthInfo] upsert")
	}

	var id string
	err = s.db.QueryRowContext(ctx, s.q(`SELECT id FROM auth_info WHERE client_id = ? AND user_id = ? AND origin = ?`),
		clientID, userID, originToken).Scan(&id)
	if err != nil {
		return nil, errors.Wrap(notFound(err), "[Store.CreateOrUpdateAuthInfo] select")
	}
	ai, _, err := s.getAuthInfo(ctx, "id", id)
	if err != nil {
		return nil, err
	}
	ai.Code = ""
	return ai, nil
}

// IssueAuthorizationCode records a grant redeemable once at the token endpoint.
func (s *Store) IssueAuthorizationCode(ctx context.Context, clientID, userID, scope, redirectURI string) (*store.AuthInfo, error) {
	client, err := s.getClient(ctx, clientID)
	if err != nil {
		return nil, errors.Wrap(err, "[Store.IssueAuthorizationCode] getClient")
	}
	if len(client.RedirectURIs) > 0 && !client.HasRedirectURI(redirectURI) {
		return nil, errors.Errorf("[Store.IssueAuthorizationCode] redirect uri %q not registered", redirectURI)
	}

	ai := &store.AuthInfo{
		ID:          uuid.New().String(),
		ClientID:    clientID,
		UserID:      userID,
		Scope:       scope,
		RedirectURI: redirectURI,
	}
	if ai.Code, err = token.RandomString(0); err != nil {
		return nil, errors.Wrap(err, "[Store.IssueAuthorizationCode] code")
	}
	if client.AllowsGrantType(oauth2.RefreshTokenGrant) {
		if ai.RefreshToken, err = token.RandomString(0); err != nil {
			return nil, errors.Wrap(err, "[Store.IssueAuthorizationCode] refresh token")
		}
	}

	_, err = s.db.ExecContext(ctx, s.q(`
		INSERT INTO auth_info (id, origin, client_id, user_id, scope, code, code_expires_at, redirect_uri, refresh_token)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		ai.ID, originCode, ai.ClientID, ai.UserID, ai.Scope, ai.Code,
		toMillis(s.nowFunc().Add(s.authCodeExpiry)), ai.RedirectURI, nullable(ai.RefreshToken),
	)
	if err != nil {
		return nil, errors.Wrap(err, "[Store.IssueAuthorizationCode] insert")
	}
	return ai, nil
}

func (s *Store) GetAuthInfoByCode(ctx context.Context, code string) (*store.AuthInfo, error) {
	ai, codeExpires, err := s.getAuthInfo(ctx, "code", code)
	if err != nil {
		return nil, err
	}
	if s.nowFunc().After(fromMillis(codeExpires)) {
		return nil, ierrors.ErrExpired
	}
	return ai, nil
}

func (s *Store) GetAuthInfoByRefreshToken(ctx context.Context, refreshToken string) (*store.AuthInfo, error) {
	ai, _, err := s.getAuthInfo(ctx, "refresh_token", refreshToken)
	if err != nil {
		return nil, err
	}
	ai.Code = ""
	return ai, nil
}

func (s *Store) GetAuthInfoByID(ctx context.Context, id string) (*store.AuthInfo, error) {
	ai, _, err := s.getAuthInfo(ctx, "id", id)
	if err != nil {
		return nil, err
	}
	ai.Code = ""
	return ai, nil
}

// CreateOrUpdateAccessToken mints a new token for the grant, replacing any
// previous one. Redeeming a code consumes it.
func (s *Store) CreateOrUpdateAccessToken(ctx context.Context, authInfo *store.AuthInfo) (at *store.AccessToken, err error) {
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

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "[Store.CreateOrUpdateAccessToken] BeginTx")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if authInfo.Code != "" {
		res, err := tx.ExecContext(ctx, s.q(`UPDATE auth_info SET code = NULL WHERE id = ? AND code = ?`), authInfo.ID, authInfo.Code)
		if err != nil {
			return nil, errors.Wrap(err, "[Store.CreateOrUpdateAccessToken] consume code")
		}
		if n, err := res.RowsAffected(); err != nil || n != 1 {
			// Already redeemed by a concurrent request
			return nil, ierrors.ErrNotFound
		}
	} else {
		var exists int
		if err := tx.QueryRowContext(ctx, s.q(`SELECT 1 FROM auth_info WHERE id = ?`), authInfo.ID).Scan(&exists); err != nil {
			return nil, notFound(err)
		}
	}

	if _, err = tx.ExecContext(ctx, s.q(`DELETE FROM access_tokens WHERE auth_id = ?`), authInfo.ID); err != nil {
		return nil, errors.Wrap(err, "[Store.CreateOrUpdateAccessToken] delete previous")
	}

	at = &store.AccessToken{
		Token:     raw,
		ExpiresIn: int64(s.accessTokenExpiry.Seconds()),
		CreatedOn: fromMillis(toMillis(now)),
		AuthID:    authInfo.ID,
	}
	if _, err = tx.ExecContext(ctx, s.q(`INSERT INTO access_tokens (token, auth_id, expires_in, created_on) VALUES (?, ?, ?, ?)`),
		at.Token, at.AuthID, at.ExpiresIn, toMillis(at.CreatedOn)); err != nil {
		return nil, errors.Wrap(err, "[Store.CreateOrUpdateAccessToken] insert")
	}

	if err = tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "[Store.CreateOrUpdateAccessToken] Commit")
	}
	return at, nil
}

func (s *Store) GetAccessToken(ctx context.Context, tokenStr string) (*store.AccessToken, error) {
	var (
		at        store.AccessToken
		createdOn int64
	)
	err := s.db.QueryRowContext(ctx, s.q(`SELECT token, auth_id, expires_in, created_on FROM access_tokens WHERE token = ?`), tokenStr).
		Scan(&at.Token, &at.AuthID, &at.ExpiresIn, &createdOn)
	if err != nil {
		return nil, notFound(err)
	}
	at.CreatedOn = fromMillis(createdOn)
	return &at, nil
}
