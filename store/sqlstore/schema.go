package sqlstore

// Timestamps are stored as unix milliseconds and booleans as integers so the
// same statements run on SQLite and PostgreSQL.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS clients (
		id            TEXT PRIMARY KEY,
		description   TEXT NOT NULL DEFAULT '',
		secret        TEXT NOT NULL DEFAULT '',
		user_id       TEXT NOT NULL DEFAULT '',
		grant_types   TEXT NOT NULL DEFAULT '',
		redirect_uris TEXT NOT NULL DEFAULT '',
		scopes        TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY,
		username      TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		date_joined   BIGINT NOT NULL DEFAULT 0,
		blocked       INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS auth_info (
		id              TEXT PRIMARY KEY,
		origin          TEXT NOT NULL,
		client_id       TEXT NOT NULL,
		user_id         TEXT NOT NULL,
		scope           TEXT NOT NULL DEFAULT '',
		code            TEXT UNIQUE,
		code_expires_at BIGINT NOT NULL DEFAULT 0,
		redirect_uri    TEXT NOT NULL DEFAULT '',
		refresh_token   TEXT UNIQUE
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS auth_info_token_pair ON auth_info (client_id, user_id) WHERE origin = 'token'`,
	`CREATE TABLE IF NOT EXISTS access_tokens (
		token      TEXT PRIMARY KEY,
		auth_id    TEXT NOT NULL,
		expires_in BIGINT NOT NULL,
		created_on BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS access_tokens_auth_id ON access_tokens (auth_id)`,
}

// Values of auth_info.origin.
const (
	originToken = "token" // created by CreateOrUpdateAuthInfo, one per client/user pair (auth_info_token_pair)
	originCode  = "code"  // created by IssueAuthorizationCode
)
