// Package tokencache is a SQLite-backed token cache for the acquisition
// engine. Providers read and write through it; the engine itself never
// touches it directly. Access tokens are sealed with the cryptox master key
// before they reach disk, so a stolen cache file alone is not enough to
// replay a token.
package tokencache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/dirauth/pkg/cryptox"
	"github.com/aussiebroadwan/dirauth/pkg/dirauth"
	"github.com/aussiebroadwan/dirauth/pkg/idx"
	_ "modernc.org/sqlite"
)

// ErrNotFound reports a lookup that matched nothing.
var ErrNotFound = errors.New("tokencache: not found")

// Store implements dirauth.Cache on a SQLite database.
type Store struct {
	db  *sql.DB
	dsn string
}

// Open opens (or creates) the cache database at dsn. Use ":memory:" for an
// ephemeral cache in tests.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// Enforce FKs so removing an account drops its tokens too
	if _, err := db.ExecContext(context.Background(), `PRAGMA foreign_keys = ON;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, dsn: dsn}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Accounts lists accounts previously cached for the given client, ordered
// by username for stable output.
func (s *Store) Accounts(ctx context.Context, clientID string) ([]dirauth.Account, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, home_account_id, environment
		FROM accounts
		WHERE client_id = ?
		ORDER BY username`,
		clientID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []dirauth.Account
	for rows.Next() {
		var a dirauth.Account
		if err := rows.Scan(&a.Username, &a.HomeAccountID, &a.Environment); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// Result returns the cached result for (client, resource, account), or nil
// when nothing is cached for that key. Expired entries are still returned;
// deciding what "too old" means is the provider's call.
func (s *Store) Result(ctx context.Context, clientID, resource, homeAccountID string) (*dirauth.Result, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT t.secret_encrypted, t.tenant_id, t.expires_on,
		       a.username, a.home_account_id, a.environment
		FROM tokens t
		JOIN accounts a
		  ON a.client_id = t.client_id AND a.home_account_id = t.home_account_id
		WHERE t.client_id = ? AND t.resource = ? AND t.home_account_id = ?`,
		clientID, resource, homeAccountID,
	)

	var (
		sealed []byte
		res    dirauth.Result
	)
	err := row.Scan(
		&sealed, &res.TenantID, &res.ExpiresOn,
		&res.Account.Username, &res.Account.HomeAccountID, &res.Account.Environment,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	token, err := cryptox.DecryptSecret(sealed)
	if err != nil {
		return nil, fmt.Errorf("tokencache: unsealing cached token: %w", err)
	}
	res.AccessToken = string(token)

	return &res, nil
}

// PutResult stores or replaces the cached result for its account. The
// account row is upserted alongside so Accounts enumeration stays in sync.
func (s *Store) PutResult(ctx context.Context, clientID, resource string, res dirauth.Result) error {
	if res.Account.HomeAccountID == "" {
		return fmt.Errorf("tokencache: result has no home account id")
	}

	sealed, err := cryptox.EncryptSecret([]byte(res.AccessToken))
	if err != nil {
		return fmt.Errorf("tokencache: sealing token: %w", err)
	}

	now := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback() // safe to call even after commit
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO accounts (id, client_id, home_account_id, username, environment, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (client_id, home_account_id) DO UPDATE SET
			username = excluded.username,
			environment = excluded.environment,
			updated_at = excluded.updated_at`,
		idx.New().String(), clientID, res.Account.HomeAccountID,
		res.Account.Username, res.Account.Environment, now, now,
	)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO tokens (id, client_id, home_account_id, resource, secret_encrypted, tenant_id, expires_on, cached_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (client_id, home_account_id, resource) DO UPDATE SET
			secret_encrypted = excluded.secret_encrypted,
			tenant_id = excluded.tenant_id,
			expires_on = excluded.expires_on,
			cached_at = excluded.cached_at`,
		idx.New().String(), clientID, res.Account.HomeAccountID, resource,
		sealed, res.TenantID, res.ExpiresOn.UTC(), now,
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// RemoveAccount deletes an account and, via the FK cascade, every token
// cached for it. Used by "log out" style operations.
func (s *Store) RemoveAccount(ctx context.Context, clientID, homeAccountID string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM accounts WHERE client_id = ? AND home_account_id = ?`,
		clientID, homeAccountID,
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
