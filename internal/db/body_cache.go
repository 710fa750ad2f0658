package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// BodyCacheStore caches extracted message body text per account. The
// filtered search fetches full bodies; caching them keeps repeated
// filter runs from re-downloading messages already scanned.
type BodyCacheStore struct {
	db *sql.DB
}

// NewBodyCacheStore creates a new body cache store from a base store
func NewBodyCacheStore(store *Store) *BodyCacheStore {
	if store == nil {
		return nil
	}
	return &BodyCacheStore{db: store.DB()}
}

// Save upserts the body text for (account_email, message_id)
func (bs *BodyCacheStore) Save(ctx context.Context, accountEmail, messageID, bodyText string) error {
	if bs == nil || bs.db == nil {
		return fmt.Errorf("body cache not initialized")
	}
	if strings.TrimSpace(accountEmail) == "" || strings.TrimSpace(messageID) == "" {
		return fmt.Errorf("invalid body cache inputs")
	}
	_, err := bs.db.ExecContext(ctx, `INSERT INTO message_bodies(account_email, message_id, body_text, updated_at)
VALUES(?,?,?,?)
ON CONFLICT(account_email, message_id) DO UPDATE SET body_text=excluded.body_text, updated_at=excluded.updated_at;
`, accountEmail, messageID, bodyText, time.Now().Unix())
	return err
}

// Load returns a cached body if present
func (bs *BodyCacheStore) Load(ctx context.Context, accountEmail, messageID string) (string, bool, error) {
	if bs == nil || bs.db == nil {
		return "", false, fmt.Errorf("body cache not initialized")
	}
	var out string
	err := bs.db.QueryRowContext(ctx, `SELECT body_text FROM message_bodies WHERE account_email=? AND message_id=?`, accountEmail, messageID).Scan(&out)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return out, true, nil
}

// Delete removes a cached body for (account_email, message_id)
func (bs *BodyCacheStore) Delete(ctx context.Context, accountEmail, messageID string) error {
	if bs == nil || bs.db == nil {
		return fmt.Errorf("body cache not initialized")
	}
	_, err := bs.db.ExecContext(ctx, `DELETE FROM message_bodies WHERE account_email=? AND message_id=?`, accountEmail, messageID)
	return err
}

// Prune drops bodies not touched since the given cutoff.
func (bs *BodyCacheStore) Prune(ctx context.Context, accountEmail string, olderThan time.Time) (int64, error) {
	if bs == nil || bs.db == nil {
		return 0, fmt.Errorf("body cache not initialized")
	}
	res, err := bs.db.ExecContext(ctx, `DELETE FROM message_bodies WHERE account_email=? AND updated_at < ?`, accountEmail, olderThan.Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
