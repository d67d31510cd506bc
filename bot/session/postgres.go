package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// Postgres persists sessions in the sessions table so conversation state
// survives restarts. Contract and semantics match the Memory store; per-user
// ordering still comes from Locker, not the database.
type Postgres struct {
	db  *sqlx.DB
	ttl time.Duration
}

// NewPostgres wraps an open database handle. ttl <= 0 disables idle expiry.
func NewPostgres(db *sqlx.DB, ttl time.Duration) *Postgres {
	return &Postgres{db: db, ttl: ttl}
}

type sessionRow struct {
	UserID          int64     `db:"user_id"`
	IsAuthenticated bool      `db:"is_authenticated"`
	Token           string    `db:"token"`
	AwaitingInput   string    `db:"awaiting_input"`
	AuthData        []byte    `db:"auth_data"`
	TransferData    []byte    `db:"transfer_data"`
	UpdatedAt       time.Time `db:"updated_at"`
}

// GetOrCreate loads the user's session, inserting defaults on first contact.
// A row idle beyond the TTL is treated as fresh defaults.
func (p *Postgres) GetOrCreate(ctx context.Context, userID int64) (*Session, error) {
	var row sessionRow
	err := p.db.GetContext(ctx, &row,
		`SELECT user_id, is_authenticated, token, awaiting_input, auth_data, transfer_data, updated_at
		   FROM sessions WHERE user_id = $1`, userID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		sess := &Session{UserID: userID}
		if err := p.Save(ctx, sess); err != nil {
			return nil, err
		}
		return sess, nil
	case err != nil:
		return nil, fmt.Errorf("session: load user %d: %w", userID, err)
	}

	if p.ttl > 0 && time.Since(row.UpdatedAt) > p.ttl {
		sess := &Session{UserID: userID}
		if err := p.Save(ctx, sess); err != nil {
			return nil, err
		}
		return sess, nil
	}

	sess := &Session{
		UserID:        row.UserID,
		Authenticated: row.IsAuthenticated,
		Token:         row.Token,
		Awaiting:      AwaitingInput(row.AwaitingInput),
	}
	if len(row.AuthData) > 0 {
		var auth AuthData
		if err := json.Unmarshal(row.AuthData, &auth); err != nil {
			return nil, fmt.Errorf("session: decode auth data for user %d: %w", userID, err)
		}
		sess.Auth = &auth
	}
	if len(row.TransferData) > 0 {
		var tr Transfer
		if err := json.Unmarshal(row.TransferData, &tr); err != nil {
			return nil, fmt.Errorf("session: decode transfer data for user %d: %w", userID, err)
		}
		sess.Transfer = &tr
	}
	return sess, nil
}

// Save upserts the session.
func (p *Postgres) Save(ctx context.Context, sess *Session) error {
	if sess == nil {
		return errors.New("session: nil session")
	}
	// jsonb columns take text, not bytea, so marshalled JSON goes in as string.
	var authData, transferData any
	if sess.Auth != nil {
		data, err := json.Marshal(sess.Auth)
		if err != nil {
			return fmt.Errorf("session: encode auth data: %w", err)
		}
		authData = string(data)
	}
	if sess.Transfer != nil {
		data, err := json.Marshal(sess.Transfer)
		if err != nil {
			return fmt.Errorf("session: encode transfer data: %w", err)
		}
		transferData = string(data)
	}

	_, err := p.db.ExecContext(ctx,
		`INSERT INTO sessions (user_id, is_authenticated, token, awaiting_input, auth_data, transfer_data, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, now())
		 ON CONFLICT (user_id) DO UPDATE SET
		   is_authenticated = EXCLUDED.is_authenticated,
		   token            = EXCLUDED.token,
		   awaiting_input   = EXCLUDED.awaiting_input,
		   auth_data        = EXCLUDED.auth_data,
		   transfer_data    = EXCLUDED.transfer_data,
		   updated_at       = now()`,
		sess.UserID, sess.Authenticated, sess.Token, string(sess.Awaiting), authData, transferData)
	if err != nil {
		return fmt.Errorf("session: save user %d: %w", sess.UserID, err)
	}
	return nil
}

// Reset restores defaults in place, preserving the row.
func (p *Postgres) Reset(ctx context.Context, userID int64) error {
	sess := &Session{UserID: userID}
	return p.Save(ctx, sess)
}

// Len counts stored sessions.
func (p *Postgres) Len(ctx context.Context) (int, error) {
	var n int
	if err := p.db.GetContext(ctx, &n, `SELECT count(*) FROM sessions`); err != nil {
		return 0, fmt.Errorf("session: count: %w", err)
	}
	return n, nil
}
