package account

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

const (
	// DefaultCredits is the starting balance for a newly provisioned user.
	DefaultCredits = 10
	// DefaultPlan is the entitlement a new user starts on.
	DefaultPlan = "free"
	// DefaultPlanStatus is the initial entitlement status.
	DefaultPlanStatus = "active"
)

// Profile is the resolved account state returned to the caller.
type Profile struct {
	Plan    string `json:"plan"`
	Status  string `json:"status"`
	Balance int    `json:"balance"`
}

// Store ensures account rows exist and reads back the resolved state.
type Store struct {
	db *sql.DB
}

// NewStore wraps an open database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}
	return db, nil
}

// EnsureUser idempotently creates the three backing rows for a user
// (profile, credit balance, entitlement) without overwriting existing
// values, then returns the resolved state. Calling it twice never changes a
// non-default balance or plan.
func (s *Store) EnsureUser(ctx context.Context, userID, email string) (*Profile, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO profiles (user_id, email) VALUES ($1, $2)
		 ON CONFLICT (user_id) DO NOTHING`,
		userID, email,
	); err != nil {
		return nil, fmt.Errorf("failed to ensure profile: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO credit_balances (user_id, balance) VALUES ($1, $2)
		 ON CONFLICT (user_id) DO NOTHING`,
		userID, DefaultCredits,
	); err != nil {
		return nil, fmt.Errorf("failed to ensure credit balance: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO entitlements (user_id, plan, status) VALUES ($1, $2, $3)
		 ON CONFLICT (user_id) DO NOTHING`,
		userID, DefaultPlan, DefaultPlanStatus,
	); err != nil {
		return nil, fmt.Errorf("failed to ensure entitlement: %w", err)
	}

	var p Profile
	if err := tx.QueryRowContext(ctx,
		`SELECT e.plan, e.status, c.balance
		 FROM entitlements e
		 JOIN credit_balances c ON c.user_id = e.user_id
		 WHERE e.user_id = $1`,
		userID,
	).Scan(&p.Plan, &p.Status, &p.Balance); err != nil {
		return nil, fmt.Errorf("failed to resolve account state: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	return &p, nil
}
