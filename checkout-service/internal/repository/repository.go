package repository

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	d "github.com/sheldonroth/sheldonroth/checkout-service/domain"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var ErrSessionNotFound = errors.New("checkout session not found")

// CheckoutSession is one payment session handed out to a customer.
// Amounts are in minor units.
type CheckoutSession struct {
	ID          string
	ItemCount   int64
	AmountTotal int64
	Currency    string
	Snapshot    *d.CartSnapshot
	CreatedAt   time.Time
}

type Repository struct {
	db *sql.DB
}

// NewRepository connects to postgres using a URL or key/value DSN.
func NewRepository(ctx context.Context, dsn string) (*Repository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if e2 := db.PingContext(ctx); e2 != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", e2)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	return &Repository{db: db}, nil
}

func (r *Repository) RunMigrations() error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("could not open embedded migrations: %w", err)
	}

	driver, err := postgres.WithInstance(r.db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if e2 := m.Up(); e2 != nil && !errors.Is(e2, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", e2)
	}

	return nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) CreateCheckoutSession(ctx context.Context, session *CheckoutSession) error {
	snapshot, err := json.Marshal(session.Snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode cart snapshot: %w", err)
	}

	createdAt := session.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	query := `INSERT INTO checkout_sessions (id, item_count, amount_total, currency, cart_snapshot, created_at)
              VALUES ($1, $2, $3, $4, $5, $6)`
	_, err = r.db.ExecContext(ctx, query,
		session.ID,
		session.ItemCount,
		session.AmountTotal,
		session.Currency,
		snapshot,
		createdAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert checkout session: %w", err)
	}
	return nil
}

func (r *Repository) GetCheckoutSession(ctx context.Context, id string) (*CheckoutSession, error) {
	query := `SELECT id, item_count, amount_total, currency, cart_snapshot, created_at
              FROM checkout_sessions WHERE id = $1`

	var (
		session  CheckoutSession
		snapshot []byte
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&session.ID,
		&session.ItemCount,
		&session.AmountTotal,
		&session.Currency,
		&snapshot,
		&session.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get checkout session: %w", err)
	}

	session.Snapshot = &d.CartSnapshot{}
	if err := json.Unmarshal(snapshot, session.Snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode cart snapshot: %w", err)
	}
	return &session, nil
}
