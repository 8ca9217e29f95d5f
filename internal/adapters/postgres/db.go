package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is satisfied by *pgxpool.Pool and pgx.Tx so repositories run inside
// or outside a transaction
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DBExecutor wraps the pool for repositories and migrations
type DBExecutor struct {
	pool *pgxpool.Pool
}

// NewDBExecutor creates a new PostgreSQL database executor
func NewDBExecutor(pool *pgxpool.Pool) *DBExecutor {
	return &DBExecutor{pool: pool}
}

// WithTransaction executes a function within a database transaction
// Transaction is explicitly passed to the callback function
func (db *DBExecutor) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// Store bundles the repositories over one pool
type Store struct {
	db *DBExecutor
}

// NewStore creates the repository set
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{db: NewDBExecutor(pool)}
}

// MealPlans returns the meal plan repository
func (s *Store) MealPlans() *MealPlanRepository { return &MealPlanRepository{db: s.db.pool} }

// Subscriptions returns the subscription repository
func (s *Store) Subscriptions() *SubscriptionRepository {
	return &SubscriptionRepository{db: s.db.pool}
}

// Orders returns the order repository
func (s *Store) Orders() *OrderRepository { return &OrderRepository{db: s.db.pool} }

// Notifications returns the notification repository
func (s *Store) Notifications() *NotificationRepository {
	return &NotificationRepository{db: s.db.pool}
}

// Directory returns the restaurant and customer lookup
func (s *Store) Directory() *Directory { return &Directory{db: s.db.pool} }

// Migrate applies the schema in one transaction
func (s *Store) Migrate(ctx context.Context) error {
	return s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		for i, stmt := range schema {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("migration step %d: %w", i+1, err)
			}
		}
		return nil
	})
}
