package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PostgresConn owns the pgx pool behind a migrated, prepared PostgresStore.
type PostgresConn struct {
	*PostgresStore
	pool *pgxpool.Pool
	db   *sql.DB
}

// ConnectPostgres opens the pool, applies migrations and prepares every
// statement.
func ConnectPostgres(ctx context.Context, dsn string) (*PostgresConn, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	db := stdlib.OpenDBFromPool(pool)
	if err := Migrate(ctx, db); err != nil {
		db.Close()
		pool.Close()
		return nil, err
	}
	s := NewPostgresStore(db)
	if err := s.Prepare(ctx); err != nil {
		db.Close()
		pool.Close()
		return nil, err
	}
	return &PostgresConn{PostgresStore: s, pool: pool, db: db}, nil
}

// Close releases the statements, the database handle and the pool.
func (c *PostgresConn) Close() error {
	err := c.PostgresStore.Close()
	c.db.Close()
	c.pool.Close()
	return err
}

// ConnectJournal connects to MongoDB and returns a journal with its
// indexes in place. The returned client must be disconnected by the caller.
func ConnectJournal(ctx context.Context, uri, database string) (*JournalStore, *mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}
	j := NewJournalStore(client.Database(database))
	if err := j.EnsureIndexes(ctx); err != nil {
		client.Disconnect(ctx)
		return nil, nil, err
	}
	return j, client, nil
}
