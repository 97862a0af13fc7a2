package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/joho/godotenv/autoload"
)

// User is a persisted account row, keyed by the external identity the
// auth provider reports.
type User struct {
	Identity    string
	DisplayName string
	CreatedAt   time.Time
}

var ErrUserNotFound = errors.New("user not found")

// Service represents a service that interacts with a database.
type Service interface {
	// Health returns a map of health status information.
	// The keys and values in the map are service-specific.
	Health(ctx context.Context) map[string]string

	// UpsertUser creates the user row for an identity or refreshes its
	// display name on repeat logins.
	UpsertUser(ctx context.Context, identity, displayName string) (*User, error)

	// GetUser fetches a user by identity.
	GetUser(ctx context.Context, identity string) (*User, error)

	// Close terminates the database connection.
	Close()
}

type service struct {
	pool *pgxpool.Pool
}

var (
	database   = os.Getenv("TUNECLASH_DB_DATABASE")
	password   = os.Getenv("TUNECLASH_DB_PASSWORD")
	username   = os.Getenv("TUNECLASH_DB_USERNAME")
	port       = os.Getenv("TUNECLASH_DB_PORT")
	host       = os.Getenv("TUNECLASH_DB_HOST")
	schema     = os.Getenv("TUNECLASH_DB_SCHEMA")
	dbInstance *service
)

func New() Service {
	// Reuse Connection
	if dbInstance != nil {
		return dbInstance
	}
	connStr := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable&search_path=%s",
		username, password, host, port, database, schema)

	pool, err := pgxpool.New(context.Background(), connStr)
	if err != nil {
		log.Fatal(err)
	}
	dbInstance = &service{pool: pool}

	if err := dbInstance.ensureSchema(context.Background()); err != nil {
		log.Fatalf("[New] schema setup failed: %v", err)
	}
	return dbInstance
}

// NewWithConnString builds a service from an explicit connection string.
// Used by tests running against a throwaway container.
func NewWithConnString(ctx context.Context, connStr string) (Service, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, err
	}
	s := &service{pool: pool}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *service) ensureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			identity     TEXT PRIMARY KEY,
			display_name TEXT NOT NULL,
			created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	return err
}

// Health checks the health of the database connection by pinging the database.
// It returns a map with keys indicating various health statistics.
func (s *service) Health(ctx context.Context) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()

	stats := make(map[string]string)

	err := s.pool.Ping(ctx)
	if err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db down: %v", err)
		log.Printf("[Health] db down: %v", err)
		return stats
	}

	stats["status"] = "up"
	stats["message"] = "It's healthy"

	poolStats := s.pool.Stat()
	stats["total_connections"] = fmt.Sprintf("%d", poolStats.TotalConns())
	stats["idle_connections"] = fmt.Sprintf("%d", poolStats.IdleConns())
	stats["acquired_connections"] = fmt.Sprintf("%d", poolStats.AcquiredConns())

	return stats
}

func (s *service) UpsertUser(ctx context.Context, identity, displayName string) (*User, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO users (identity, display_name)
		VALUES ($1, $2)
		ON CONFLICT (identity) DO UPDATE SET display_name = EXCLUDED.display_name
		RETURNING identity, display_name, created_at`,
		identity, displayName)

	var u User
	if err := row.Scan(&u.Identity, &u.DisplayName, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *service) GetUser(ctx context.Context, identity string) (*User, error) {
	row := s.pool.QueryRow(ctx,
		"SELECT identity, display_name, created_at FROM users WHERE identity = $1", identity)

	var u User
	if err := row.Scan(&u.Identity, &u.DisplayName, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Close closes the database connection.
// It logs a message indicating the disconnection from the specific database.
// If the connection is successfully closed, it returns nil.
// If an error occurs while closing the connection, it returns the error.
func (s *service) Close() {
	log.Printf("Disconnected from database: %s", database)
	s.pool.Close()
}
