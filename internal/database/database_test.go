package database

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

var svc Service

func TestMain(m *testing.M) {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpassword"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		log.Printf("could not start postgres container: %v", err)
		os.Exit(1)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		log.Printf("could not get connection string: %v", err)
		os.Exit(1)
	}

	svc, err = NewWithConnString(ctx, connStr)
	if err != nil {
		log.Printf("could not connect: %v", err)
		os.Exit(1)
	}

	code := m.Run()

	svc.Close()
	if err := container.Terminate(ctx); err != nil {
		log.Printf("could not terminate container: %v", err)
	}
	os.Exit(code)
}

func TestHealth(t *testing.T) {
	stats := svc.Health(context.Background())
	assert.Equal(t, "up", stats["status"])
	assert.Equal(t, "It's healthy", stats["message"])
}

func TestUpsertAndGetUser(t *testing.T) {
	ctx := context.Background()

	t.Run("Insert", func(t *testing.T) {
		user, err := svc.UpsertUser(ctx, "provider|1", "Alice")
		require.NoError(t, err)
		assert.Equal(t, "provider|1", user.Identity)
		assert.Equal(t, "Alice", user.DisplayName)
		assert.False(t, user.CreatedAt.IsZero())
	})

	t.Run("UpsertRefreshesDisplayName", func(t *testing.T) {
		first, err := svc.UpsertUser(ctx, "provider|2", "Old Name")
		require.NoError(t, err)

		second, err := svc.UpsertUser(ctx, "provider|2", "New Name")
		require.NoError(t, err)
		assert.Equal(t, "New Name", second.DisplayName)
		assert.Equal(t, first.CreatedAt, second.CreatedAt)
	})

	t.Run("Get", func(t *testing.T) {
		user, err := svc.GetUser(ctx, "provider|1")
		require.NoError(t, err)
		assert.Equal(t, "Alice", user.DisplayName)
	})

	t.Run("GetNotFound", func(t *testing.T) {
		_, err := svc.GetUser(ctx, "provider|ghost")
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}
