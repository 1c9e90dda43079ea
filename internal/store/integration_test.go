package store

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcmongodb "github.com/testcontainers/testcontainers-go/modules/mongodb"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

// Integration tests spin up real databases in containers. They are skipped
// unless CHATHUB_INTEGRATION is set, so the default test run needs no Docker.
func requireIntegration(t *testing.T) {
	t.Helper()
	if os.Getenv("CHATHUB_INTEGRATION") == "" {
		t.Skip("set CHATHUB_INTEGRATION=1 to run container-backed store tests")
	}
}

func TestPostgresStore(t *testing.T) {
	requireIntegration(t)
	ctx := context.Background()

	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("chathub"),
		tcpostgres.WithUsername("chathub"),
		tcpostgres.WithPassword("chathub"),
		tcpostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, testcontainers.TerminateContainer(ctr))
	})

	url, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	s, err := NewPostgreSQL(ctx, PostgreSQLConfig{URL: url, MaxConns: 4})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	testStoreSuite(t, s)
}

func TestMongoStore(t *testing.T) {
	requireIntegration(t)
	ctx := context.Background()

	ctr, err := tcmongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, testcontainers.TerminateContainer(ctr))
	})

	url, err := ctr.ConnectionString(ctx)
	require.NoError(t, err)

	s, err := NewMongoDB(ctx, MongoDBConfig{URL: url, Database: "chathub_test"})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	testStoreSuite(t, s)
}
