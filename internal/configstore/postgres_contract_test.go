package configstore_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/quantfabric/meridian/internal/configstore"
)

func TestLoadPostgresContract(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping postgres contract test in short mode")
	}
	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		Env:          map[string]string{"POSTGRES_PASSWORD": "secret", "POSTGRES_USER": "postgres", "POSTGRES_DB": "meridian"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("docker unavailable: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)
	dsn := fmt.Sprintf("postgres://postgres:secret@%s:%s/meridian?sslmode=disable", host, port.Port())

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, `CREATE TABLE market_defaults (key TEXT PRIMARY KEY, value TEXT NOT NULL)`)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `INSERT INTO market_defaults (key, value) VALUES
		('POS.PNL.DEFAULT_Horizon.ID1', '5D'),
		('POS.*.DEFAULT_Horizon', '1D')`)
	require.NoError(t, err)

	store, err := configstore.LoadPostgres(ctx, pool)
	require.NoError(t, err)
	require.Equal(t, 2, store.Len())

	value, ok := store.Lookup("POS.PNL.DEFAULT_Horizon.ID1")
	require.True(t, ok)
	require.Equal(t, "5D", value)
	require.Equal(t, []string{"POS.*.DEFAULT_Horizon", "POS.PNL.DEFAULT_Horizon.ID1"}, store.Keys())
}
