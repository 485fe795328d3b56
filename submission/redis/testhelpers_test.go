//go:build integration

package redis_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/marcelsud/lead-relay/submission/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	testcontainersredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

// testBackend is a throwaway Redis with the repository under test and a raw
// client for asserting on keys directly
type testBackend struct {
	repo   *redis.Repository
	client *goredis.Client
}

// newTestBackend starts redis:7-alpine; everything is torn down with the test
func newTestBackend(t *testing.T) *testBackend {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainersredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err, "starting redis container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("terminating redis container: %v", err)
		}
	})

	conn, err := container.ConnectionString(ctx)
	require.NoError(t, err, "reading redis connection string")
	addr := strings.TrimPrefix(conn, "redis://")

	repo, err := redis.NewRepository(addr, "", 0)
	require.NoError(t, err, "connecting repository")
	t.Cleanup(func() { repo.Close(context.Background()) })

	client := goredis.NewClient(&goredis.Options{Addr: addr})
	t.Cleanup(func() { client.Close() })

	return &testBackend{repo: repo, client: client}
}

func (b *testBackend) exists(t *testing.T, key string) bool {
	t.Helper()
	n, err := b.client.Exists(context.Background(), key).Result()
	require.NoError(t, err)
	return n > 0
}

// uniqueID keeps ids distinct across subtests sharing a container
func uniqueID(n int) string {
	return fmt.Sprintf("sub-%d-%d", n, time.Now().UnixNano())
}
