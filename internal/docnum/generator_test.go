package docnum

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memCounter struct {
	mu    sync.Mutex
	codes map[string][]string
}

func newMemCounter() *memCounter {
	return &memCounter{codes: make(map[string][]string)}
}

func (m *memCounter) CountCodes(ctx context.Context, orgID uuid.UUID, codePrefix string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, code := range m.codes[orgID.String()] {
		if len(code) >= len(codePrefix) && code[:len(codePrefix)] == codePrefix {
			n++
		}
	}
	return n, nil
}

func (m *memCounter) add(orgID uuid.UUID, code string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[orgID.String()] = append(m.codes[orgID.String()], code)
}

func TestFormat(t *testing.T) {
	day := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

	assert.Equal(t, "SR-20240115-0001", Format("SR", day, 1))
	assert.Equal(t, "CON-20240115-0042", Format("CON", day, 42))
	assert.Equal(t, "WO-20240115-9999", Format("WO", day, 9999))
	// Sequences past 9999 widen, never truncate.
	assert.Equal(t, "SO-20240115-10000", Format("SO", day, 10000))
}

func TestNextSequential(t *testing.T) {
	g := NewGenerator(nil)
	counter := newMemCounter()
	org := uuid.New()
	day := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)

	want := []string{
		"SR-20240115-0001",
		"SR-20240115-0002",
		"SR-20240115-0003",
		"SR-20240115-0004",
		"SR-20240115-0005",
	}
	for _, expected := range want {
		code, err := g.Next(context.Background(), counter, org, "SR", day)
		require.NoError(t, err)
		assert.Equal(t, expected, code)
		counter.add(org, code)
	}
}

func TestNextScopedByOrgPrefixAndDay(t *testing.T) {
	g := NewGenerator(nil)
	counter := newMemCounter()
	orgA := uuid.New()
	orgB := uuid.New()
	day := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)

	code, err := g.Next(context.Background(), counter, orgA, "SR", day)
	require.NoError(t, err)
	counter.add(orgA, code)

	// Another organization starts its own sequence.
	code, err = g.Next(context.Background(), counter, orgB, "SR", day)
	require.NoError(t, err)
	assert.Equal(t, "SR-20240115-0001", code)

	// Another prefix starts its own sequence inside the same organization.
	code, err = g.Next(context.Background(), counter, orgA, "CON", day)
	require.NoError(t, err)
	assert.Equal(t, "CON-20240115-0001", code)

	// The next day starts over.
	code, err = g.Next(context.Background(), counter, orgA, "SR", day.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, "SR-20240116-0001", code)
}

func TestLeaseSerializesConcurrentCreation(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	g := NewGenerator(client)
	counter := newMemCounter()
	org := uuid.New()
	day := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)

	// Seed four existing documents so both racers would compute -0005 without
	// the lease.
	for i := int64(1); i <= 4; i++ {
		counter.add(org, Format("SR", day, i))
	}

	var wg sync.WaitGroup
	results := make(chan string, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := g.Lease(context.Background(), org, "SR", day, func(ctx context.Context) error {
				code, err := g.Next(ctx, counter, org, "SR", day)
				if err != nil {
					return err
				}
				counter.add(org, code)
				results <- code
				return nil
			})
			require.NoError(t, err)
		}()
	}
	wg.Wait()
	close(results)

	seen := map[string]bool{}
	for code := range results {
		seen[code] = true
	}
	assert.True(t, seen["SR-20240115-0005"], "expected -0005 to be issued")
	assert.True(t, seen["SR-20240115-0006"], "expected -0006 to be issued, got %v", seen)
}

func TestLeaseReleasesKey(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	g := NewGenerator(client)
	org := uuid.New()
	day := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)

	err := g.Lease(context.Background(), org, "SR", day, func(ctx context.Context) error {
		return nil
	})
	require.NoError(t, err)

	exists := client.Exists(context.Background(), leaseKey(org, "SR", day)).Val()
	assert.Zero(t, exists)
}
