package leaselock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	key string
	err error
}

func (r row) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*string)) = r.key
	return nil
}

// fakeDB keeps the lock table in memory. Expiry is ignored.
type fakeDB struct {
	mu      sync.Mutex
	holders map[string]string
	execs   int
}

func newFakeDB() *fakeDB {
	return &fakeDB{holders: map[string]string{}}
}

func (f *fakeDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	f.mu.Lock()
	defer f.mu.Unlock()

	key, token := args[0].(string), args[1].(string)
	holder, held := f.holders[key]
	switch sql {
	case tryAcquireSQL:
		if held && holder != token {
			return row{err: pgx.ErrNoRows}
		}
		f.holders[key] = token
		return row{key: key}
	case renewSQL:
		if !held || holder != token {
			return row{err: pgx.ErrNoRows}
		}
		return row{key: key}
	}
	return row{err: errors.New("unexpected query")}
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.execs++

	key, token := args[0].(string), args[1].(string)
	if f.holders[key] == token {
		delete(f.holders, key)
	}
	return pgconn.CommandTag{}, nil
}

func TestWithLease(t *testing.T) {
	db := newFakeDB()
	c := New(db)

	ran := false
	err := c.WithLease(context.Background(), DocumentKey("42"), Options{}, func(ctx context.Context) error {
		ran = true
		assert.Contains(t, db.holders, "document:42")
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
	assert.Empty(t, db.holders, "lease released")
	assert.Equal(t, 1, db.execs)
}

func TestAcquireBusy(t *testing.T) {
	db := newFakeDB()
	c := New(db)

	lease, err := c.Acquire(context.Background(), "k", Options{})
	require.NoError(t, err)
	defer lease.Release(context.Background())

	_, err = c.Acquire(context.Background(), "k", Options{})
	assert.ErrorIs(t, err, ErrBusy)
}

func TestAcquireWaitHonoursContext(t *testing.T) {
	db := newFakeDB()
	c := New(db)

	lease, err := c.Acquire(context.Background(), "k", Options{})
	require.NoError(t, err)
	defer lease.Release(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err = c.Acquire(ctx, "k", Options{Wait: true, WaitInterval: 5 * time.Millisecond})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAcquireEmptyKey(t *testing.T) {
	_, err := New(newFakeDB()).Acquire(context.Background(), "", Options{})
	assert.Error(t, err)
}

func TestLeaseLost(t *testing.T) {
	db := newFakeDB()
	c := New(db)

	lease, err := c.Acquire(context.Background(), "k", Options{TTL: 2 * time.Second, RenewEvery: 10 * time.Millisecond})
	require.NoError(t, err)
	defer lease.Release(context.Background())

	db.mu.Lock()
	db.holders["k"] = "someone-else"
	db.mu.Unlock()

	select {
	case <-lease.Context.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("lease context was not cancelled")
	}
	assert.ErrorIs(t, context.Cause(lease.Context), ErrLost)
}

func TestOptionsNormalize(t *testing.T) {
	o := Options{}.normalize()
	assert.Equal(t, 5*time.Minute, o.TTL)
	assert.Equal(t, 150*time.Second, o.RenewEvery)
	assert.Equal(t, 250*time.Millisecond, o.WaitInterval)

	o = Options{TTL: time.Second, RenewEvery: 2 * time.Second, WaitJitter: -1}.normalize()
	assert.Equal(t, time.Second, o.RenewEvery)
	assert.Equal(t, time.Duration(0), o.WaitJitter)
}
