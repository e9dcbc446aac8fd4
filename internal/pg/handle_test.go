package pg

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireConnectsOnce(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectExec("create schema").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("create index").WillReturnResult(sqlmock.NewResult(0, 0))

	var opens atomic.Int32
	h := NewHandle(Options{AutoMigrate: true, Tables: []Table{JobTable("")}}, quietLog())
	h.open = func(context.Context, string) (*sqlx.DB, error) {
		opens.Add(1)
		time.Sleep(20 * time.Millisecond)
		return sqlx.NewDb(db, "pgx"), nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m, err := h.Acquire(context.Background())
			assert.NoError(t, err)
			assert.NotNil(t, m)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), opens.Load())
	m, err := h.Acquire(context.Background())
	require.NoError(t, err)
	s, err := m.Model("Job")
	require.NoError(t, err)
	assert.Equal(t, "Job", s.Name())

	_, err = m.Model("Account")
	assert.Error(t, err)

	require.NoError(t, mock.ExpectationsWereMet())
	mock.ExpectClose()
	require.NoError(t, h.Close())
}

func TestAcquireRetriesAfterFailure(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	refused := errors.New("connection refused")
	calls := 0
	h := NewHandle(Options{Tables: []Table{JobTable("")}}, quietLog())
	h.open = func(context.Context, string) (*sqlx.DB, error) {
		calls++
		if calls == 1 {
			return nil, refused
		}
		return sqlx.NewDb(db, "pgx"), nil
	}

	_, err = h.Acquire(context.Background())
	assert.ErrorIs(t, err, refused)

	m, err := h.Acquire(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, m)
	assert.Equal(t, 2, calls)
}

func TestCloseWithoutConnection(t *testing.T) {
	assert.NoError(t, NewHandle(Options{}, quietLog()).Close())
}
