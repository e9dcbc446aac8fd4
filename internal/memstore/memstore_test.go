package memstore

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobsapi/internal/crud"
)

func TestStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	s := New("Job")

	a, err := s.Create(ctx, map[string]any{"job_name__c": "a", "isdeleted": false})
	require.NoError(t, err)
	b, err := s.Create(ctx, map[string]any{"job_name__c": "b", "isdeleted": false})
	require.NoError(t, err)
	assert.Equal(t, int64(1), a.ID())
	assert.Equal(t, int64(2), b.ID())
	assert.NotNil(t, a["createddate"])

	got, err := s.FindOne(ctx, crud.Filter{ID: 2})
	require.NoError(t, err)
	assert.Equal(t, "b", got["job_name__c"])

	_, err = s.Save(ctx, a, map[string]any{"isdeleted": true, "id": int64(99)})
	require.NoError(t, err)

	live, err := s.FindMany(ctx, crud.Filter{})
	require.NoError(t, err)
	require.Len(t, live, 1)
	assert.Equal(t, int64(2), live[0].ID())

	gone, err := s.FindOne(ctx, crud.Filter{ID: 1})
	require.NoError(t, err)
	assert.Nil(t, gone)

	deleted, err := s.Exists(ctx, crud.Filter{ID: 1, Deleted: true})
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = s.Exists(ctx, crud.Filter{ID: 2, Deleted: true})
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestRowsWithoutFlagCountAsLive(t *testing.T) {
	ctx := context.Background()
	s := New("Job")
	_, err := s.Create(ctx, map[string]any{"job_name__c": "legacy"})
	require.NoError(t, err)

	e, err := s.FindOne(ctx, crud.Filter{ID: 1})
	require.NoError(t, err)
	assert.NotNil(t, e)
}

func TestReturnedRowsAreCopies(t *testing.T) {
	ctx := context.Background()
	s := New("Job")
	e, err := s.Create(ctx, map[string]any{"job_name__c": "a"})
	require.NoError(t, err)

	e["job_name__c"] = "mutated"
	got, err := s.FindOne(ctx, crud.Filter{ID: e.ID()})
	require.NoError(t, err)
	assert.Equal(t, "a", got["job_name__c"])
}

func TestSaveUnknownRow(t *testing.T) {
	_, err := New("Job").Save(context.Background(), crud.Entity{"id": int64(7)}, map[string]any{})
	assert.Error(t, err)
}

func TestConcurrentCreatesGetDistinctIDs(t *testing.T) {
	ctx := context.Background()
	s := New("Job")

	var wg sync.WaitGroup
	ids := make(chan int64, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e, err := s.Create(ctx, map[string]any{})
			if err == nil {
				ids <- e.ID()
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[int64]bool{}
	for id := range ids {
		assert.False(t, seen[id])
		seen[id] = true
	}
	assert.Len(t, seen, 50)
}

func TestModels(t *testing.T) {
	m := NewModels("Job")
	s, err := m.Model("Job")
	require.NoError(t, err)
	assert.Equal(t, "Job", s.Name())

	_, err = m.Model("Account")
	assert.Error(t, err)

	got, err := m.Acquire(context.Background())
	require.NoError(t, err)
	assert.Same(t, m, got)
}
