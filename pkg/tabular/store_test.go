package tabular

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	pkgerrors "github.com/lastbite-ai/lastbite-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counter struct {
	Key   string
	Count int
}

type counterCodec struct{}

func (counterCodec) Columns() []string  { return []string{"key", "count"} }
func (counterCodec) Required() []string { return []string{"key"} }

func (counterCodec) Decode(r Row) (counter, error) {
	key := r.Get("key")
	if key == "" {
		return counter{}, errors.New("key is required")
	}
	n, err := strconv.Atoi(r.Get("count"))
	if err != nil {
		return counter{}, fmt.Errorf("count: %w", err)
	}
	return counter{Key: key, Count: n}, nil
}

func (counterCodec) Encode(c counter) []string {
	return []string{c.Key, strconv.Itoa(c.Count)}
}

type recordingObserver struct {
	mu    sync.Mutex
	calls []error
}

func (o *recordingObserver) ObservePersist(_ string, _ time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, err)
}

func appendIfAbsent(key string) func([]counter) ([]counter, bool, error) {
	return func(rows []counter) ([]counter, bool, error) {
		for _, r := range rows {
			if r.Key == key {
				return rows, false, nil
			}
		}
		return append(rows, counter{Key: key, Count: 1}), true, nil
	}
}

func TestStoreUpdatePersistsWholeTable(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend(nil)
	obs := &recordingObserver{}
	store := NewStore[counter]("counters", backend, counterCodec{}, WithObserver(obs))

	require.NoError(t, store.Update(ctx, appendIfAbsent("a")))
	require.NoError(t, store.Update(ctx, appendIfAbsent("b")))
	require.NoError(t, store.Update(ctx, appendIfAbsent("a")))

	snap := backend.Snapshot()
	require.NotNil(t, snap)
	assert.Equal(t, []string{"key", "count"}, snap.Columns)
	assert.Equal(t, [][]string{{"a", "1"}, {"b", "1"}}, snap.Rows)
	assert.Equal(t, 2, backend.Saves(), "no-op updates must not save")
	assert.Len(t, obs.calls, 2)

	all, err := store.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestStoreRollsBackOnFailedSave(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend(&Table{Columns: []string{"key", "count"}, Rows: [][]string{{"a", "1"}}})
	obs := &recordingObserver{}
	store := NewStore[counter]("counters", backend, counterCodec{}, WithObserver(obs))

	backend.FailSaves(errors.New("disk full"))
	err := store.Update(ctx, appendIfAbsent("b"))
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeStorage))
	require.Len(t, obs.calls, 1)
	assert.Error(t, obs.calls[0])

	all, err := store.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, []counter{{Key: "a", Count: 1}}, all, "cache must match what was persisted")

	backend.FailSaves(nil)
	require.NoError(t, store.Update(ctx, appendIfAbsent("b")))
	all, err = store.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestStoreMutationInsideCallbackDoesNotLeak(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend(&Table{Columns: []string{"key", "count"}, Rows: [][]string{{"a", "1"}}})
	store := NewStore[counter]("counters", backend, counterCodec{})

	err := store.Update(ctx, func(rows []counter) ([]counter, bool, error) {
		rows[0].Count = 99
		return nil, false, errors.New("abort")
	})
	require.Error(t, err)

	all, err := store.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, all[0].Count)
}

func TestStoreConcurrentCheckThenAppendKeepsKeysUnique(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend(nil)
	store := NewStore[counter]("counters", backend, counterCodec{})

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, store.Update(ctx, appendIfAbsent("same")))
		}()
	}
	wg.Wait()

	all, err := store.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
	assert.Equal(t, 1, backend.Saves())
}

func TestStoreReportsDecodeErrorsWithRowNumbers(t *testing.T) {
	backend := NewMemoryBackend(&Table{
		Columns: []string{"key", "count"},
		Rows:    [][]string{{"a", "1"}, {"b", "many"}, {"", "2"}},
	})
	store := NewStore[counter]("counters", backend, counterCodec{})

	_, err := store.All(context.Background())
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeStorage))
	assert.Contains(t, err.Error(), "row 3")
	assert.Contains(t, err.Error(), "row 4")
}

func TestStoreRejectsMissingRequiredColumns(t *testing.T) {
	backend := NewMemoryBackend(&Table{
		Columns: []string{"name", "count"},
		Rows:    [][]string{{"a", "1"}},
	})
	store := NewStore[counter]("counters", backend, counterCodec{})

	err := store.Ping(context.Background())
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	details, ok := typed.Details().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []string{"key"}, details["missing_columns"])
}

func TestStoreInvalidateAndReloadPickUpExternalWrites(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend(&Table{Columns: []string{"key", "count"}, Rows: [][]string{{"a", "1"}}})
	store := NewStore[counter]("counters", backend, counterCodec{})

	all, err := store.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)

	backend.Put(&Table{Columns: []string{"key", "count"}, Rows: [][]string{{"a", "1"}, {"z", "5"}}})

	all, err = store.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1, "cached copy is served until invalidated")

	store.Invalidate()
	all, err = store.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	backend.Put(&Table{Columns: []string{"key", "count"}, Rows: [][]string{{"q", "3"}}})
	require.NoError(t, store.Reload(ctx))
	found, ok, err := store.Find(ctx, func(c counter) bool { return c.Key == "q" })
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 3, found.Count)
}

func TestStoreWithFileBackend(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "counters.csv")
	store := NewStore[counter]("counters", NewFileBackend(path), counterCodec{})

	require.NoError(t, store.Ping(ctx), "missing file must load as an empty table")
	require.NoError(t, store.Update(ctx, appendIfAbsent("a")))

	fresh := NewStore[counter]("counters", NewFileBackend(path), counterCodec{})
	rows, err := fresh.Filter(ctx, func(c counter) bool { return c.Key == "a" })
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
