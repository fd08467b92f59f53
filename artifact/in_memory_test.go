package artifact

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingFetcher struct {
	calls int
	data  []byte
	err   error
}

func (f *countingFetcher) FileContent(_ context.Context, _ string) ([]byte, string, error) {
	f.calls++
	return f.data, "image/png", f.err
}

func TestInMemoryStore_SaveGetIsolation(t *testing.T) {
	store := NewInMemoryStore()
	data := []byte("hello")
	require.NoError(t, store.Save("s1", "f1", data, "text/plain"))

	data[0] = 'H'
	out, err := store.Get("s1", "f1")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(out.Data))
	assert.Equal(t, "text/plain", out.ContentType)

	out.Data[0] = 'x'
	out2, err := store.Get("s1", "f1")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(out2.Data))
}

func TestInMemoryStore_SniffsContentType(t *testing.T) {
	store := NewInMemoryStore()
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\x0dIHDR")
	require.NoError(t, store.Save("s1", "f1", png, ""))

	out, err := store.Get("s1", "f1")
	require.NoError(t, err)
	assert.Equal(t, "image/png", out.ContentType)
}

func TestInMemoryStore_RequiresIDs(t *testing.T) {
	store := NewInMemoryStore()
	assert.Error(t, store.Save("", "f1", nil, ""))
	assert.Error(t, store.Save("s1", "", nil, ""))
}

func TestInMemoryStore_SessionScoping(t *testing.T) {
	store := NewInMemoryStore()
	require.NoError(t, store.Save("s1", "f1", []byte("x"), "image/png"))

	_, err := store.Get("s2", "f1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInMemoryStore_ListAndDelete(t *testing.T) {
	store := NewInMemoryStore()
	require.NoError(t, store.Save("s1", "f1", []byte("1"), ""))
	require.NoError(t, store.Save("s1", "f2", []byte("2"), ""))
	assert.ElementsMatch(t, []string{"f1", "f2"}, store.List("s1"))

	require.NoError(t, store.Delete("s1", "f1"))
	_, err := store.Get("s1", "f1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.Delete("s1", "f1"), ErrNotFound)
	assert.ErrorIs(t, store.Delete("nope", "f1"), ErrNotFound)
	assert.Len(t, store.List("s1"), 1)

	store.DeleteSession("s1")
	assert.Empty(t, store.List("s1"))
}

func TestInMemoryStore_Fetch(t *testing.T) {
	store := NewInMemoryStore()
	fetcher := &countingFetcher{data: []byte("img")}

	f, err := store.Fetch(context.Background(), fetcher, "s1", "f1")
	require.NoError(t, err)
	assert.Equal(t, "img", string(f.Data))
	assert.Equal(t, "image/png", f.ContentType)

	_, err = store.Fetch(context.Background(), fetcher, "s1", "f1")
	require.NoError(t, err)
	assert.Equal(t, 1, fetcher.calls)
}

func TestInMemoryStore_FetchError(t *testing.T) {
	store := NewInMemoryStore()
	boom := errors.New("boom")
	fetcher := &countingFetcher{err: boom}

	_, err := store.Fetch(context.Background(), fetcher, "s1", "f1")
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, store.List("s1"))
}

func TestInMemoryStore_Concurrency(t *testing.T) {
	store := NewInMemoryStore()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, store.Save("s1", fmt.Sprintf("f%d", i%10), []byte("data"), ""))
			_ = store.List("s1")
		}(i)
	}
	wg.Wait()
	assert.Len(t, store.List("s1"), 10)
}
