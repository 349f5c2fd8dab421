package setstore

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemSetStoreBasics(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	s := NewMemSetStore()
	ok, err := s.InSet(ctx, "banned-words", "damn")
	assert.NoError(err)
	assert.False(ok)

	s.Add("banned-words", "shit", "damn", "")
	ok, err = s.InSet(ctx, "banned-words", "damn")
	assert.NoError(err)
	assert.True(ok)

	vals, err := s.Values(ctx, "banned-words")
	assert.NoError(err)
	assert.Equal([]string{"damn", "shit"}, vals)

	vals, err = s.Values(ctx, "unknown")
	assert.NoError(err)
	assert.Empty(vals)
}

func TestMemSetStoreLoadFile(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	p := filepath.Join(t.TempDir(), "sets.json")
	require.NoError(t, os.WriteFile(p, []byte(`{"banned-words": ["heck", "darn"]}`), 0o644))

	s := NewMemSetStore()
	s.Add("banned-words", "shit")
	require.NoError(t, s.LoadFromFileJSON(p))

	vals, err := s.Values(ctx, "banned-words")
	assert.NoError(err)
	assert.Equal([]string{"darn", "heck"}, vals)

	assert.Error(s.LoadFromFileJSON(filepath.Join(t.TempDir(), "missing.json")))
}

func TestMemSetStoreConcurrent(t *testing.T) {
	ctx := context.Background()
	s := NewMemSetStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Add("words", "a", "b")
			_, _ = s.InSet(ctx, "words", "a")
			_, _ = s.Values(ctx, "words")
		}()
	}
	wg.Wait()

	vals, err := s.Values(ctx, "words")
	assert.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, vals)
}
