package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/arbor/internal/adapters/file"
	"github.com/aretw0/arbor/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileCache_Contract(t *testing.T) {
	tests.TreeCacheContract(t, file.New(t.TempDir()))
}

func TestFileCache_Layout(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	c := file.New(dir)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "abc:4", []byte("{}")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files are cleaned up")
	assert.Equal(t, "abc_4.json", entries[0].Name())

	_, err = c.Get(ctx, "")
	assert.Error(t, err)
}

func TestFileCache_DefaultPath(t *testing.T) {
	assert.Equal(t, filepath.Join(".arbor", "cache"), file.New("").BasePath)
}
