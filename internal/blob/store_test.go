package blob

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/code19m/errx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testStoreContract asserts the behavior every Store implementation must
// provide.
func testStoreContract(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("put then get returns identical bytes", func(t *testing.T) {
		content := []byte("some file content with a few bytes")

		written, err := store.Put(ctx, "contract-roundtrip.txt", bytes.NewReader(content), int64(len(content)), "text/plain")
		require.NoError(t, err)
		assert.Equal(t, int64(len(content)), written)

		r, err := store.Get(ctx, "contract-roundtrip.txt")
		require.NoError(t, err)
		defer r.Close()

		data, err := io.ReadAll(r)
		require.NoError(t, err)
		assert.Equal(t, content, data)
	})

	t.Run("get on unwritten key reports not found", func(t *testing.T) {
		_, err := store.Get(ctx, "contract-never-written.txt")
		require.Error(t, err)
		assert.True(t, errx.IsCodeIn(err, CodeBlobNotFound), "expected %s, got %v", CodeBlobNotFound, err)
	})

	t.Run("delete removes the blob", func(t *testing.T) {
		content := []byte("to be deleted")
		_, err := store.Put(ctx, "contract-delete.txt", bytes.NewReader(content), int64(len(content)), "text/plain")
		require.NoError(t, err)

		require.NoError(t, store.Delete(ctx, "contract-delete.txt"))

		_, err = store.Get(ctx, "contract-delete.txt")
		assert.True(t, errx.IsCodeIn(err, CodeBlobNotFound))
	})

	t.Run("delete on missing key is not an error", func(t *testing.T) {
		assert.NoError(t, store.Delete(ctx, "contract-missing.txt"))
	})

	t.Run("ping succeeds", func(t *testing.T) {
		assert.NoError(t, store.Ping(ctx))
	})
}

func TestLocalStoreContract(t *testing.T) {
	store, err := NewLocalStore(LocalConfig{RootDir: filepath.Join(t.TempDir(), "blobs")})
	require.NoError(t, err)
	testStoreContract(t, store)
}

func TestMinioStoreContract(t *testing.T) {
	endpoint := os.Getenv("MINIO_ENDPOINT")
	if endpoint == "" {
		t.Skip("MINIO_ENDPOINT not set, skipping minio integration test")
	}

	store, err := NewMinioStore(context.Background(), MinioConfig{
		Endpoint:        endpoint,
		AccessKeyID:     os.Getenv("MINIO_ACCESS_KEY"),
		SecretAccessKey: os.Getenv("MINIO_SECRET_KEY"),
		Bucket:          "filedrop-test",
	})
	require.NoError(t, err)
	testStoreContract(t, store)
}

func TestNewLocalStoreCreatesRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested", "blobs")

	store, err := NewLocalStore(LocalConfig{RootDir: root})
	require.NoError(t, err)

	info, err := os.Stat(root)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.NoError(t, store.Ping(context.Background()))
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("source stream broke")
}

func TestLocalStorePutIsAtomic(t *testing.T) {
	root := filepath.Join(t.TempDir(), "blobs")
	store, err := NewLocalStore(LocalConfig{RootDir: root})
	require.NoError(t, err)
	ctx := context.Background()

	// A failed write must leave neither the final file nor a temp file.
	_, err = store.Put(ctx, "broken.txt", failingReader{}, -1, "text/plain")
	require.Error(t, err)

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries, "no partial or temp files may remain")

	// A successful write leaves exactly the final file.
	_, err = store.Put(ctx, "ok.txt", strings.NewReader("fine"), 4, "text/plain")
	require.NoError(t, err)

	entries, err = os.ReadDir(root)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "ok.txt", entries[0].Name())
}

func TestLocalStoreRejectsUnsafeKeys(t *testing.T) {
	store, err := NewLocalStore(LocalConfig{RootDir: t.TempDir()})
	require.NoError(t, err)
	ctx := context.Background()

	for _, key := range []string{"", ".", "..", "../escape.txt", "a/b.txt", `a\b.txt`} {
		t.Run("key "+key, func(t *testing.T) {
			_, err := store.Put(ctx, key, strings.NewReader("x"), 1, "text/plain")
			assert.Error(t, err)

			_, err = store.Get(ctx, key)
			assert.Error(t, err)
		})
	}
}

func TestLocalStorePutOverwritesExistingKey(t *testing.T) {
	store, err := NewLocalStore(LocalConfig{RootDir: t.TempDir()})
	require.NoError(t, err)
	ctx := context.Background()

	_, err = store.Put(ctx, "k.txt", strings.NewReader("old"), 3, "text/plain")
	require.NoError(t, err)
	_, err = store.Put(ctx, "k.txt", strings.NewReader("new content"), 11, "text/plain")
	require.NoError(t, err)

	r, err := store.Get(ctx, "k.txt")
	require.NoError(t, err)
	defer r.Close()

	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "new content", string(data))
}
