package blob

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/code19m/errx"
)

// LocalConfig holds the settings for the local-filesystem backend.
type LocalConfig struct {
	// RootDir is the directory blobs are stored under. Created on first use.
	RootDir string `yaml:"root_dir" default:"./uploads"`
}

// LocalStore stores blobs as files under a root directory, one file per key.
type LocalStore struct {
	root string
}

// NewLocalStore creates the root directory if absent and returns the store.
func NewLocalStore(cfg LocalConfig) (*LocalStore, error) {
	root := cfg.RootDir
	if root == "" {
		root = "./uploads"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errx.New("failed to create storage root", errx.WithDetails(errx.D{"root": root, "error": err}))
	}
	return &LocalStore{root: root}, nil
}

// Put writes the content to a temporary file and renames it into place, so
// a crash mid-write never leaves a partial file visible under the final key.
func (s *LocalStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (int64, error) {
	if err := validateKey(key); err != nil {
		return 0, err
	}

	tmp, err := os.CreateTemp(s.root, ".put-*")
	if err != nil {
		return 0, errx.Wrap(err)
	}

	written, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return 0, errx.Wrap(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return 0, errx.Wrap(err)
	}

	if err := os.Rename(tmp.Name(), filepath.Join(s.root, key)); err != nil {
		os.Remove(tmp.Name())
		return 0, errx.Wrap(err)
	}

	return written, nil
}

func (s *LocalStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	f, err := os.Open(filepath.Join(s.root, key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errx.New(
				"blob not found",
				errx.WithCode(CodeBlobNotFound),
				errx.WithType(errx.T_NotFound),
				errx.WithDetails(errx.D{"key": key}),
			)
		}
		return nil, errx.Wrap(err)
	}
	return f, nil
}

func (s *LocalStore) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	err := os.Remove(filepath.Join(s.root, key))
	if err != nil && !os.IsNotExist(err) {
		return errx.Wrap(err)
	}
	return nil
}

func (s *LocalStore) Ping(ctx context.Context) error {
	info, err := os.Stat(s.root)
	if err != nil {
		return errx.New("storage root not accessible", errx.WithDetails(errx.D{"root": s.root, "error": err}))
	}
	if !info.IsDir() {
		return errx.New("storage root is not a directory", errx.WithDetails(errx.D{"root": s.root}))
	}
	return nil
}

// validateKey rejects keys that could escape the root directory. Keys are
// generated internally, so hitting this indicates a programming error.
func validateKey(key string) error {
	if key == "" || key == "." || key == ".." ||
		strings.ContainsAny(key, `/\`) {
		return errx.New("invalid blob key", errx.WithDetails(errx.D{"key": key}))
	}
	return nil
}
