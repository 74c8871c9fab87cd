package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/code19m/errx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"filedrop/internal/blob"
	"filedrop/internal/catalog"
	"filedrop/internal/logger"
	"filedrop/internal/metadata"
)

// memMetadataStore is a minimal in-memory metadata.Store for handler tests.
type memMetadataStore struct {
	mu      sync.Mutex
	records []*metadata.FileRecord
	pingErr error
}

func (m *memMetadataStore) Insert(ctx context.Context, rec *metadata.FileRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

func (m *memMetadataStore) GetByID(ctx context.Context, id string) (*metadata.FileRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range m.records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return nil, errx.New("not found", errx.WithCode(metadata.CodeRecordNotFound), errx.WithType(errx.T_NotFound))
}

func (m *memMetadataStore) ListAll(ctx context.Context) ([]*metadata.FileRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*metadata.FileRecord, 0, len(m.records))
	for i := len(m.records) - 1; i >= 0; i-- {
		out = append(out, m.records[i])
	}
	return out, nil
}

func (m *memMetadataStore) Ping(ctx context.Context) error  { return m.pingErr }
func (m *memMetadataStore) Close(ctx context.Context) error { return nil }

func newTestServer(t *testing.T) (*Server, *memMetadataStore) {
	t.Helper()

	blobs, err := blob.NewLocalStore(blob.LocalConfig{RootDir: filepath.Join(t.TempDir(), "blobs")})
	require.NoError(t, err)

	records := &memMetadataStore{}
	cat := catalog.New(blobs, records, 10*1024*1024)

	lg, err := logger.New(logger.Config{Disable: true})
	require.NoError(t, err)

	return NewServer(Config{
		Address:      "127.0.0.1:0",
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		BodyLimit:    16 * 1024 * 1024,
		CORSOrigin:   "http://localhost:3000",
	}, cat, lg), records
}

func multipartUpload(t *testing.T, filename string, content []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeJSON[T any](t *testing.T, r io.Reader) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(r).Decode(&v))
	return v
}

func TestUploadListDownloadFlow(t *testing.T) {
	srv, _ := newTestServer(t)
	content := []byte("hello over http")

	resp, err := srv.app.Test(multipartUpload(t, "hello.txt", content), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	uploaded := decodeJSON[struct {
		FileID   string `json:"file_id"`
		Filename string `json:"filename"`
		Size     int64  `json:"size"`
	}](t, resp.Body)
	resp.Body.Close()

	assert.NotEmpty(t, uploaded.FileID)
	assert.Equal(t, "hello.txt", uploaded.Filename)
	assert.Equal(t, int64(len(content)), uploaded.Size)

	resp, err = srv.app.Test(httptest.NewRequest(http.MethodGet, "/api/files", nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	files := decodeJSON[[]struct {
		FileID   string `json:"file_id"`
		Filename string `json:"filename"`
	}](t, resp.Body)
	resp.Body.Close()

	require.Len(t, files, 1)
	assert.Equal(t, uploaded.FileID, files[0].FileID)

	resp, err = srv.app.Test(httptest.NewRequest(http.MethodGet, "/api/download/"+uploaded.FileID, nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, content, body)
	assert.Equal(t, "text/plain", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), `filename="hello.txt"`)
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	srv, records := newTestServer(t)

	resp, err := srv.app.Test(multipartUpload(t, "image.gif", []byte("gif bytes")), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	errResp := decodeJSON[struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}](t, resp.Body)
	resp.Body.Close()

	assert.Equal(t, catalog.CodeUnsupportedType, errResp.Error.Code)
	assert.Empty(t, records.records)
}

func TestUploadRequiresFileField(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/upload", nil)
	resp, err := srv.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestDownloadUnknownIDReturns404(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := srv.app.Test(httptest.NewRequest(http.MethodGet, "/api/download/nonexistent-id", nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	errResp := decodeJSON[struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}](t, resp.Body)
	resp.Body.Close()

	assert.Equal(t, catalog.CodeFileNotFound, errResp.Error.Code)
}

func TestHealthEndpoint(t *testing.T) {
	srv, records := newTestServer(t)

	resp, err := srv.app.Test(httptest.NewRequest(http.MethodGet, "/api/health", nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	health := decodeJSON[struct {
		Status     string `json:"status"`
		Components map[string]struct {
			Status string `json:"status"`
		} `json:"components"`
	}](t, resp.Body)
	resp.Body.Close()

	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "healthy", health.Components["mongodb"].Status)
	assert.Equal(t, "healthy", health.Components["storage"].Status)

	// A degraded dependency flips the endpoint to 503.
	records.pingErr = errors.New("no reachable servers")

	resp, err = srv.app.Test(httptest.NewRequest(http.MethodGet, "/api/health", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	degraded := decodeJSON[struct {
		Status     string `json:"status"`
		Components map[string]struct {
			Status string `json:"status"`
			Error  string `json:"error"`
		} `json:"components"`
	}](t, resp.Body)
	resp.Body.Close()

	assert.Equal(t, "unhealthy", degraded.Status)
	assert.Equal(t, "unhealthy", degraded.Components["mongodb"].Status)
	assert.Equal(t, "healthy", degraded.Components["storage"].Status)
}
