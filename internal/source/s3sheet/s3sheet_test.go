package s3sheet

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/eventmap/internal/core"
)

// mockS3 is an in-memory path-style S3 endpoint serving GetObject.
type mockS3 struct {
	mu      sync.Mutex
	objects map[string][]byte // "bucket/key" -> body
	paths   []string
}

func (m *mockS3) RoundTrip(req *http.Request) (*http.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	path := strings.TrimPrefix(req.URL.Path, "/")
	m.paths = append(m.paths, path)

	if req.Method != http.MethodGet {
		return &http.Response{StatusCode: http.StatusNotImplemented, Body: io.NopCloser(bytes.NewReader(nil)), Header: http.Header{}}, nil
	}
	body, ok := m.objects[path]
	if !ok {
		xml := `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`
		return &http.Response{
			StatusCode: http.StatusNotFound,
			Body:       io.NopCloser(strings.NewReader(xml)),
			Header:     http.Header{"Content-Type": {"application/xml"}},
		}, nil
	}
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(bytes.NewReader(body)),
		Header: http.Header{
			"Content-Length": {fmt.Sprintf("%d", len(body))},
			"Content-Type":   {"text/csv"},
			"ETag":           {"\"etag\""},
		},
	}, nil
}

func newTestLoader(t *testing.T, objects map[string][]byte) (*Loader, *mockS3) {
	t.Helper()
	rt := &mockS3{objects: objects}
	l, err := New(context.Background(), Config{
		Bucket:          "sheets",
		Prefix:          "exports/",
		Region:          "us-east-1",
		Endpoint:        "https://mock.s3.local",
		AccessKeyID:     "AKIA",
		SecretAccessKey: "SECRET",
		PathStyle:       true,
		HTTPClient:      &http.Client{Transport: rt},
	})
	require.NoError(t, err)
	return l, rt
}

func TestLoader_LoadSheet(t *testing.T) {
	l, rt := newTestLoader(t, map[string][]byte{
		"sheets/exports/Events.csv": append([]byte{0xEF, 0xBB, 0xBF}, []byte("EVID,BIOID\nEV001,BCO1\nEV002,BMU1\n")...),
	})

	tbl, err := l.LoadSheet(context.Background(), core.SheetEvents)
	require.NoError(t, err)

	assert.Equal(t, []string{"EVID", "BIOID"}, tbl.Columns)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, "BMU1", tbl.Rows[1]["BIOID"])
	assert.Contains(t, rt.paths, "sheets/exports/Events.csv")
}

func TestLoader_MissingObject(t *testing.T) {
	l, _ := newTestLoader(t, map[string][]byte{})

	_, err := l.LoadSheet(context.Background(), core.SheetLocations)
	assert.ErrorIs(t, err, core.ErrSheetNotFound)
}

func TestLoader_Key(t *testing.T) {
	l := NewWithClient(nil, "b", "p/")
	assert.Equal(t, "p/Bio_Musicians.csv", l.Key(core.SheetMusicians))
}

func TestNew_RequiresBucket(t *testing.T) {
	_, err := New(context.Background(), Config{})
	assert.Error(t, err)
}
