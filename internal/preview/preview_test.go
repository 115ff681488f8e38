package preview

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeIndex(body string) Builder {
	return func(_ context.Context, outputDir string) error {
		if err := os.MkdirAll(outputDir, 0o750); err != nil {
			return err
		}
		return os.WriteFile(filepath.Join(outputDir, "index.html"), []byte(body), 0o600)
	}
}

func TestShouldIgnoreEvent(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/p/index.md", false},
		{"/p/_templates/default.html", false},
		{"/p/.hidden", true},
		{"/p/index.md~", true},
		{"/p/.index.md.swp", true},
		{"/p/index.md.swx", true},
		{"/p/#index.md#", true},
		{"/p/.#index.md", true},
		{"/p/.DS_Store", true},
		{"/p/Thumbs.db", true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, shouldIgnoreEvent(tt.path))
		})
	}
}

func TestIsOutput(t *testing.T) {
	s := New(Options{OutputDir: "/p/_output", Logger: quietLogger()}, writeIndex(""))
	assert.True(t, s.isOutput("/p/_output"))
	assert.True(t, s.isOutput("/p/_output/blog/post.html"))
	assert.True(t, s.isOutput("/p/_output.staging/index.html"))
	assert.False(t, s.isOutput("/p/index.md"))
	assert.False(t, s.isOutput("/p/_outputs/x"))
}

func TestRebuildDebouncer_Coalesces(t *testing.T) {
	req, trigger := setupRebuildDebouncer(20 * time.Millisecond)
	for range 5 {
		trigger()
	}

	select {
	case <-req:
	case <-time.After(time.Second):
		t.Fatal("debounced rebuild never fired")
	}
	select {
	case <-req:
		t.Fatal("expected a single rebuild request")
	case <-time.After(60 * time.Millisecond):
	}
}

func TestRebuild_PublishesAndKeepsOutputOnFailure(t *testing.T) {
	out := filepath.Join(t.TempDir(), "_output")

	var fail atomic.Bool
	body := "v1"
	build := func(ctx context.Context, dir string) error {
		if fail.Load() {
			require.NoError(t, os.MkdirAll(dir, 0o750))
			return errors.New("template exploded")
		}
		return writeIndex(body)(ctx, dir)
	}
	s := New(Options{OutputDir: out, Logger: quietLogger()}, build)

	s.Rebuild(context.Background())
	data, err := os.ReadFile(filepath.Join(out, "index.html"))
	require.NoError(t, err)
	assert.Equal(t, "v1", string(data))
	lastErr, good := s.Status()
	require.NoError(t, lastErr)
	assert.True(t, good)

	body = "v2"
	s.Rebuild(context.Background())
	data, err = os.ReadFile(filepath.Join(out, "index.html"))
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data))

	fail.Store(true)
	s.Rebuild(context.Background())
	data, err = os.ReadFile(filepath.Join(out, "index.html"))
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data), "failed build must not replace the output")
	assert.NoDirExists(t, out+StagingSuffix)
	lastErr, good = s.Status()
	require.Error(t, lastErr)
	assert.True(t, good)
}

func TestHandler_ServesOutput(t *testing.T) {
	out := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(out, "index.html"), []byte("hello"), 0o600))
	s := New(Options{OutputDir: out, Logger: quietLogger()}, writeIndex(""))

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello", rec.Body.String())
}

func TestServe_RebuildsOnChangeAndStops(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(root, "_output")
	var builds atomic.Int32
	build := func(ctx context.Context, dir string) error {
		builds.Add(1)
		return writeIndex("ok")(ctx, dir)
	}
	s := New(Options{
		OutputDir: out,
		WatchDirs: []string{root},
		Debounce:  10 * time.Millisecond,
		Logger:    quietLogger(),
	}, build)
	s.Rebuild(context.Background())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, getErr := http.Get("http://" + ln.Addr().String() + "/index.html") //nolint:noctx // test helper
		if getErr != nil {
			return false
		}
		defer func() { _ = resp.Body.Close() }()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(root, "index.md"), []byte("changed"), 0o600))
	require.Eventually(t, func() bool { return builds.Load() >= 2 }, 3*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(7 * time.Second):
		t.Fatal("preview server did not stop")
	}
}
