package download

import (
	"bytes"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func init() {
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
}

// randomBytes returns size deterministic pseudo-random bytes so resumed and
// restarted downloads can be compared against the full content.
func randomBytes(size int) []byte {
	rnd := rand.New(rand.NewSource(99))
	data := make([]byte, size)
	rnd.Read(data)
	return data
}

// countingFileServer serves content with full range support and records every
// request it sees.
type countingFileServer struct {
	content []byte
	modTime time.Time

	mu           sync.Mutex
	heads        int
	gets         int
	rangeHeaders []string
}

func (s *countingFileServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	switch r.Method {
	case http.MethodHead:
		s.heads++
	case http.MethodGet:
		s.gets++
		s.rangeHeaders = append(s.rangeHeaders, r.Header.Get("Range"))
	}
	s.mu.Unlock()

	modTime := s.modTime
	if modTime.IsZero() {
		modTime = time.Unix(1445412480, 0)
	}
	http.ServeContent(w, r, "file.bin", modTime, bytes.NewReader(s.content))
}

func (s *countingFileServer) getCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gets
}

func (s *countingFileServer) lastRange() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.rangeHeaders) == 0 {
		return ""
	}
	return s.rangeHeaders[len(s.rangeHeaders)-1]
}

func newCountingServer(t *testing.T, content []byte) (*countingFileServer, *httptest.Server) {
	t.Helper()
	fs := &countingFileServer{content: content}
	ts := httptest.NewServer(fs)
	t.Cleanup(ts.Close)
	return fs, ts
}

func newTestTask(reporter ProgressReporter, retryCount int) *Task {
	if reporter == nil {
		reporter = NoopReporter{}
	}
	return &Task{
		Planner:  &Planner{Client: http.DefaultClient},
		Fetcher:  &Fetcher{Client: http.DefaultClient},
		Retry:    RetryPolicy{RetryCount: retryCount, RetryDelay: 0},
		Reporter: reporter,
		Logger:   zerolog.Nop(),
	}
}

func assertFileContent(t *testing.T, expected []byte, path string) {
	t.Helper()
	actual, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, expected, actual)
}

func tempDest(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "file.bin")
}
