package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync/atomic"
	"time"
)

// fetchChunkSize bounds how much of the response body is held in memory at a
// time.
const fetchChunkSize = 32 * 1024

// Fetcher performs a single ranged GET and streams the body to disk.
type Fetcher struct {
	// Client issues the GET. It must not retry on its own; the task owns
	// retry timing.
	Client *http.Client

	// ReadTimeout aborts the transfer when no body read completes within
	// it. Zero disables the watchdog.
	ReadTimeout time.Duration
}

// Fetch issues a GET for url with a Range header when offset > 0 and streams
// the body into file in bounded chunks, invoking progress with the byte count
// of each chunk written. It returns the number of bytes written. The file
// handle is closed on every exit path.
//
// A 200 reply to a range request is reported as ErrRangeMismatch: the server
// sent full content, so appending would corrupt the file and the caller must
// restart from zero.
func (f *Fetcher) Fetch(ctx context.Context, url string, offset int64, file *os.File, progress func(n int64)) (written int64, err error) {
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = &Error{Kind: KindFileSystem, Err: cerr}
		}
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request for %s: %w", url, err)
	}
	if offset > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", offset))
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	switch {
	case offset > 0 && resp.StatusCode == http.StatusOK:
		return 0, ErrRangeMismatch
	case offset > 0 && resp.StatusCode != http.StatusPartialContent:
		return 0, HTTPStatusError{StatusCode: resp.StatusCode}
	case offset == 0 && resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent:
		return 0, HTTPStatusError{StatusCode: resp.StatusCode}
	}

	// Watchdog: cancel the request when a body read stalls longer than
	// ReadTimeout.
	var timedOut atomic.Bool
	var watchdog *time.Timer
	if f.ReadTimeout > 0 {
		watchdog = time.AfterFunc(f.ReadTimeout, func() {
			timedOut.Store(true)
			cancel()
		})
		defer watchdog.Stop()
	}

	buf := make([]byte, fetchChunkSize)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if watchdog != nil {
				watchdog.Reset(f.ReadTimeout)
			}
			if _, werr := file.Write(buf[:n]); werr != nil {
				return written, &Error{Kind: KindFileSystem, Err: werr}
			}
			written += int64(n)
			if progress != nil {
				progress(int64(n))
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			if timedOut.Load() {
				return written, fmt.Errorf("no data for %s: %w", f.ReadTimeout, errReadTimeout)
			}
			return written, fmt.Errorf("error reading response for %s: %w", url, readErr)
		}
	}

	// A short body with a declared length means the connection was cut
	// mid-stream; surface it so the transfer resumes from the new offset.
	if resp.ContentLength >= 0 && written < resp.ContentLength {
		return written, fmt.Errorf("received %d of %d bytes for %s: %w", written, resp.ContentLength, url, io.ErrUnexpectedEOF)
	}

	if err := file.Sync(); err != nil {
		return written, &Error{Kind: KindFileSystem, Err: err}
	}
	return written, nil
}
