package download

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"time"
)

// Plan is the resume decision for one transfer.
type Plan struct {
	// Offset is the byte position writing continues from.
	Offset int64

	// TotalSize is the remote length, or SizeUnknown.
	TotalSize int64

	// SupportsRange reports whether the server advertises byte-range
	// support.
	SupportsRange bool

	// AlreadyComplete means the local file covers the full remote length
	// and no request needs to be issued.
	AlreadyComplete bool

	// Truncate means any existing partial file must be discarded before
	// writing.
	Truncate bool

	// LastModified is the remote modification time, if declared. It is
	// applied to the destination after a successful transfer.
	LastModified time.Time
}

// Planner decides where a transfer resumes from, based on the local file size
// and a metadata probe of the remote resource.
type Planner struct {
	// Client issues the HEAD probe. It retries transient probe failures
	// internally, so planner errors are final.
	Client *http.Client
}

// Plan probes url and inspects dest. Resume requires a known remote length
// and advertised range support; in every other case the transfer starts from
// zero with the partial file discarded.
func (p *Planner) Plan(ctx context.Context, url, dest string) (Plan, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return Plan{}, fmt.Errorf("failed to create probe request for %s: %w", url, err)
	}
	resp, err := p.Client.Do(req)
	if err != nil {
		return Plan{}, fmt.Errorf("probe failed for %s: %w", url, err)
	}
	resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Plan{}, HTTPStatusError{StatusCode: resp.StatusCode}
	}

	plan := Plan{
		TotalSize:     resp.ContentLength,
		SupportsRange: resp.Header.Get("Accept-Ranges") == "bytes",
	}
	if plan.TotalSize < 0 {
		plan.TotalSize = SizeUnknown
	}
	if lm := resp.Header.Get("Last-Modified"); lm != "" {
		if t, err := http.ParseTime(lm); err == nil {
			plan.LastModified = t
		}
	}

	info, err := os.Stat(dest)
	if errors.Is(err, fs.ErrNotExist) {
		return plan, nil
	}
	if err != nil {
		return Plan{}, &Error{Kind: KindFileSystem, Err: err}
	}
	if info.IsDir() {
		return Plan{}, &Error{Kind: KindFileSystem, Err: fmt.Errorf("destination %s is a directory", dest)}
	}

	localSize := info.Size()
	switch {
	case plan.TotalSize == SizeUnknown:
		// Resume needs a known total length to validate against.
		plan.Truncate = true
	case localSize >= plan.TotalSize:
		plan.AlreadyComplete = true
		plan.Offset = plan.TotalSize
	case plan.SupportsRange:
		plan.Offset = localSize
	default:
		plan.Truncate = true
	}
	return plan, nil
}
