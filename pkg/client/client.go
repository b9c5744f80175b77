package client

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/outfleet/bget/pkg/logging"
	"github.com/outfleet/bget/pkg/version"
)

// Options configures client construction.
type Options struct {
	// ConnectTimeout bounds connection establishment.
	ConnectTimeout time.Duration

	// MaxRetries is the number of automatic retries the probe client
	// performs. The fetch client never retries on its own; the download
	// task owns retry timing for body transfers.
	MaxRetries int

	// RetryDelay is the fixed wait between probe retries.
	RetryDelay time.Duration
}

// UserAgentTransport stamps the bget version onto every outgoing request.
type UserAgentTransport struct {
	Transport http.RoundTripper
}

func (t *UserAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", fmt.Sprintf("bget/%s", version.GetVersion()))
	return t.Transport.RoundTrip(req)
}

func newTransport(opts Options) http.RoundTripper {
	baseTransport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   opts.ConnectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &UserAgentTransport{Transport: baseTransport}
}

// NewHTTPClient returns the client used for body transfers. It has no overall
// timeout: transfers are long-lived streams and read progress is watched by
// the fetcher, not the client.
func NewHTTPClient(opts Options) *http.Client {
	return &http.Client{
		Transport:     newTransport(opts),
		CheckRedirect: checkRedirectFunc,
	}
}

// NewProbeClient returns the client used for metadata probes (HEAD requests).
// Probe failures are cheap to retry in place, so this client retries
// transient failures itself, with the same fixed delay the task loop uses.
func NewProbeClient(opts Options) *http.Client {
	retryClient := &retryablehttp.Client{
		HTTPClient: &http.Client{
			Transport:     newTransport(opts),
			CheckRedirect: checkRedirectFunc,
		},
		Logger:       nil,
		RetryWaitMin: opts.RetryDelay,
		RetryWaitMax: opts.RetryDelay,
		RetryMax:     opts.MaxRetries,
		CheckRetry:   probeRetryPolicy,
		Backoff:      fixedBackoff,
	}
	return retryClient.StandardClient()
}

// fixedBackoff ignores the attempt number: retry timing in bget is a fixed
// configured interval, not an exponential curve.
func fixedBackoff(min, _ time.Duration, _ int, _ *http.Response) time.Duration {
	return min
}

// probeRetryPolicy retries connection failures and overload statuses, matching
// the transient kinds the download task retries for body transfers.
func probeRetryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		return true, nil
	}
	switch {
	case resp.StatusCode >= 500:
		return true, nil
	case resp.StatusCode == http.StatusRequestTimeout, resp.StatusCode == http.StatusTooManyRequests:
		return true, nil
	}
	return false, nil
}

// checkRedirectFunc logs redirects as they are followed.
func checkRedirectFunc(req *http.Request, via []*http.Request) error {
	logger := logging.GetLogger()
	logger.Trace().
		Str("redirect_url", req.URL.String()).
		Str("url", via[0].URL.String()).
		Msg("Redirect")
	return nil
}
