package transport

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

// ErrTimeout is returned when a JSONP call outlives its deadline.
var ErrTimeout = errors.New("jsonp: request timed out")

// DefaultJSONPTimeout bounds a JSONP call when none is configured.
const DefaultJSONPTimeout = 8 * time.Second

// JSONP performs callback-wrapped requests. Every call registers a unique
// callback name that is released on all exit paths.
type JSONP struct {
	client  *resty.Client
	timeout time.Duration

	mu      sync.Mutex
	pending map[string]struct{}
}

// NewJSONP wraps client; a non-positive timeout uses DefaultJSONPTimeout.
func NewJSONP(client *resty.Client, timeout time.Duration) *JSONP {
	if timeout <= 0 {
		timeout = DefaultJSONPTimeout
	}
	return &JSONP{client: client, timeout: timeout, pending: map[string]struct{}{}}
}

// Pending returns the number of callbacks still registered.
func (j *JSONP) Pending() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.pending)
}

func (j *JSONP) register(prefix string) string {
	name := prefix + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	j.mu.Lock()
	j.pending[name] = struct{}{}
	j.mu.Unlock()
	return name
}

func (j *JSONP) release(name string) {
	j.mu.Lock()
	delete(j.pending, name)
	j.mu.Unlock()
}

// Call requests url with params plus cbParam set to a fresh callback name and
// returns the unwrapped JSON body. cbParam may be empty for endpoints with a
// fixed callback; the body is then unwrapped whatever the callback name.
func (j *JSONP) Call(ctx context.Context, url string, params map[string]string, cbParam string) ([]byte, error) {
	name := j.register("fundwl")
	defer j.release(name)

	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	req := j.client.R().SetContext(ctx).SetQueryParams(params)
	if cbParam != "" {
		req.SetQueryParam(cbParam, name)
	}
	resp, err := req.Get(url)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%s: %w", url, ErrTimeout)
		}
		return nil, fmt.Errorf("jsonp %s: %w", url, err)
	}
	if err := CheckStatus(resp); err != nil {
		return nil, err
	}
	want := ""
	if cbParam != "" {
		want = name
	}
	return Unwrap(resp.Body(), want)
}

var callbackRe = regexp.MustCompile(`^\s*([A-Za-z_$][\w$]*)\s*\(`)

// Unwrap strips a JSONP callback wrapper such as `cb({...});`. When callback is
// non-empty the wrapper must use that name. An empty argument list yields nil.
func Unwrap(body []byte, callback string) ([]byte, error) {
	m := callbackRe.FindSubmatch(body)
	if m == nil {
		return nil, fmt.Errorf("jsonp: no callback wrapper")
	}
	if callback != "" && string(m[1]) != callback {
		return nil, fmt.Errorf("jsonp: callback %q, want %q", m[1], callback)
	}
	rest := strings.TrimSpace(string(body[len(m[0]):]))
	rest = strings.TrimSuffix(rest, ";")
	rest = strings.TrimSpace(rest)
	if !strings.HasSuffix(rest, ")") {
		return nil, fmt.Errorf("jsonp: unterminated callback")
	}
	rest = strings.TrimSpace(rest[:len(rest)-1])
	if rest == "" {
		return nil, nil
	}
	return []byte(rest), nil
}
