package middlewares_test

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrymomot/jetpack/internal"
	"github.com/dmitrymomot/jetpack/pkg/session"
)

// baseContext is embedded through an alias so the embedded field is not
// named Context, which would collide with the Context() method.
type baseContext = internal.Context

// testContext implements the parts of internal.Context the middlewares use.
// Any other method panics on the nil embedded interface.
type testContext struct {
	baseContext

	response http.ResponseWriter
	request  *http.Request
	values   map[any]any
	session  *session.Session
	errors   []logEntry
}

type logEntry struct {
	msg   string
	attrs map[string]any
}

func newTestContext(w http.ResponseWriter, r *http.Request) *testContext {
	return &testContext{
		response: w,
		request:  r,
		values:   make(map[any]any),
	}
}

func (c *testContext) Request() *http.Request        { return c.request }
func (c *testContext) Response() http.ResponseWriter { return c.response }
func (c *testContext) Context() context.Context      { return c.request.Context() }
func (c *testContext) Header(name string) string     { return c.request.Header.Get(name) }
func (c *testContext) SetHeader(name, value string)  { c.response.Header().Set(name, value) }

func (c *testContext) Redirect(code int, url string) error {
	http.Redirect(c.response, c.request, url, code)
	return nil
}

func (c *testContext) LogDebug(msg string, attrs ...any) {}
func (c *testContext) LogError(msg string, attrs ...any) {
	entry := logEntry{msg: msg, attrs: make(map[string]any)}
	for i := 0; i+1 < len(attrs); i += 2 {
		if k, ok := attrs[i].(string); ok {
			entry.attrs[k] = attrs[i+1]
		}
	}
	c.errors = append(c.errors, entry)
}

func (c *testContext) Set(key, value any) {
	c.values[key] = value
	// Also store in request context for context extractors
	ctx := context.WithValue(c.request.Context(), key, value)
	c.request = c.request.WithContext(ctx)
}

func (c *testContext) Get(key any) any {
	return c.values[key]
}

func (c *testContext) StartSession() (*session.Session, error) {
	if c.session == nil {
		return nil, errors.New("no session")
	}
	return c.session, nil
}

func (c *testContext) Deadline() (time.Time, bool) { return c.request.Context().Deadline() }
func (c *testContext) Done() <-chan struct{}       { return c.request.Context().Done() }
func (c *testContext) Err() error                  { return c.request.Context().Err() }
func (c *testContext) Value(key any) any           { return c.request.Context().Value(key) }
