package internal

import (
	"bufio"
	"net"
	"net/http"
	"sync"
)

// ResponseWriter records the status and body size of a response.
// Hooks registered with OnBeforeWrite run once, right before the header is
// sent, while they can still add headers such as the session cookie.
type ResponseWriter struct {
	http.ResponseWriter

	mu      sync.Mutex
	status  int
	size    int64
	written bool
	hooks   []func()

	// status an error route answers with when it writes a plain 200
	errStatus int
}

// NewResponseWriter wraps w. An already wrapped writer is returned as is, so
// every Context of a request shares one writer.
func NewResponseWriter(w http.ResponseWriter) *ResponseWriter {
	if rw, ok := w.(*ResponseWriter); ok {
		return rw
	}
	return &ResponseWriter{ResponseWriter: w, status: http.StatusOK}
}

// OnBeforeWrite registers fn to run before the header is sent.
// It reports false, and drops fn, when the header is already sent.
func (w *ResponseWriter) OnBeforeWrite(fn func()) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.written {
		return false
	}
	w.hooks = append(w.hooks, fn)
	return true
}

// WriteHeader sends the header. Calls after the first are ignored.
func (w *ResponseWriter) WriteHeader(code int) {
	w.commit(code)
}

// Write sends the header with the current status if needed, then b.
func (w *ResponseWriter) Write(b []byte) (int, error) {
	w.commit(0)

	n, err := w.ResponseWriter.Write(b)

	w.mu.Lock()
	w.size += int64(n)
	w.mu.Unlock()
	return n, err
}

// commit runs the hooks and sends the header once.
// A zero code keeps the recorded status.
func (w *ResponseWriter) commit(code int) {
	w.mu.Lock()
	if w.written {
		w.mu.Unlock()
		return
	}
	w.written = true
	if code != 0 {
		w.status = code
	}
	if w.errStatus != 0 && w.status == http.StatusOK {
		w.status = w.errStatus
	}
	hooks := w.hooks
	w.hooks = nil
	status := w.status
	w.mu.Unlock()

	// hooks run unlocked: they may call Header or Written
	for _, fn := range hooks {
		fn()
	}
	w.ResponseWriter.WriteHeader(status)
}

// keepErrorStatus makes a 200 sent by an error route go out as code.
func (w *ResponseWriter) keepErrorStatus(code int) {
	w.mu.Lock()
	w.errStatus = code
	w.mu.Unlock()
}

// Status returns the status sent, or 200 before anything was written.
func (w *ResponseWriter) Status() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status
}

// Size returns the number of body bytes written.
func (w *ResponseWriter) Size() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.size
}

// Written reports whether the header was sent.
func (w *ResponseWriter) Written() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.written
}

// Flush sends the header if needed and flushes buffered data.
func (w *ResponseWriter) Flush() {
	w.commit(0)
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Hijack hands the connection over to the caller.
func (w *ResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, http.ErrNotSupported
	}
	w.mu.Lock()
	w.written = true
	w.hooks = nil
	w.mu.Unlock()
	return h.Hijack()
}

// Unwrap exposes the wrapped writer to http.ResponseController.
func (w *ResponseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
