package internal_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/jetpack/internal"
	"github.com/dmitrymomot/jetpack/pkg/session"
)

// Compile-time check: mockSessionStore implements session.Store.
var _ session.Store = (*mockSessionStore)(nil)

// requestVia creates an App with the given options, registers a handler at GET /,
// executes fn inside that handler, and sends a request. This lets tests exercise
// the real requestContext without accessing unexported symbols.
func requestVia(t *testing.T, req *http.Request, opts []internal.Option, fn func(c internal.Context)) *httptest.ResponseRecorder {
	t.Helper()

	h := &captureHandler{fn: fn}
	opts = append(opts, internal.WithHandlers(h))
	app := newApp(t, `{}`, opts...)

	w := httptest.NewRecorder()
	app.Handler().ServeHTTP(w, req)
	return w
}

type captureHandler struct {
	fn func(c internal.Context)
}

func (h *captureHandler) Routes(r internal.Router) {
	r.GET("/", func(c internal.Context) error {
		h.fn(c)
		return nil
	})
}

// --- context.Context interface tests ---

func TestContextImplementsContextInterface(t *testing.T) {
	t.Parallel()

	t.Run("Deadline delegates to request context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx)
		requestVia(t, req, nil, func(c internal.Context) {
			deadline, ok := c.Deadline()
			require.True(t, ok)
			require.False(t, deadline.IsZero())

			expected, _ := ctx.Deadline()
			require.Equal(t, expected, deadline)
		})
	})

	t.Run("Deadline returns false when no deadline set", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		requestVia(t, req, nil, func(c internal.Context) {
			deadline, ok := c.Deadline()
			require.False(t, ok)
			require.True(t, deadline.IsZero())
		})
	})

	t.Run("Done delegates to request context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx)
		requestVia(t, req, nil, func(c internal.Context) {
			// Done channel should not be closed yet.
			select {
			case <-c.Done():
				t.Fatal("Done channel should not be closed before cancel")
			default:
			}

			cancel()

			// Done channel should be closed after cancel.
			select {
			case <-c.Done():
				// expected
			case <-time.After(time.Second):
				t.Fatal("Done channel should be closed after cancel")
			}
		})
	})

	t.Run("Done returns nil when no cancellation", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		requestVia(t, req, nil, func(c internal.Context) {
			// Just verify it doesn't panic.
			_ = c.Done()
		})
	})

	t.Run("Err returns nil before cancellation", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(t.Context())
		requestVia(t, req, nil, func(c internal.Context) {
			require.NoError(t, c.Err())
		})
	})

	t.Run("Err returns Canceled after cancel", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx)
		requestVia(t, req, nil, func(c internal.Context) {
			cancel()
			require.ErrorIs(t, c.Err(), context.Canceled)
		})
	})

	t.Run("Err returns DeadlineExceeded after timeout", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
		defer cancel()

		// Wait for the timeout to expire.
		time.Sleep(time.Millisecond)

		req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx)
		requestVia(t, req, nil, func(c internal.Context) {
			require.ErrorIs(t, c.Err(), context.DeadlineExceeded)
		})
	})

	t.Run("Value delegates to request context", func(t *testing.T) {
		t.Parallel()

		type testKey struct{}
		ctx := context.WithValue(context.Background(), testKey{}, "hello")

		req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx)
		requestVia(t, req, nil, func(c internal.Context) {
			val := c.Value(testKey{})
			require.Equal(t, "hello", val)
		})
	})

	t.Run("Value returns nil for missing key", func(t *testing.T) {
		t.Parallel()

		type testKey struct{}

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		requestVia(t, req, nil, func(c internal.Context) {
			require.Nil(t, c.Value(testKey{}))
		})
	})

	t.Run("Value reflects Set changes", func(t *testing.T) {
		t.Parallel()

		type testKey struct{}

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		requestVia(t, req, nil, func(c internal.Context) {
			c.Set(testKey{}, 42)
			require.Equal(t, 42, c.Value(testKey{}))
		})
	})

	t.Run("context can be passed to functions accepting context.Context", func(t *testing.T) {
		t.Parallel()

		type testKey struct{}
		ctx := context.WithValue(context.Background(), testKey{}, "world")
		req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx)
		requestVia(t, req, nil, func(c internal.Context) {
			// Wrap in context.WithValue to prove it works as a parent context.
			type childKey struct{}
			derived := context.WithValue(c, childKey{}, "child-val")

			require.Equal(t, "world", derived.Value(testKey{}))
			require.Equal(t, "child-val", derived.Value(childKey{}))
		})
	})
}

// --- Identity methods tests ---

func TestIdentityMethods(t *testing.T) {
	t.Parallel()

	noSessions := []internal.Option{internal.WithoutSessions()}

	t.Run("UserID returns empty string when no session manager", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		requestVia(t, req, noSessions, func(c internal.Context) {
			require.Equal(t, "", c.UserID())
			require.False(t, c.IsAuthenticated())
			require.False(t, c.IsCurrentUser("user-123"))

			_, err := c.StartSession()
			require.ErrorIs(t, err, session.ErrNotConfigured)
		})
	})

	authenticated := func(userID string) []internal.Option {
		store := &mockSessionStore{
			getFn: func(_ context.Context, _ string) (*session.Session, error) {
				s := session.New("sess-1", "tok-1", time.Now().Add(24*time.Hour))
				if userID != "" {
					s.UserID = &userID
				}
				return s, nil
			},
		}
		return []internal.Option{internal.WithSessionStore(store)}
	}

	withCookie := func(token string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "__sid", Value: token})
		return req
	}

	t.Run("anonymous session", func(t *testing.T) {
		t.Parallel()

		requestVia(t, withCookie("tok-1"), authenticated(""), func(c internal.Context) {
			require.Equal(t, "", c.UserID())
			require.False(t, c.IsAuthenticated())
			require.False(t, c.IsCurrentUser("any-id"))
		})
	})

	t.Run("authenticated session", func(t *testing.T) {
		t.Parallel()

		requestVia(t, withCookie("tok-1"), authenticated("user-456"), func(c internal.Context) {
			require.Equal(t, "user-456", c.UserID())
			require.True(t, c.IsAuthenticated())
			require.True(t, c.IsCurrentUser("user-456"))
			require.False(t, c.IsCurrentUser("user-different"))
		})
	})

	t.Run("UserID returns empty for session not found", func(t *testing.T) {
		t.Parallel()

		store := &mockSessionStore{
			getFn: func(_ context.Context, _ string) (*session.Session, error) {
				return nil, session.ErrNotFound
			},
		}

		opts := []internal.Option{internal.WithSessionStore(store)}
		requestVia(t, withCookie("tok-invalid"), opts, func(c internal.Context) {
			require.Equal(t, "", c.UserID())

			sess, err := c.Session()
			require.NoError(t, err)
			require.Nil(t, sess)
		})
	})

	t.Run("store failure surfaces", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("store down")
		store := &mockSessionStore{
			getFn: func(_ context.Context, _ string) (*session.Session, error) {
				return nil, boom
			},
		}

		opts := []internal.Option{internal.WithSessionStore(store)}
		requestVia(t, withCookie("tok-1"), opts, func(c internal.Context) {
			_, err := c.Session()
			require.ErrorIs(t, err, boom)
			require.Equal(t, "", c.UserID())
		})
	})
}

// --- Session lifecycle tests ---

func TestStartSession(t *testing.T) {
	t.Parallel()

	var created *session.Session
	store := &mockSessionStore{
		createFn: func(_ context.Context, s *session.Session) error {
			created = s
			return nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := requestVia(t, req, []internal.Option{internal.WithSessionStore(store)}, func(c internal.Context) {
		sess, err := c.StartSession()
		require.NoError(t, err)
		require.NotNil(t, sess)

		again, err := c.StartSession()
		require.NoError(t, err)
		require.Same(t, sess, again)
	})

	require.NotNil(t, created)
	cookie := findCookie(w, "__sid")
	require.NotNil(t, cookie)
	require.Equal(t, created.Token, cookie.Value)
}

func TestRotateSession(t *testing.T) {
	t.Parallel()

	const oldToken = "old-token-abc"
	var updatedSession *session.Session

	store := &mockSessionStore{
		getFn: func(_ context.Context, token string) (*session.Session, error) {
			return session.New("sess-1", oldToken, time.Now().Add(24*time.Hour)), nil
		},
		updateFn: func(_ context.Context, s *session.Session) error {
			updatedSession = s
			return nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "__sid", Value: oldToken})

	w := requestVia(t, req, []internal.Option{internal.WithSessionStore(store)}, func(c internal.Context) {
		sess, err := c.StartSession()
		require.NoError(t, err)
		sess.SetUserID("user-1")

		require.NoError(t, c.RotateSession())
	})

	require.NotNil(t, updatedSession)
	require.NotEqual(t, oldToken, updatedSession.Token, "token should have been rotated")
	require.NotNil(t, updatedSession.UserID)
	require.Equal(t, "user-1", *updatedSession.UserID)

	cookie := findCookie(w, "__sid")
	require.NotNil(t, cookie, "expected __sid cookie in response")
	require.Equal(t, updatedSession.Token, cookie.Value)
}

func TestDestroySession(t *testing.T) {
	t.Parallel()

	var deleted string
	store := &mockSessionStore{
		getFn: func(_ context.Context, _ string) (*session.Session, error) {
			return session.New("sess-1", "tok-1", time.Now().Add(time.Hour)), nil
		},
		deleteFn: func(_ context.Context, id string) error {
			deleted = id
			return nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "__sid", Value: "tok-1"})

	w := requestVia(t, req, []internal.Option{internal.WithSessionStore(store)}, func(c internal.Context) {
		require.NoError(t, c.DestroySession())

		sess, err := c.Session()
		require.NoError(t, err)
		require.Nil(t, sess)
	})

	require.Equal(t, "sess-1", deleted)
	cookie := findCookie(w, "__sid")
	require.NotNil(t, cookie)
	require.Equal(t, -1, cookie.MaxAge)
}

func TestDestroyUserSessions(t *testing.T) {
	t.Parallel()

	newStore := func(revoked *[]string) *mockSessionStore {
		return &mockSessionStore{
			getFn: func(_ context.Context, _ string) (*session.Session, error) {
				sess := session.New("sess-1", "tok-1", time.Now().Add(time.Hour))
				sess.SetUserID("user-1")
				sess.ClearDirty()
				return sess, nil
			},
			deleteByUserIDFn: func(_ context.Context, userID string) error {
				*revoked = append(*revoked, userID)
				return nil
			},
		}
	}

	t.Run("own sessions clear the cookie", func(t *testing.T) {
		t.Parallel()

		var revoked []string
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "__sid", Value: "tok-1"})

		w := requestVia(t, req, []internal.Option{internal.WithSessionStore(newStore(&revoked))}, func(c internal.Context) {
			require.NoError(t, c.DestroyUserSessions("user-1"))
			require.False(t, c.IsAuthenticated())
		})

		require.Equal(t, []string{"user-1"}, revoked)
		cookie := findCookie(w, "__sid")
		require.NotNil(t, cookie)
		require.Equal(t, -1, cookie.MaxAge)
	})

	t.Run("another user's sessions keep the cookie", func(t *testing.T) {
		t.Parallel()

		var revoked []string
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "__sid", Value: "tok-1"})

		w := requestVia(t, req, []internal.Option{internal.WithSessionStore(newStore(&revoked))}, func(c internal.Context) {
			require.NoError(t, c.DestroyUserSessions("user-2"))
			require.True(t, c.IsCurrentUser("user-1"))
		})

		require.Equal(t, []string{"user-2"}, revoked)
		require.Nil(t, findCookie(w, "__sid"))
	})
}

func TestSessionValues_PersistedOnWrite(t *testing.T) {
	t.Parallel()

	updates := 0
	store := &mockSessionStore{
		getFn: func(_ context.Context, _ string) (*session.Session, error) {
			return session.New("sess-1", "tok-1", time.Now().Add(time.Hour)), nil
		},
		updateFn: func(_ context.Context, s *session.Session) error {
			updates++
			v, _ := s.GetValue("users")
			require.Equal(t, "42", v)
			return nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "__sid", Value: "tok-1"})

	requestVia(t, req, []internal.Option{internal.WithSessionStore(store)}, func(c internal.Context) {
		require.NoError(t, c.SetSessionValue("users", "42"))

		v, err := c.SessionValue("users")
		require.NoError(t, err)
		require.Equal(t, "42", v)

		require.NoError(t, c.String(http.StatusOK, "ok"))
	})

	require.Equal(t, 1, updates)
}

func TestSessionValues_PersistedWithoutWrite(t *testing.T) {
	t.Parallel()

	updates := 0
	store := &mockSessionStore{
		getFn: func(_ context.Context, _ string) (*session.Session, error) {
			return session.New("sess-1", "tok-1", time.Now().Add(time.Hour)), nil
		},
		updateFn: func(_ context.Context, _ *session.Session) error {
			updates++
			return nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "__sid", Value: "tok-1"})

	requestVia(t, req, []internal.Option{internal.WithSessionStore(store)}, func(c internal.Context) {
		require.NoError(t, c.DeleteSessionValue("users"))
	})

	require.Equal(t, 1, updates)
}

// --- Response helpers ---

func TestResponseHelpers(t *testing.T) {
	t.Parallel()

	t.Run("JSON", func(t *testing.T) {
		t.Parallel()

		w := requestVia(t, httptest.NewRequest(http.MethodGet, "/", nil), nil, func(c internal.Context) {
			require.NoError(t, c.JSON(http.StatusCreated, map[string]int{"n": 1}))
		})
		require.Equal(t, http.StatusCreated, w.Code)
		require.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
		require.JSONEq(t, `{"n":1}`, w.Body.String())
	})

	t.Run("Redirect", func(t *testing.T) {
		t.Parallel()

		w := requestVia(t, httptest.NewRequest(http.MethodGet, "/", nil), nil, func(c internal.Context) {
			require.NoError(t, c.Redirect(http.StatusSeeOther, "/login"))
		})
		require.Equal(t, http.StatusSeeOther, w.Code)
		require.Equal(t, "/login", w.Header().Get("Location"))
	})

	t.Run("cookies", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "theme", Value: "dark"})

		w := requestVia(t, req, nil, func(c internal.Context) {
			v, err := c.Cookie("theme")
			require.NoError(t, err)
			require.Equal(t, "dark", v)

			_, err = c.Cookie("missing")
			require.ErrorIs(t, err, http.ErrNoCookie)

			c.SetCookie("lang", "en", 60)
			c.DeleteCookie("theme")
		})

		require.Equal(t, "en", findCookie(w, "lang").Value)
		require.Equal(t, -1, findCookie(w, "theme").MaxAge)
	})

	t.Run("Error carries request id", func(t *testing.T) {
		t.Parallel()

		requestVia(t, httptest.NewRequest(http.MethodGet, "/", nil), nil, func(c internal.Context) {
			c.Set(internal.RequestIDKey{}, "req-1")
			err := c.Error(http.StatusConflict, "taken")
			require.Equal(t, "req-1", err.RequestID)
			require.Equal(t, http.StatusConflict, err.Code)
		})
	})

	t.Run("View without template engine", func(t *testing.T) {
		t.Parallel()

		requestVia(t, httptest.NewRequest(http.MethodGet, "/", nil), nil, func(c internal.Context) {
			require.ErrorIs(t, c.View(http.StatusOK, "home", nil), internal.ErrNoViews)
			require.False(t, c.Written())
		})
	})
}

func findCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// --- Mock session store ---

type mockSessionStore struct {
	createFn         func(ctx context.Context, s *session.Session) error
	getFn            func(ctx context.Context, token string) (*session.Session, error)
	updateFn         func(ctx context.Context, s *session.Session) error
	deleteFn         func(ctx context.Context, id string) error
	deleteByUserIDFn func(ctx context.Context, userID string) error
}

func (m *mockSessionStore) Create(ctx context.Context, s *session.Session) error {
	if m.createFn != nil {
		return m.createFn(ctx, s)
	}
	return nil
}

func (m *mockSessionStore) Get(ctx context.Context, token string) (*session.Session, error) {
	if m.getFn != nil {
		return m.getFn(ctx, token)
	}
	return nil, session.ErrNotFound
}

func (m *mockSessionStore) Update(ctx context.Context, s *session.Session) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, s)
	}
	return nil
}

func (m *mockSessionStore) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockSessionStore) DeleteByUserID(ctx context.Context, userID string) error {
	if m.deleteByUserIDFn != nil {
		return m.deleteByUserIDFn(ctx, userID)
	}
	return nil
}

func (m *mockSessionStore) Touch(ctx context.Context, id string, lastActiveAt time.Time) error {
	return nil
}
