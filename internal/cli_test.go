package internal_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/jetpack/internal"
)

func startApp(t *testing.T, cfg string, args []string, opts ...internal.Option) (string, error) {
	t.Helper()

	dir := t.TempDir()
	writeFile(t, dir, internal.ConfigFile, cfg)

	var out bytes.Buffer
	opts = append([]internal.Option{internal.WithRoot(dir), internal.WithOutput(&out)}, opts...)
	err := internal.New(opts...).Start(context.Background(), args)
	return out.String(), err
}

func TestCLI_CommandNotFound(t *testing.T) {
	t.Parallel()

	out, err := startApp(t, `{}`, []string{"frobnicate", "now"})
	require.ErrorIs(t, err, internal.ErrCommandNotFound)
	require.Contains(t, err.Error(), "frobnicate")
	require.Equal(t, internal.CommandNotFoundMessage+"\n", out)
}

func TestCLI_Task(t *testing.T) {
	t.Parallel()

	var (
		gotArgs []string
		gotApp  *internal.App
		closed  bool
	)

	task := internal.TaskFunc{
		TaskName:        "greet",
		TaskDescription: "Say hello",
		Fn: func(_ context.Context, app *internal.App, args []string) error {
			gotApp = app
			gotArgs = args
			return nil
		},
	}

	_, err := startApp(t, `{"name":"shop"}`, []string{"greet", "--loud", "bob"},
		internal.WithTasks(task),
		internal.WithAfterHook(func(_ context.Context, app *internal.App) error {
			app.OnClose(func(context.Context) error {
				closed = true
				return nil
			})
			return nil
		}),
	)
	require.NoError(t, err)
	require.Equal(t, []string{"--loud", "bob"}, gotArgs)
	require.Equal(t, "shop", gotApp.Config().Get("name").String())
	require.True(t, closed, "resources are released after the command")
}

func TestCLI_Help(t *testing.T) {
	t.Parallel()

	task := internal.TaskFunc{TaskName: "reindex", TaskDescription: "Rebuild the search index"}

	out, err := startApp(t, `{}`, []string{"help"}, internal.WithTasks(task))
	require.NoError(t, err)
	require.Contains(t, out, "reindex")
	require.Contains(t, out, "Rebuild the search index")
	require.Contains(t, out, "migrate")
}

func TestCLI_Routes(t *testing.T) {
	t.Parallel()

	out, err := startApp(t, `{}`, []string{"routes"}, internal.WithHandlers(routes(func(r internal.Router) {
		r.GET("/users/{id}", func(c internal.Context) error { return nil })
		r.POST("/login", func(c internal.Context) error { return nil })
	})))
	require.NoError(t, err)
	require.Contains(t, out, "GET     /users/{id}")
	require.Contains(t, out, "POST    /login")
}

func TestCLI_Health(t *testing.T) {
	t.Parallel()

	out, err := startApp(t, `{}`, []string{"health"},
		internal.WithReadinessCheck("cache", func(context.Context) error { return nil }),
	)
	require.NoError(t, err)

	var resp struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Equal(t, "healthy", resp.Status)
}

func TestCLI_MigrateWithoutDatabase(t *testing.T) {
	t.Parallel()

	_, err := startApp(t, `{}`, []string{"migrate"})
	require.ErrorIs(t, err, internal.ErrNoDatabase)
}
