package drive

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNAS struct {
	t        *testing.T
	created  []string
	moved    [][2]string
	loggedIn bool
}

func (f *fakeNAS) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	require.NoError(f.t, r.ParseForm())
	w.Header().Set("Content-Type", "application/json")

	if r.URL.Path != entryPath {
		w.WriteHeader(http.StatusOK)
		return
	}

	method := r.Form.Get("method")
	if method != "login" && r.URL.Query().Get("_sid") != "sid-1" {
		fmt.Fprint(w, `{"success":false,"error":{"code":119}}`)
		return
	}

	switch method {
	case "login":
		if r.Form.Get("passwd") != "secret" {
			fmt.Fprint(w, `{"success":false,"error":{"code":400}}`)
			return
		}
		f.loggedIn = true
		fmt.Fprint(w, `{"success":true,"data":{"sid":"sid-1"}}`)
	case "logout":
		f.loggedIn = false
		fmt.Fprint(w, `{"success":true}`)
	case "list":
		assert.Equal(f.t, "/mydrive/root/hubeigov", r.Form.Get("path"))
		fmt.Fprint(w, `{"success":true,"data":{"items":[
			{"display_path":"/mydrive/root/hubeigov/a.docx","name":"a.docx","starred":true,"type":"file"},
			{"display_path":"/mydrive/root/hubeigov/加星","name":"加星","starred":false,"type":"dir"}
		]}}`)
	case "create":
		f.created = append(f.created, r.Form.Get("path"))
		fmt.Fprint(w, `{"success":true,"data":{}}`)
	case "update":
		var files []string
		require.NoError(f.t, json.Unmarshal([]byte(r.Form.Get("files")), &files))
		for _, p := range files {
			f.moved = append(f.moved, [2]string{p, r.Form.Get("to_parent_folder")})
		}
		fmt.Fprint(w, `{"success":true,"data":{"async_task_id":"1"}}`)
	default:
		fmt.Fprint(w, `{"success":false,"error":{"code":103}}`)
	}
}

func addressOf(t *testing.T, rawURL string) Address {
	t.Helper()
	u, err := url.Parse(rawURL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)
	return Address{Host: u.Hostname(), Port: port}
}

func newClient(t *testing.T) (*Client, *fakeNAS) {
	t.Helper()
	nas := &fakeNAS{t: t}
	srv := httptest.NewServer(nas)
	t.Cleanup(srv.Close)

	return New(srv.URL, 5*time.Second, slog.New(slog.DiscardHandler)), nas
}

func TestClientSession(t *testing.T) {
	ctx := context.Background()
	c, nas := newClient(t)

	require.NoError(t, c.Login(ctx, "admin", "secret"))
	assert.True(t, nas.loggedIn)

	items, err := c.ListFolder(ctx, "/mydrive/root/hubeigov")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, Item{DisplayPath: "/mydrive/root/hubeigov/a.docx", Name: "a.docx", Starred: true, Type: TypeFile}, items[0])
	assert.True(t, items[0].IsFile())
	assert.False(t, items[1].IsFile())

	require.NoError(t, c.CreateFolder(ctx, "加星", "/mydrive/root/hubeigov/"))
	assert.Equal(t, []string{"/mydrive/root/hubeigov/加星"}, nas.created)

	require.NoError(t, c.Move(ctx, "/mydrive/root/hubeigov/a.docx", "/mydrive/root/hubeigov/加星"))
	assert.Equal(t, [][2]string{{"/mydrive/root/hubeigov/a.docx", "/mydrive/root/hubeigov/加星"}}, nas.moved)

	require.NoError(t, c.Logout(ctx))
	assert.False(t, nas.loggedIn)
}

func TestClientAPIError(t *testing.T) {
	ctx := context.Background()
	c, _ := newClient(t)

	err := c.Login(ctx, "admin", "wrong")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 400, apiErr.Code)
	assert.Equal(t, "login", apiErr.Method)

	_, err = c.ListFolder(ctx, "/mydrive/root/hubeigov")
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 119, apiErr.Code)
}

func TestLogoutWithoutSession(t *testing.T) {
	c, _ := newClient(t)
	assert.NoError(t, c.Logout(context.Background()))
}

func TestJoin(t *testing.T) {
	assert.Equal(t, "/mydrive/a/b", Join("/mydrive/a/", "b"))
	assert.Equal(t, "/mydrive/a/b", Join("/mydrive/a", "b"))
}

func TestAddressURL(t *testing.T) {
	assert.Equal(t, "http://nas:5000", Address{Host: "nas"}.URL())
	assert.Equal(t, "https://nas:5001", Address{Host: "nas", HTTPS: true}.URL())
	assert.Equal(t, "http://10.0.0.2:8080", Address{Host: "10.0.0.2", Port: 8080}.URL())
}

func TestProbe(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer down.Close()
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer up.Close()

	closed := httptest.NewServer(http.NotFoundHandler())
	gone := addressOf(t, closed.URL)
	closed.Close()

	want := addressOf(t, up.URL)
	got, err := Probe(context.Background(), []Address{gone, addressOf(t, down.URL), want}, time.Second)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = Probe(context.Background(), []Address{gone}, time.Second)
	assert.ErrorIs(t, err, ErrUnreachable)
}
