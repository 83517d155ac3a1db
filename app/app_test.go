package app

import (
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pevans/newsdocs/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		SaveFolder: t.TempDir(),
		Workers:    2,
		NewsSites: []config.Site{
			{Name: "hubeigov", NameCN: "湖北省政府", URL: config.StringList{"https://www.hubei.gov.cn/zfwj/"}},
			{Name: "renmin", NameCN: "人民网", URL: config.StringList{"http://politics.people.com.cn/"}},
		},
	}
}

func TestNewWithoutOptionalComponents(t *testing.T) {
	a, err := New(testConfig(t), slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.Notifier())
	assert.Nil(t, a.Stars())
	assert.Nil(t, a.History)

	r := a.Archiver()
	assert.Nil(t, r.Stars)
	assert.Nil(t, r.Signaler)
	assert.Len(t, r.Sites, 2)
}

func TestNotifierFollowsSwitch(t *testing.T) {
	cfg := testConfig(t)
	cfg.WebhookURL = "http://127.0.0.1:1880/scraper-news"

	a, err := New(cfg, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	assert.Nil(t, a.Notifier())

	cfg.NotifySwitch = true
	a, err = New(cfg, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	assert.NotNil(t, a.Notifier())
}

func TestStarsEnabledByDrive(t *testing.T) {
	cfg := testConfig(t)
	cfg.Drive = config.Drive{
		Username:  "admin",
		Addresses: []config.Address{{Address: "nas.local", Port: 5000}},
		Folders:   []string{"hubeigov"},
	}

	a, err := New(cfg, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	assert.NotNil(t, a.Stars())
	assert.NotNil(t, a.Archiver().Stars)
}

func TestService(t *testing.T) {
	cfg := testConfig(t)
	cfg.History.DSN = filepath.Join(t.TempDir(), "history.db")

	a, err := New(cfg, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	defer a.Close()
	require.NotNil(t, a.History)

	svc, err := a.Service(ServiceOptions{})
	require.NoError(t, err)
	assert.NotNil(t, svc)
	assert.DirExists(t, filepath.Join(a.Root, "hubeigov"))
	assert.DirExists(t, filepath.Join(a.Root, "renmin"))

	_, err = a.Service(ServiceOptions{Site: "renmin", Year: 2024})
	require.NoError(t, err)

	_, err = a.Service(ServiceOptions{Site: "bbc"})
	assert.ErrorIs(t, err, ErrUnknownSite)
}
