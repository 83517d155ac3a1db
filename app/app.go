// Package app wires the configured components together for the command
// line tools.
package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pevans/newsdocs/archiver"
	"github.com/pevans/newsdocs/config"
	"github.com/pevans/newsdocs/discovery"
	"github.com/pevans/newsdocs/drive"
	"github.com/pevans/newsdocs/history"
	"github.com/pevans/newsdocs/library"
	"github.com/pevans/newsdocs/notify"
	"github.com/pevans/newsdocs/scraper"
	"github.com/pevans/newsdocs/stars"
)

var ErrUnknownSite = errors.New("unknown site")

// App holds the components built from one configuration.
type App struct {
	Config  *config.Config
	Root    string
	Logger  *slog.Logger
	History *history.Store // nil when no history DSN is configured

	notifiers notify.Multi
	mqtt      *notify.MQTT
	stars     *stars.Syncer
}

// NewLogger builds the process logger: text on stderr, debug level when
// debug is set.
func NewLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// New builds every optional component the configuration enables.
// Notification channels that fail to connect are logged and left out.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	root, err := cfg.Root()
	if err != nil {
		return nil, err
	}

	a := &App{
		Config: cfg,
		Root:   root,
		Logger: logger,
	}

	if cfg.MQTT.Broker != "" {
		m, err := notify.NewMQTT(notify.MQTTOptions{
			Broker:   cfg.MQTT.Broker,
			Topic:    cfg.MQTT.Topic,
			ClientID: cfg.MQTT.ClientID,
			Username: cfg.MQTT.Username,
			Password: cfg.MQTT.Password,
		})
		if err != nil {
			logger.Warn("mqtt notifier disabled", "error", err)
		} else {
			a.mqtt = m
		}
	}

	if cfg.NotifySwitch {
		logger.Info("notifications enabled")
		a.notifiers = a.buildNotifiers()
	} else {
		logger.Info("notifications disabled")
	}

	if cfg.Drive.Enabled() {
		a.stars = newSyncer(cfg, logger)
	}

	if cfg.History.DSN != "" {
		store, err := history.Open(cfg.History.DSN)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to open history: %w", err)
		}
		a.History = store
	}

	return a, nil
}

func (a *App) buildNotifiers() notify.Multi {
	cfg := a.Config

	var out notify.Multi
	if cfg.WebhookURL != "" {
		out = append(out, notify.NewWebhook(cfg.WebhookURL))
	}
	if a.mqtt != nil {
		out = append(out, a.mqtt)
	}
	if cfg.Telegram.Token != "" {
		t, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID)
		if err != nil {
			a.Logger.Warn("telegram notifier disabled", "error", err)
		} else {
			out = append(out, t)
		}
	}
	return out
}

func newSyncer(cfg *config.Config, logger *slog.Logger) *stars.Syncer {
	addresses := make([]drive.Address, 0, len(cfg.Drive.Addresses))
	for _, addr := range cfg.Drive.Addresses {
		addresses = append(addresses, drive.Address{
			Host:  addr.Address,
			Port:  addr.Port,
			HTTPS: addr.HTTPS,
		})
	}

	dial := stars.DriveDialer(addresses, cfg.Drive.Username, cfg.Drive.Password, cfg.ProbeTimeout, logger)
	return stars.New(dial, stars.Options{
		Root:          cfg.Drive.RootFolder,
		Folders:       cfg.Drive.Folders,
		StarredFolder: cfg.Drive.StarredFolder,
	}, logger)
}

// Stars returns the star syncer, or nil when the drive is not configured.
func (a *App) Stars() archiver.StarSyncer {
	if a.stars == nil {
		return nil
	}
	return a.stars
}

// Notifier returns the notification fan-out, or nil when notifications
// are off or no channel is configured.
func (a *App) Notifier() notify.Notifier {
	if len(a.notifiers) == 0 {
		return nil
	}
	return a.notifiers
}

// Archiver builds the runner of the move, combine and stars modes.
func (a *App) Archiver() *archiver.Runner {
	sites := make([]archiver.Site, 0, len(a.Config.NewsSites))
	for _, s := range a.Config.NewsSites {
		sites = append(sites, archiver.Site{Name: s.Name, NameCN: s.NameCN})
	}

	r := archiver.NewRunner(a.Root, sites, a.Config.Owner(), a.Logger)
	r.Stars = a.Stars()
	if a.mqtt != nil {
		r.Signaler = a.mqtt
	}
	return r
}

// ServiceOptions narrows what a Service scrapes.
type ServiceOptions struct {
	Site string // only this site when set
	Year int    // overrides every site's year when set
}

// Service builds the scrape service over the configured sites.
func (a *App) Service(opts ServiceOptions) (*discovery.Service, error) {
	var jobs []discovery.Job
	for _, s := range a.Config.NewsSites {
		if opts.Site != "" && s.Name != opts.Site {
			continue
		}
		if opts.Year > 0 {
			s.Year = opts.Year
		}

		job, err := a.retriever(s)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}

	if len(jobs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSite, opts.Site)
	}

	return discovery.NewService(jobs, a.Stars(), a.Config.Workers, a.Logger), nil
}

func (a *App) retriever(s config.Site) (*discovery.Retriever, error) {
	logger := a.Logger.With("site", s.Name)

	fetcher := scraper.NewFetcher(logger, scraper.FetcherOptions{
		Timeout:   a.Config.FetchTimeout,
		RateLimit: a.Config.RateLimit,
	})

	site, err := discovery.NewSite(s, fetcher, logger)
	if err != nil {
		return nil, err
	}

	lib, err := library.New(filepath.Join(a.Root, s.Name), a.Config.Owner(), logger)
	if err != nil {
		return nil, err
	}

	return discovery.NewRetriever(site, lib, a.Notifier(), a.History, a.Logger), nil
}

// Close releases the connections the app holds.
func (a *App) Close() {
	if a.mqtt != nil {
		a.mqtt.Close()
	}
	if a.History != nil {
		if err := a.History.Close(); err != nil {
			a.Logger.Warn("failed to close history", "error", err)
		}
	}
}
