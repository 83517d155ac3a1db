// Package config loads the YAML configuration of the pipeline: the main
// config file, an optional secret file merged over it, and environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pevans/newsdocs/fsutil"
	"github.com/pevans/newsdocs/scraper"
)

// Site kinds with a dedicated scraper. Anything else needs a
// scraper_config and uses the selector scraper.
const (
	KindHubeigov = "hubeigov"
	KindRenmin   = "renmin"
	KindRenminJP = "renmin_jp"
	KindSelector = "selector"
)

const (
	DefaultSaveFolder    = "docx"
	DefaultProbeTimeout  = 3 * time.Second
	DefaultWorkers       = 2
	DefaultRootFolder    = "/mydrive/新闻文档爬取与合并/"
	DefaultStarredFolder = "加星"
	DefaultAPIAddr       = ":8090"
)

var (
	ErrNoSites        = errors.New("no news sites configured")
	ErrDuplicateSite  = errors.New("duplicate site name")
	ErrMissingSiteKey = errors.New("site needs a name and name_cn")
)

// StringList accepts either a single string or a list of strings.
type StringList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *StringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Value == "" {
			*l = nil
			return nil
		}
		*l = StringList{value.Value}
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := value.Decode(&items); err != nil {
			return err
		}
		*l = items
		return nil
	default:
		return fmt.Errorf("line %d: expected a string or a list of strings", value.Line)
	}
}

// Config is the whole configuration file.
type Config struct {
	SaveFolder   string        `yaml:"save_folder"`
	UID          *int          `yaml:"uid"`
	GID          *int          `yaml:"gid"`
	NotifySwitch bool          `yaml:"notify_switch"`
	WebhookURL   string        `yaml:"webhook_url"`
	MQTT         MQTT          `yaml:"mqtt"`
	Telegram     Telegram      `yaml:"telegram"`
	ScheduleTime StringList    `yaml:"schedule_time"`
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
	ProbeTimeout time.Duration `yaml:"probe_timeout"`
	RateLimit    float64       `yaml:"rate_limit"`
	Workers      int           `yaml:"workers"`
	DebugMode    bool          `yaml:"debug_mode"`
	NewsSites    []Site        `yaml:"news_sites"`
	Drive        Drive         `yaml:"drive"`
	History      History       `yaml:"history"`
	API          API           `yaml:"api"`
}

// Site is one entry of news_sites.
type Site struct {
	Name          string                 `yaml:"name"`
	NameCN        string                 `yaml:"name_cn"`
	Kind          string                 `yaml:"kind"`
	URL           StringList             `yaml:"url"`
	Year          int                    `yaml:"year"`
	MaxPages      int                    `yaml:"max_pages"`
	ScraperConfig *scraper.ScraperConfig `yaml:"scraper_config"`
}

// MQTT configures the message-bus notifier.
type MQTT struct {
	Broker   string `yaml:"broker"`
	Topic    string `yaml:"topic"`
	ClientID string `yaml:"client_id"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// Telegram configures the chat notifier.
type Telegram struct {
	Token  string `yaml:"token"`
	ChatID int64  `yaml:"chat_id"`
}

// Address is one candidate address of the NAS.
type Address struct {
	Address string `yaml:"address"`
	Port    int    `yaml:"port"`
	HTTPS   bool   `yaml:"https"`
}

// Drive configures the NAS drive star-sync.
type Drive struct {
	Username      string    `yaml:"username"`
	Password      string    `yaml:"password"`
	Addresses     []Address `yaml:"addresses"`
	RootFolder    string    `yaml:"root_folder"`
	Folders       []string  `yaml:"folders"`
	StarredFolder string    `yaml:"starred_folder"`
}

// Enabled reports whether star-sync has enough configuration to run.
func (d Drive) Enabled() bool {
	return d.Username != "" && len(d.Addresses) > 0
}

// History configures the run ledger.
type History struct {
	DSN string `yaml:"dsn"`
}

// API configures the status API of the daemon.
type API struct {
	Addr string `yaml:"addr"`
}

// Owner returns the ownership applied to written files.
func (c *Config) Owner() fsutil.Owner {
	owner := fsutil.NoOwner
	if c.UID != nil {
		owner.UID = *c.UID
	}
	if c.GID != nil {
		owner.GID = *c.GID
	}
	return owner
}

// Root returns the absolute save folder.
func (c *Config) Root() (string, error) {
	root, err := filepath.Abs(c.SaveFolder)
	if err != nil {
		return "", fmt.Errorf("failed to resolve save folder: %w", err)
	}
	return root, nil
}

// Site returns the site with the given name.
func (c *Config) Site(name string) (Site, bool) {
	for _, s := range c.NewsSites {
		if s.Name == name {
			return s, true
		}
	}
	return Site{}, false
}

// Info converts the site entry to the scraper's view of it.
func (s Site) Info() scraper.Info {
	return scraper.Info{
		Name:     s.Name,
		NameCN:   s.NameCN,
		URLs:     s.URL,
		Year:     s.Year,
		MaxPages: s.MaxPages,
	}
}

// SiteKind returns the scraper kind, defaulting to the site name for the
// built-in sites and to the selector scraper when selectors are given.
func (s Site) SiteKind() string {
	switch {
	case s.Kind != "":
		return s.Kind
	case s.ScraperConfig != nil:
		return KindSelector
	default:
		return s.Name
	}
}

func (c *Config) applyDefaults() {
	if c.SaveFolder == "" {
		c.SaveFolder = DefaultSaveFolder
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = scraper.DefaultTimeout
	}
	if c.ProbeTimeout <= 0 {
		c.ProbeTimeout = DefaultProbeTimeout
	}
	if c.RateLimit <= 0 {
		c.RateLimit = scraper.DefaultRateLimit
	}
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	if c.Drive.RootFolder == "" {
		c.Drive.RootFolder = DefaultRootFolder
	}
	if c.Drive.StarredFolder == "" {
		c.Drive.StarredFolder = DefaultStarredFolder
	}
	if len(c.Drive.Folders) == 0 {
		for _, s := range c.NewsSites {
			c.Drive.Folders = append(c.Drive.Folders, s.Name)
		}
	}
	if c.API.Addr == "" {
		c.API.Addr = DefaultAPIAddr
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = "newsdocs"
	}
}

// Validate checks the site list.
func (c *Config) Validate() error {
	if len(c.NewsSites) == 0 {
		return ErrNoSites
	}

	seen := map[string]bool{}
	for _, s := range c.NewsSites {
		if s.Name == "" || s.NameCN == "" {
			return fmt.Errorf("%w: %+v", ErrMissingSiteKey, s)
		}
		if seen[s.Name] {
			return fmt.Errorf("%w: %s", ErrDuplicateSite, s.Name)
		}
		seen[s.Name] = true
	}

	for _, t := range c.ScheduleTime {
		if _, err := time.Parse("15:04", t); err != nil {
			return fmt.Errorf("invalid schedule_time %q: %w", t, err)
		}
	}
	return nil
}
