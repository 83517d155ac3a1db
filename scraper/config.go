package scraper

import (
	"errors"
	"fmt"
)

// Discovery modes of a selector-driven site.
const (
	ModeList = "list"
	ModeFeed = "feed"
)

// DefaultMaxPages bounds every pagination loop that has no explicit limit.
const DefaultMaxPages = 50

var ErrMissingSelector = errors.New("missing selector")

// ScraperConfig defines how to extract articles from a site that has no
// dedicated variant.
type ScraperConfig struct {
	DiscoveryMode string        `yaml:"discovery_mode"` // "list" or "feed"
	Category      string        `yaml:"category,omitempty"`
	ListConfig    *ListConfig   `yaml:"list_config,omitempty"`
	ArticleConfig ArticleConfig `yaml:"article_config"`
}

// ListConfig defines how to discover articles from listing pages. Entry
// selectors are evaluated relative to each matched article element.
type ListConfig struct {
	ArticleSelector    string `yaml:"article_selector"`
	CategorySelector   string `yaml:"category_selector,omitempty"`
	TitleSelector      string `yaml:"title_selector,omitempty"`
	LinkSelector       string `yaml:"link_selector,omitempty"`
	DateSelector       string `yaml:"date_selector,omitempty"`
	PaginationSelector string `yaml:"pagination_selector,omitempty"`
	MaxPages           int    `yaml:"max_pages"` // Default: 1
}

// ArticleConfig defines where the body paragraphs of an article page are.
type ArticleConfig struct {
	ContentSelector   string `yaml:"content_selector"`
	ParagraphSelector string `yaml:"paragraph_selector,omitempty"` // Default: "p"
	SubtitleSelector  string `yaml:"subtitle_selector,omitempty"`
}

// Validate checks that the selectors required by the discovery mode are
// present and fills in defaults.
func (c *ScraperConfig) Validate() error {
	switch c.DiscoveryMode {
	case "", ModeList:
		c.DiscoveryMode = ModeList
		if c.ListConfig == nil || c.ListConfig.ArticleSelector == "" {
			return fmt.Errorf("list mode: article_selector: %w", ErrMissingSelector)
		}
		if c.ListConfig.MaxPages <= 0 {
			c.ListConfig.MaxPages = 1
		}
	case ModeFeed:
	default:
		return fmt.Errorf("unknown discovery mode %q", c.DiscoveryMode)
	}

	if c.ArticleConfig.ContentSelector == "" {
		return fmt.Errorf("article: content_selector: %w", ErrMissingSelector)
	}
	if c.ArticleConfig.ParagraphSelector == "" {
		c.ArticleConfig.ParagraphSelector = "p"
	}
	return nil
}
