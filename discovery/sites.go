package discovery

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/pevans/newsdocs/config"
	"github.com/pevans/newsdocs/scraper"
	"github.com/pevans/newsdocs/scraper/hubeigov"
	"github.com/pevans/newsdocs/scraper/renmin"
	"github.com/pevans/newsdocs/scraper/selector"
)

var ErrUnknownKind = errors.New("unknown site kind")

// NewSite builds the scraper variant configured for site.
func NewSite(site config.Site, fetcher *scraper.Fetcher, logger *slog.Logger) (scraper.Site, error) {
	info := site.Info()

	switch kind := site.SiteKind(); kind {
	case config.KindHubeigov:
		return hubeigov.New(info, fetcher, logger), nil
	case config.KindRenmin:
		return renmin.New(info, fetcher, logger), nil
	case config.KindRenminJP:
		return renmin.NewJapanese(info, fetcher, logger), nil
	case config.KindSelector:
		if site.ScraperConfig == nil {
			return nil, fmt.Errorf("site %s: %w", site.Name, scraper.ErrMissingSelector)
		}
		s, err := selector.New(info, *site.ScraperConfig, fetcher, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("site %s: %w %q", site.Name, ErrUnknownKind, kind)
	}
}
