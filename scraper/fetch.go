package scraper

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"

	"github.com/pevans/newsdocs/errs"
)

const (
	DefaultTimeout   = 2 * time.Minute
	DefaultRateLimit = 2
	userAgent        = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"
)

// FetcherOptions tunes a Fetcher. Zero values select the defaults.
type FetcherOptions struct {
	Timeout   time.Duration
	RateLimit float64 // requests per second
	UserAgent string
}

// Fetcher downloads pages for one site. Requests are rate limited and
// logged at debug level.
type Fetcher struct {
	client *resty.Client
}

// NewFetcher creates a Fetcher.
func NewFetcher(logger *slog.Logger, opts FetcherOptions) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = DefaultRateLimit
	}
	if opts.UserAgent == "" {
		opts.UserAgent = userAgent
	}

	client := resty.New()
	client.SetTimeout(opts.Timeout)
	client.SetHeader("User-Agent", opts.UserAgent)

	// burst >= 1 so no request is ever dropped, only delayed
	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), max(1, int(opts.RateLimit)))
	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		if err := limiter.Wait(req.Context()); err != nil {
			return err
		}
		logger.Debug("fetching", "method", req.Method, "url", req.URL)
		return nil
	})
	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		logger.Debug("fetched",
			"url", res.Request.URL,
			"status", res.StatusCode(),
			"duration", res.Time(),
		)
		return nil
	})

	return &Fetcher{client: client}
}

// Bytes fetches url and returns the raw body. Any status other than 200 is
// a FetchFailure.
func (f *Fetcher) Bytes(ctx context.Context, url string) ([]byte, string, error) {
	res, err := f.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, "", errs.Fetch(url, err)
	}
	if res.StatusCode() != http.StatusOK {
		return nil, "", errs.Fetch(url, fmt.Errorf("unexpected status %s", res.Status()))
	}
	return res.Body(), res.Header().Get("Content-Type"), nil
}

// Document fetches url and parses it as HTML. The body is decoded from the
// charset named in the Content-Type header or, failing that, the page's
// <meta> declaration, so GBK pages come out as UTF-8.
func (f *Fetcher) Document(ctx context.Context, url string) (*goquery.Document, error) {
	body, contentType, err := f.Bytes(ctx, url)
	if err != nil {
		return nil, err
	}

	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return nil, errs.Fetch(url, fmt.Errorf("failed to decode body: %w", err))
	}

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, errs.Fetch(url, fmt.Errorf("failed to parse HTML: %w", err))
	}
	return doc, nil
}

// Resolve resolves href against base. Unparseable input yields href as-is.
func Resolve(base, href string) string {
	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return b.ResolveReference(ref).String()
}

// Root returns the scheme and host of rawURL with a trailing slash.
func Root(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Scheme + "://" + u.Host + "/"
}
