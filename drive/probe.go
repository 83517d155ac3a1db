package drive

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

var ErrUnreachable = errors.New("no reachable drive address")

// Address is one way of reaching the NAS.
type Address struct {
	Host  string
	Port  int
	HTTPS bool
}

// DefaultPort is used when an address leaves the port unset.
func (a Address) DefaultPort() int {
	if a.HTTPS {
		return 5001
	}
	return 5000
}

// URL returns scheme://host:port.
func (a Address) URL() string {
	scheme := "http"
	if a.HTTPS {
		scheme = "https"
	}
	port := a.Port
	if port == 0 {
		port = a.DefaultPort()
	}
	return fmt.Sprintf("%s://%s:%d", scheme, a.Host, port)
}

// Probe returns the first candidate whose root answers 200 within
// timeout. Candidates are tried in order.
func Probe(ctx context.Context, candidates []Address, timeout time.Duration) (Address, error) {
	client := resty.New().SetTimeout(timeout)

	for _, a := range candidates {
		res, err := client.R().SetContext(ctx).Get(a.URL())
		if err == nil && res.StatusCode() == http.StatusOK {
			return a, nil
		}
		if ctx.Err() != nil {
			return Address{}, ctx.Err()
		}
	}
	return Address{}, ErrUnreachable
}
