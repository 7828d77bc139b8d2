package postcode

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://api.postcodes.io"

// Options configures the postcodes.io client.
type Options struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	// RatePerSec caps outgoing lookups; postcodes.io is a free public API.
	RatePerSec float64
}

// Client queries the postcodes.io single-postcode endpoint.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
	limiter   *rate.Limiter
}

// NewClient creates a postcodes.io client with the given options.
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "where-your-taxes-go/0.1"
	}
	if opts.Timeout == 0 {
		opts.Timeout = 8 * time.Second
	}
	if opts.RatePerSec == 0 {
		opts.RatePerSec = 10
	}
	return &Client{
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		userAgent: opts.UserAgent,
		http:      &http.Client{Timeout: opts.Timeout},
		limiter:   rate.NewLimiter(rate.Limit(opts.RatePerSec), 1),
	}
}

// lookupResponse is the postcodes.io payload; only the fields we map.
type lookupResponse struct {
	Result struct {
		Postcode      string `json:"postcode"`
		AdminDistrict string `json:"admin_district"`
		Region        string `json:"region"`
		Country       string `json:"country"`
	} `json:"result"`
}

// Lookup implements Lookup. An empty or whitespace postcode and a 404 both
// return (nil, nil).
func (c *Client) Lookup(ctx context.Context, postcode string) (*Place, error) {
	pc := strings.TrimSpace(postcode)
	if pc == "" {
		return nil, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "postcode: rate limiter wait")
	}

	reqURL := c.baseURL + "/postcodes/" + url.PathEscape(pc)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "postcode: build request")
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "postcode: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("postcode: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "postcode: read body")
	}

	var payload lookupResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, eris.Wrap(err, "postcode: parse response")
	}

	place := &Place{
		Postcode:    payload.Result.Postcode,
		CouncilName: payload.Result.AdminDistrict,
		Region:      payload.Result.Region,
		Country:     payload.Result.Country,
	}
	if place.Postcode == "" {
		place.Postcode = pc
	}
	return place, nil
}
