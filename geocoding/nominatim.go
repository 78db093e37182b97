// Package geocoding turns coordinates into a postal address.
package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL   = "https://nominatim.openstreetmap.org"
	DefaultUserAgent = "PrayerWall/1.0"
)

var ErrNoAddress = errors.New("geocoding: no address for coordinates")

// Address holds the subset of the Nominatim address block we read.
type Address struct {
	City          string `json:"city"`
	Town          string `json:"town"`
	StateDistrict string `json:"state_district"`
	Village       string `json:"village"`
	State         string `json:"state"`
	Region        string `json:"region"`
	County        string `json:"county"`
}

// Locality is the most specific settlement name available.
func (a Address) Locality() string {
	return firstNonEmpty(a.City, a.Town, a.StateDistrict, a.Village)
}

// Province is the first-level administrative area.
func (a Address) Province() string {
	return firstNonEmpty(a.State, a.Region, a.County)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

type Geocoder interface {
	Reverse(ctx context.Context, latitude, longitude float64) (Address, error)
}

type reverseResponse struct {
	Address *Address `json:"address"`
	Error   string   `json:"error"`
}

// Nominatim is a reverse geocoder backed by the OpenStreetMap Nominatim API.
// The public instance allows one request per second, so calls wait on a
// shared limiter.
type Nominatim struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	log        *zap.Logger
}

type Options struct {
	BaseURL           string
	UserAgent         string
	RequestsPerSecond float64
	Timeout           time.Duration
}

func NewNominatim(opts Options, logger *zap.Logger) *Nominatim {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 1
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}

	return &Nominatim{
		baseURL:    opts.BaseURL,
		userAgent:  opts.UserAgent,
		httpClient: &http.Client{Timeout: opts.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1),
		log:        logger.Named("nominatim"),
	}
}

func (n *Nominatim) Reverse(ctx context.Context, latitude, longitude float64) (Address, error) {
	query := url.Values{}
	query.Set("format", "json")
	query.Set("lat", strconv.FormatFloat(latitude, 'f', -1, 64))
	query.Set("lon", strconv.FormatFloat(longitude, 'f', -1, 64))
	reqURL := n.baseURL + "/reverse?" + query.Encode()

	if err := n.limiter.Wait(ctx); err != nil {
		return Address{}, fmt.Errorf("geocoding: rate limit wait: %w", err)
	}

	resp, err := n.doWithRetry(ctx, reqURL)
	if err != nil {
		n.log.Error("reverse geocode failed", zap.Float64("lat", latitude), zap.Float64("lon", longitude), zap.Error(err))
		return Address{}, fmt.Errorf("geocoding: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Address{}, fmt.Errorf("geocoding: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Address{}, fmt.Errorf("geocoding: read body: %w", err)
	}

	var decoded reverseResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return Address{}, fmt.Errorf("geocoding: decode json: %w", err)
	}
	if decoded.Error != "" || decoded.Address == nil {
		return Address{}, ErrNoAddress
	}

	n.log.Debug("reverse geocode",
		zap.String("locality", decoded.Address.Locality()),
		zap.String("province", decoded.Address.Province()),
	)
	return *decoded.Address, nil
}

func (n *Nominatim) newRequest(ctx context.Context, reqURL string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("geocoding: create request: %w", err)
	}
	req.Header.Set("User-Agent", n.userAgent)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// doWithRetry retries once on 5xx or network errors.
func (n *Nominatim) doWithRetry(ctx context.Context, reqURL string) (*http.Response, error) {
	req, err := n.newRequest(ctx, reqURL)
	if err != nil {
		return nil, err
	}

	resp, err := n.httpClient.Do(req)
	shouldRetry := err != nil || (resp != nil && resp.StatusCode >= 500)
	if !shouldRetry || ctx.Err() != nil {
		return resp, err
	}

	reason := "network error"
	if err == nil {
		reason = fmt.Sprintf("status %d", resp.StatusCode)
	}
	n.log.Warn("retrying reverse geocode", zap.String("reason", reason))

	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	if err := n.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err = n.newRequest(ctx, reqURL)
	if err != nil {
		return nil, err
	}
	return n.httpClient.Do(req)
}
