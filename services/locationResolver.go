package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/PrayerWall/geocoding"
	"github.com/PrayerWall/regions"
)

// ErrLocationUnavailable is returned when the device did not supply
// coordinates. Callers render it as the manual-selection advisory.
var ErrLocationUnavailable = fmt.Errorf("%w: location detection is not available, please select your city manually", ErrUnavailable)

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type LocationResult struct {
	Detected      string           `json:"detected"`
	SuggestedHome string           `json:"suggestedHome,omitempty"`
	Options       []regions.Option `json:"options"`
}

// DetectedLocationSaver persists a resolved location for a user.
type DetectedLocationSaver interface {
	SaveDetectedLocation(ctx context.Context, userID, detected string) error
}

type LocationResolver struct {
	geocoder geocoding.Geocoder
	catalog  *regions.Catalog
	saver    DetectedLocationSaver
	log      *zap.Logger

	// persist runs detached from the request; wg lets shutdown wait for it.
	// closed is checked under mu so no Add races the final Wait.
	mu           sync.Mutex
	closed       bool
	wg           sync.WaitGroup
	persistAfter time.Duration
}

func NewLocationResolver(geocoder geocoding.Geocoder, catalog *regions.Catalog, saver DetectedLocationSaver, logger *zap.Logger) *LocationResolver {
	return &LocationResolver{
		geocoder:     geocoder,
		catalog:      catalog,
		saver:        saver,
		log:          logger.Named("location"),
		persistAfter: 10 * time.Second,
	}
}

// Detect turns coordinates into a canonical "City, Province" without
// persisting anything.
func (r *LocationResolver) Detect(ctx context.Context, coords *Coordinates) (LocationResult, error) {
	if coords == nil {
		return LocationResult{}, ErrLocationUnavailable
	}

	address, err := r.geocoder.Reverse(ctx, coords.Latitude, coords.Longitude)
	if err != nil {
		r.log.Warn("reverse geocode failed", zap.Error(err))
		return LocationResult{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	city := address.Locality()
	if city == "" {
		return LocationResult{}, fmt.Errorf("%w: %w", ErrUnavailable, geocoding.ErrNoAddress)
	}

	province := r.catalog.TranslateProvince(address.Province())
	result := LocationResult{Detected: regions.FormatLocation(city, province)}

	if region, ok := r.catalog.MatchCityPrefix(city); ok {
		result.SuggestedHome = region.Canonical()
	}
	result.Options = r.catalog.LocationOptions(result.Detected)

	return result, nil
}

// Resolve detects the location and stores it as the user's detected
// location. The write happens once, in the background; its failure is
// logged and does not affect the returned result.
func (r *LocationResolver) Resolve(ctx context.Context, userID string, coords *Coordinates) (LocationResult, error) {
	result, err := r.Detect(ctx, coords)
	if err != nil {
		return LocationResult{}, err
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		r.log.Warn("detected location not saved during shutdown", zap.String("user_id", userID))
		return result, nil
	}
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.persistAfter)
		defer cancel()

		if err := r.saver.SaveDetectedLocation(ctx, userID, result.Detected); err != nil {
			r.log.Error("save detected location",
				zap.String("user_id", userID),
				zap.String("detected", result.Detected),
				zap.Error(err),
			)
		}
	}()

	return result, nil
}

// Wait blocks until background writes started by Resolve have finished.
func (r *LocationResolver) Wait() {
	r.wg.Wait()
}

// Shutdown stops starting background writes and waits for running ones.
func (r *LocationResolver) Shutdown() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	r.wg.Wait()
}

// IsUnavailable reports whether err should be shown as the manual-selection
// advisory rather than as a failure.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
