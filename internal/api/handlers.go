package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/paulmach/orb/geojson"
	"github.com/sirupsen/logrus"

	"buyerradar/server/config"
	"buyerradar/server/internal/dataset"
	"buyerradar/server/internal/geocoding"
	"buyerradar/server/internal/geometry"
	"buyerradar/server/internal/models"
	"buyerradar/server/internal/queue"
	"buyerradar/server/internal/search"
)

const (
	defaultRadiusMiles = 2.0
	defaultMonths      = 12
)

// Searcher runs buyer activity queries.
type Searcher interface {
	Query(ctx context.Context, p search.Params) (*search.Results, error)
	Footprint(ctx context.Context, p search.Params, buyerID string) ([]models.GeoPoint, error)
}

// Geocoder resolves the address query parameter.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (models.GeoPoint, error)
}

// ReloadQueue accepts reload requests.
type ReloadQueue interface {
	Push(req queue.ReloadRequest) error
}

type Handler struct {
	service  Searcher
	store    *dataset.Store
	reloads  ReloadQueue
	geocoder Geocoder
	logger   *logrus.Logger
	segments int
	now      func() time.Time
}

// NewHandler creates the API handler. geocoder may be nil, in which case the
// address parameter is rejected.
func NewHandler(service Searcher, store *dataset.Store, reloads ReloadQueue, geocoder Geocoder, segments int, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	if segments == 0 {
		segments = geometry.DefaultSegments
	}

	return &Handler{
		service:  service,
		store:    store,
		reloads:  reloads,
		geocoder: geocoder,
		logger:   logger,
		segments: segments,
		now:      time.Now,
	}
}

// BuyerQuery holds the query string of the search endpoints.
type BuyerQuery struct {
	Lat      *float64 `form:"lat"`
	Lng      *float64 `form:"lng"`
	Radius   *float64 `form:"radius"`
	Months   *int     `form:"months"`
	Category string   `form:"category"`
	Market   string   `form:"market"`
	Address  string   `form:"address"`
	Segments int      `form:"segments"`
}

type BuyersResponse struct {
	Summaries   []models.BuyerSummary `json:"summaries"`
	Boundary    *geojson.Feature      `json:"boundary"`
	Center      models.GeoPoint       `json:"center"`
	RadiusMiles float64               `json:"radius_miles"`
	Months      int                   `json:"months"`
	Category    models.Category       `json:"category"`
	Since       models.Date           `json:"since"`
	Total       int                   `json:"total"`
}

func invalidArgument(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", search.ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// params turns the query string into search parameters. The center comes
// from lat/lng, else from address, else from a market preset.
func (h *Handler) params(c *gin.Context) (search.Params, error) {
	var q BuyerQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		return search.Params{}, invalidArgument("malformed query parameters: %v", err)
	}

	p := search.Params{
		RadiusMiles: defaultRadiusMiles,
		Months:      defaultMonths,
		Category:    models.CategoryAll,
		Now:         h.now(),
		Segments:    h.segments,
	}

	switch {
	case q.Lat != nil || q.Lng != nil:
		if q.Lat == nil || q.Lng == nil {
			return search.Params{}, invalidArgument("lat and lng must be given together")
		}
		p.Center = models.GeoPoint{Latitude: *q.Lat, Longitude: *q.Lng}

	case q.Address != "":
		if h.geocoder == nil {
			return search.Params{}, invalidArgument("address lookup is disabled")
		}
		point, err := h.geocoder.Geocode(c.Request.Context(), q.Address)
		if errors.Is(err, geocoding.ErrNoResults) {
			return search.Params{}, invalidArgument("address %q could not be located", q.Address)
		}
		if err != nil {
			return search.Params{}, fmt.Errorf("%w: %w", errGeocoding, err)
		}
		p.Center = point

	case q.Market != "":
		market, ok := config.GetMarketByName(q.Market)
		if !ok {
			return search.Params{}, invalidArgument("unknown market %q", q.Market)
		}
		p.Center = market.Center
		p.RadiusMiles = market.DefaultRadius

	default:
		return search.Params{}, invalidArgument("a center is required: lat/lng, address or market")
	}

	if q.Radius != nil {
		p.RadiusMiles = *q.Radius
	}
	if q.Months != nil {
		p.Months = *q.Months
	}
	if q.Category != "" {
		p.Category = models.Category(q.Category)
	}
	if q.Segments != 0 {
		p.Segments = q.Segments
	}
	return p, nil
}

func (h *Handler) GetBuyers(c *gin.Context) {
	p, err := h.params(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	results, err := h.service.Query(c.Request.Context(), p)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, BuyersResponse{
		Summaries:   results.Summaries,
		Boundary:    geometry.BoundaryFeature(results.Center, results.RadiusMiles, results.Boundary),
		Center:      results.Center,
		RadiusMiles: results.RadiusMiles,
		Months:      results.Months,
		Category:    results.Category,
		Since:       results.Since,
		Total:       len(results.Summaries),
	})
}

func (h *Handler) GetBuyerFootprint(c *gin.Context) {
	p, err := h.params(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	buyerID := c.Param("id")
	points, err := h.service.Footprint(c.Request.Context(), p, buyerID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, geometry.FootprintFeature(buyerID, points))
}

func (h *Handler) GetBoundary(c *gin.Context) {
	p, err := h.params(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := p.Validate(); err != nil {
		h.respondError(c, err)
		return
	}

	ring, err := geometry.Boundary(p.Center, p.RadiusMiles, p.Segments)
	if err != nil {
		h.respondError(c, invalidArgument("%v", err))
		return
	}
	c.JSON(http.StatusOK, geometry.BoundaryFeature(p.Center, p.RadiusMiles, ring))
}

func (h *Handler) GetMarkets(c *gin.Context) {
	c.JSON(http.StatusOK, config.GetMarkets())
}

func (h *Handler) TriggerReload(c *gin.Context) {
	err := h.reloads.Push(queue.NewReloadRequest(queue.ReasonAPI))
	switch {
	case err == nil:
		c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
	case errors.Is(err, queue.ErrQueueFull):
		c.JSON(http.StatusAccepted, gin.H{"status": "already pending"})
	default:
		h.logger.WithError(err).Error("Failed to queue reload")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Reload is not available", "code": "unavailable"})
	}
}

func (h *Handler) Health(c *gin.Context) {
	snap := h.store.Current()
	if snap == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "loading"})
		return
	}

	buyers, properties, events := snap.Counts()
	c.JSON(http.StatusOK, gin.H{
		"status":           "ok",
		"snapshot_version": snap.Version,
		"source":           snap.Source,
		"loaded_at":        snap.LoadedAt,
		"buyers":           buyers,
		"properties":       properties,
		"events":           events,
		"dangling_events":  snap.DanglingReferences(),
	})
}
