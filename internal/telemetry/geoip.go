package telemetry

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// defaultGeoEndpoint is ip-api.com's free tier (45 requests/minute for
// non-commercial use); results are cached per IP for the process
// lifetime to stay well under that.
const defaultGeoEndpoint = "http://ip-api.com/json/"

// Location is the subset of geolocation data attached to telemetry
// events. The zero value reads as "unknown" everywhere.
type Location struct {
	Country     string  `json:"country"`
	CountryCode string  `json:"countryCode"`
	Region      string  `json:"regionName"`
	City        string  `json:"city"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	Timezone    string  `json:"timezone"`
	ISP         string  `json:"isp"`
}

type geoResponse struct {
	Status string `json:"status"`
	Location
}

// GeoResolver looks up the geographic location of client IPs.
type GeoResolver struct {
	client   *http.Client
	endpoint string
	logger   *zap.Logger

	mu    sync.Mutex
	cache map[string]Location
}

// NewGeoResolver constructs a resolver against ip-api.com.
func NewGeoResolver(logger *zap.Logger) *GeoResolver {
	return &GeoResolver{
		client:   &http.Client{Timeout: 5 * time.Second},
		endpoint: defaultGeoEndpoint,
		logger:   logger,
		cache:    make(map[string]Location),
	}
}

// Lookup resolves an IP to a location, best-effort: local and private
// addresses are skipped, and any lookup failure yields the zero
// Location rather than an error.
func (g *GeoResolver) Lookup(ctx context.Context, ip string) Location {
	if isPrivate(ip) {
		return Location{Country: "unknown"}
	}

	g.mu.Lock()
	loc, ok := g.cache[ip]
	g.mu.Unlock()
	if ok {
		return loc
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		g.endpoint+ip+"?fields=status,country,countryCode,regionName,city,lat,lon,timezone,isp", nil)
	if err != nil {
		return Location{Country: "unknown"}
	}

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.Debug("geoip lookup failed", zap.String("ip", ip), zap.Error(err))
		return Location{Country: "unknown"}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		g.logger.Debug("geoip lookup status", zap.String("ip", ip), zap.Int("status", resp.StatusCode))
		return Location{Country: "unknown"}
	}

	var body geoResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Status != "success" {
		return Location{Country: "unknown"}
	}

	g.mu.Lock()
	g.cache[ip] = body.Location
	g.mu.Unlock()
	return body.Location
}

func isPrivate(ip string) bool {
	if ip == "" || ip == "unknown" || ip == "localhost" || ip == "127.0.0.1" || ip == "::1" {
		return true
	}
	for _, prefix := range []string{"10.", "192.168.", "172."} {
		if strings.HasPrefix(ip, prefix) {
			return true
		}
	}
	return false
}
