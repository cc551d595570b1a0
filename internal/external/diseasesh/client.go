package diseasesh

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wonny/covidwatch/internal/covid"
	"github.com/wonny/covidwatch/pkg/httputil"
	"github.com/wonny/covidwatch/pkg/logger"
	"github.com/wonny/covidwatch/pkg/metrics"
)

// DefaultBaseURL is the public disease.sh COVID-19 API
const DefaultBaseURL = "https://disease.sh/v3/covid-19"

// ErrNotFound is returned when the upstream answers 404
var ErrNotFound = errors.New("not found upstream")

// Client handles communication with disease.sh
// ⭐ SSOT: disease.sh API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	metrics    *metrics.Manager
	baseURL    string
}

// NewClient creates a new disease.sh client
func NewClient(httpClient *httputil.Client, log *logger.Logger, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		logger:     log.Component("diseasesh"),
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// WithMetrics records every upstream call on m
func (c *Client) WithMetrics(m *metrics.Manager) *Client {
	c.metrics = m
	return c
}

// fetch GETs path and returns the body; endpoint labels metrics
func (c *Client) fetch(ctx context.Context, endpoint, path string, params url.Values) ([]byte, error) {
	fullURL := c.baseURL + path
	if len(params) > 0 {
		fullURL = fmt.Sprintf("%s?%s", fullURL, params.Encode())
	}

	start := time.Now()
	body, err := c.httpClient.GetBytes(ctx, fullURL)
	c.metrics.RecordUpstream(endpoint, err, time.Since(start))

	if err != nil {
		var statusErr *httputil.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("fetch %s: %w", endpoint, err)
	}

	return body, nil
}

// Global fetches worldwide totals (/all)
func (c *Client) Global(ctx context.Context) (covid.Global, error) {
	body, err := c.fetch(ctx, "all", "/all", nil)
	if err != nil {
		return covid.Global{}, err
	}
	return covid.ParseGlobal(body)
}

// Countries fetches every country (/countries)
func (c *Client) Countries(ctx context.Context) ([]covid.Country, error) {
	body, err := c.fetch(ctx, "countries", "/countries", nil)
	if err != nil {
		return nil, err
	}

	countries, err := covid.ParseCountries(body)
	if err != nil {
		return nil, err
	}

	c.logger.WithField("count", len(countries)).Debug("Fetched countries")
	return countries, nil
}

// Historical fetches the last `days` days for a country, or "all"
func (c *Client) Historical(ctx context.Context, country string, days int) (covid.Historical, error) {
	params := url.Values{}
	params.Set("lastdays", fmt.Sprintf("%d", days))

	body, err := c.fetch(ctx, "historical", "/historical/"+url.PathEscape(country), params)
	if err != nil {
		return covid.Historical{}, err
	}
	return covid.ParseHistorical(body)
}

// Vaccine fetches vaccine coverage for a country
func (c *Client) Vaccine(ctx context.Context, country string) (covid.VaccineCoverage, error) {
	body, err := c.fetch(ctx, "vaccine", "/vaccine/coverage/countries/"+url.PathEscape(country), nil)
	if err != nil {
		return covid.VaccineCoverage{}, err
	}
	return covid.ParseVaccineCoverage(body)
}
