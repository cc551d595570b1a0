// Package client is the dashboard's typed client for the /api endpoints.
// Payloads are normalized here, so render code never sees a missing field.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/covidwatch/internal/covid"
	"github.com/wonny/covidwatch/pkg/config"
	"github.com/wonny/covidwatch/pkg/httputil"
	"github.com/wonny/covidwatch/pkg/logger"
)

// DefaultTimeout bounds a single dashboard request
const DefaultTimeout = 15 * time.Second

// ErrFetchFailed covers every transport, status and payload failure
var ErrFetchFailed = errors.New("fetch failed")

// Client calls the backend REST API
type Client struct {
	http    *httputil.Client
	logger  *logger.Logger
	baseURL string
}

// New creates a client for cfg.Dashboard.BaseURL. Requests are never retried.
func New(cfg *config.Config, log *logger.Logger) *Client {
	timeout := cfg.Dashboard.LoadTimeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		http:    httputil.NewWithTimeout(cfg, log, timeout).DisableRetry(),
		logger:  log.Component("client"),
		baseURL: strings.TrimRight(cfg.Dashboard.BaseURL, "/"),
	}
}

// BaseURL returns the backend root
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	body, err := c.http.GetBytes(ctx, u)
	if err != nil {
		c.logger.WithError(err).WithField("path", path).Debug("API request failed")
		return nil, fmt.Errorf("%w: %s: %w", ErrFetchFailed, path, err)
	}
	return body, nil
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, dest interface{}) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	if err := c.http.GetJSON(ctx, u, dest); err != nil {
		c.logger.WithError(err).WithField("path", path).Debug("API request failed")
		return fmt.Errorf("%w: %s: %w", ErrFetchFailed, path, err)
	}
	return nil
}

func shapeErr(path string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrFetchFailed, path, err)
}

// Countries fetches /api/countries
func (c *Client) Countries(ctx context.Context) ([]covid.Country, error) {
	const path = "/api/countries"
	body, err := c.get(ctx, path, nil)
	if err != nil {
		return nil, err
	}
	countries, err := covid.ParseCountries(body)
	if err != nil {
		return nil, shapeErr(path, err)
	}
	return countries, nil
}

// Global fetches /api/global
func (c *Client) Global(ctx context.Context) (covid.Global, error) {
	const path = "/api/global"
	body, err := c.get(ctx, path, nil)
	if err != nil {
		return covid.Global{}, err
	}
	g, err := covid.ParseGlobal(body)
	if err != nil {
		return covid.Global{}, shapeErr(path, err)
	}
	return g, nil
}

// Country fetches /api/country/{name}
func (c *Client) Country(ctx context.Context, name string) (covid.Country, error) {
	path := "/api/country/" + url.PathEscape(name)
	body, err := c.get(ctx, path, nil)
	if err != nil {
		return covid.Country{}, err
	}
	country, err := covid.ParseCountry(body)
	if err != nil {
		return covid.Country{}, shapeErr(path, err)
	}
	return country, nil
}

// Historical fetches /api/historical/{name}; days 0 leaves the backend default
func (c *Client) Historical(ctx context.Context, name string, days int) (covid.Historical, error) {
	path := "/api/historical/" + url.PathEscape(name)
	var params url.Values
	if days > 0 {
		params = url.Values{"days": {strconv.Itoa(days)}}
	}
	body, err := c.get(ctx, path, params)
	if err != nil {
		return covid.Historical{}, err
	}
	h, err := covid.ParseHistorical(body)
	if err != nil {
		return covid.Historical{}, shapeErr(path, err)
	}
	return h, nil
}

// Compare fetches /api/compare for names in one request
func (c *Client) Compare(ctx context.Context, names []string) ([]covid.ComparisonEntry, error) {
	var entries []covid.ComparisonEntry
	params := url.Values{"countries": {strings.Join(names, ",")}}
	if err := c.getJSON(ctx, "/api/compare", params, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// RiskAssessment fetches /api/risk-assessment/{name}
func (c *Client) RiskAssessment(ctx context.Context, name string) (covid.RiskAssessment, error) {
	var a covid.RiskAssessment
	if err := c.getJSON(ctx, "/api/risk-assessment/"+url.PathEscape(name), nil, &a); err != nil {
		return covid.RiskAssessment{}, err
	}
	return a, nil
}

// Vaccination fetches /api/vaccine/{name} and combines it with the country record
func (c *Client) Vaccination(ctx context.Context, country covid.Country) (covid.Vaccination, error) {
	path := "/api/vaccine/" + url.PathEscape(country.Country)
	body, err := c.get(ctx, path, nil)
	if err != nil {
		return covid.Vaccination{}, err
	}
	v, err := covid.ParseVaccination(body, country)
	if err != nil {
		return covid.Vaccination{}, shapeErr(path, err)
	}
	return v, nil
}

// ExportURL returns the CSV export link of a country
func (c *Client) ExportURL(name string) string {
	return c.baseURL + "/api/export/csv/" + url.PathEscape(name)
}

// DownloadCSV copies the CSV export of a country to w
func (c *Client) DownloadCSV(ctx context.Context, name string, w io.Writer) error {
	path := "/api/export/csv/" + url.PathEscape(name)
	body, err := c.get(ctx, path, nil)
	if err != nil {
		return err
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}
