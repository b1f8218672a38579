// Package enrich backfills record fields from an external post lookup
// service. Disabled unless an endpoint is configured; the engine works fine
// without it, records just keep whatever the page surface yielded.
package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"feedtrack/internal/config"
	"feedtrack/internal/core"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"resty.dev/v3"
)

var apiLatency = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "feedtrack_enrich_request_latency",
		Help:    "Histogram of enrichment API request latency in seconds",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
	},
	[]string{"method", "path", "status_code"},
)

type postInfo struct {
	Text   string `json:"text"`
	Author string `json:"author"`
	Handle string `json:"handle"`
}

type Enricher struct {
	Logger *slog.Logger
	Config *config.Config

	client *resty.Client
}

func (e *Enricher) Init(_ context.Context) error {
	e.Logger = e.Logger.With("component", "enrich.Enricher")

	if e.Config.EnrichURL == "" {
		e.Logger.Debug("enrichment disabled")
		return nil
	}

	e.client = resty.NewWithTransportSettings(&resty.TransportSettings{
		DialerTimeout:         1 * time.Second,
		DialerKeepAlive:       1 * time.Second,
		IdleConnTimeout:       1 * time.Second,
		TLSHandshakeTimeout:   1 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: 1 * time.Second,
	}).
		SetBaseURL(e.Config.EnrichURL).
		AddResponseMiddleware(metricMiddleware)

	return nil
}

func (e *Enricher) Shutdown(_ context.Context) error {
	if e.client == nil {
		return nil
	}
	return e.client.Close()
}

// Enrich fills the record's empty text and author fields by id. Records
// without an id, and records that are already complete, are left alone.
func (e *Enricher) Enrich(ctx context.Context, record *core.PostRecord) error {
	if e.client == nil || record.ID == "" {
		return nil
	}
	if record.Text != "" && record.Author != "" && record.Handle != "" {
		return nil
	}

	var info postInfo

	resp, err := e.client.R().
		WithContext(ctx).
		SetPathParam("id", record.ID).
		SetResult(&info).
		Get("/posts/{id}")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("post lookup failed: %s", resp.Status())
	}

	if record.Text == "" {
		record.Text = info.Text
	}
	if record.Author == "" {
		record.Author = info.Author
	}
	if record.Handle == "" {
		record.Handle = info.Handle
	}

	return nil
}

func metricMiddleware(_ *resty.Client, response *resty.Response) error {
	reqURL, err := url.Parse(response.Request.URL)
	if err != nil {
		return err
	}

	apiLatency.WithLabelValues(
		response.Request.Method,
		reqURL.Path,
		fmt.Sprintf("%d", response.StatusCode()),
	).Observe(response.Duration().Seconds())

	return nil
}
