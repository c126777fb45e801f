package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/campus-records-api/pkg/errors"
	"github.com/noah-isme/campus-records-api/pkg/middleware/requestid"
)

const (
	tracerName        = "github.com/noah-isme/campus-records-api/internal/clients"
	defaultTimeout    = 5 * time.Second
	maxDrainBodyBytes = 64 << 10
)

// Outcome labels reported to the Observer.
const (
	OutcomeOK          = "ok"
	OutcomeNotFound    = "not_found"
	OutcomeMalformed   = "malformed"
	OutcomeUnavailable = "unavailable"
)

// Observer records downstream call latency. *service.MetricsService satisfies it.
type Observer interface {
	ObserveDownstream(target, outcome string, duration time.Duration)
}

// Options configures a domain client.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Metrics    Observer
	Logger     *zap.Logger
}

// resourceClient fetches one kind of entity from GET {base}/{resource}/{key}.
type resourceClient struct {
	baseURL  string
	resource string
	kind     string
	timeout  time.Duration
	http     *http.Client
	metrics  Observer
	logger   *zap.Logger
}

func newResourceClient(opts Options, resource, kind string) resourceClient {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return resourceClient{
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		resource: resource,
		kind:     kind,
		timeout:  timeout,
		http:     httpClient,
		metrics:  opts.Metrics,
		logger:   logger,
	}
}

func (c resourceClient) service() string {
	return strings.ToLower(c.kind)
}

// fetch performs the GET and decodes a 200 body into dest. Every failure is
// returned as an *appErrors.Error of kind NotFound, MalformedUpstream or
// UpstreamUnavailable.
func (c resourceClient) fetch(ctx context.Context, key string, dest interface{}) (err error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "fetch "+c.resource)
	span.SetAttributes(attribute.String("downstream.resource", c.resource), attribute.String("downstream.key", key))
	start := time.Now()
	outcome := OutcomeUnavailable
	defer func() {
		if c.metrics != nil {
			c.metrics.ObserveDownstream(c.resource, outcome, time.Since(start))
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
		}
		span.End()
	}()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/%s/%s", c.baseURL, c.resource, url.PathEscape(key))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return appErrors.UpstreamUnavailable(c.service(), err)
	}
	req.Header.Set("Accept", "application/json")
	if id := requestid.FromContext(ctx); id != "" {
		req.Header.Set(requestid.HeaderKey, id)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("downstream request failed",
			zap.String("resource", c.resource),
			zap.String("key", key),
			zap.Error(err),
		)
		return appErrors.UpstreamUnavailable(c.service(), err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBodyBytes))
		_ = resp.Body.Close()
	}()

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	switch {
	case resp.StatusCode == http.StatusOK:
		if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
			return appErrors.UpstreamUnavailable(c.service(), fmt.Errorf("decode %s response: %w", c.resource, err))
		}
		outcome = OutcomeOK
		return nil
	case resp.StatusCode == http.StatusNotFound:
		outcome = OutcomeNotFound
		return appErrors.UpstreamNotFound(c.kind, key)
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		outcome = OutcomeMalformed
		c.logger.Info("downstream rejected request",
			zap.String("resource", c.resource),
			zap.String("key", key),
			zap.Int("status", resp.StatusCode),
		)
		return appErrors.Clone(appErrors.ErrMalformedUpstream, "")
	default:
		return appErrors.UpstreamUnavailable(c.service(), fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
}
