package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/sirosfoundation/target-sherpaan/pkg/compression"
)

// TLS version constants
const (
	TLS12 = tls.VersionTLS12
	TLS13 = tls.VersionTLS13
)

// ContentTypeSOAP12 is the content type of every request
const ContentTypeSOAP12 = "application/soap+xml; charset=utf-8"

// SOAPActionNamespace prefixes the operation name in the SOAPAction header
const SOAPActionNamespace = "http://sherpa.sherpaan.nl/"

// DefaultUserAgent identifies the connector to the service
const DefaultUserAgent = "target-sherpaan/1.0"

const tracerName = "github.com/sirosfoundation/target-sherpaan/pkg/transport"

// maxLoggedEnvelope bounds the request envelope written to debug logs
const maxLoggedEnvelope = 2000

// Recommended TLS 1.2 cipher suites
var RecommendedTLS12CipherSuites = []uint16{
	tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
	tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
}

// Observer receives per-call measurements
type Observer interface {
	ObserveRequest(operation string, duration time.Duration, err error)
	ObserveRetry(operation string)
}

type nopObserver struct{}

func (nopObserver) ObserveRequest(string, time.Duration, error) {}
func (nopObserver) ObserveRetry(string)                         {}

// HTTPSConfig contains HTTPS client configuration
type HTTPSConfig struct {
	MinTLSVersion   uint16
	MaxTLSVersion   uint16
	CipherSuites    []uint16
	RootCAs         *x509.CertPool
	Timeout         time.Duration
	IdleConnTimeout time.Duration
	UserAgent       string

	Retry          RetryPolicy
	CircuitBreaker *CircuitBreakerConfig // nil disables the breaker

	// RoundTripper replaces the pooled TLS transport, mainly for tests
	RoundTripper   http.RoundTripper
	Observer       Observer
	TracerProvider trace.TracerProvider
	Logger         *slog.Logger
}

// DefaultHTTPSConfig returns a default HTTPS configuration
func DefaultHTTPSConfig() *HTTPSConfig {
	return &HTTPSConfig{
		MinTLSVersion:   TLS12,
		MaxTLSVersion:   TLS13,
		CipherSuites:    RecommendedTLS12CipherSuites,
		Timeout:         300 * time.Second,
		IdleConnTimeout: 90 * time.Second,
		UserAgent:       DefaultUserAgent,
		Retry:           DefaultRetryPolicy(),
	}
}

// HTTPSClient sends SOAP envelopes to a single Sherpa endpoint
type HTTPSClient struct {
	client     *http.Client
	config     *HTTPSConfig
	endpoint   string
	retry      RetryPolicy
	breaker    *gobreaker.CircuitBreaker
	compressor *compression.Compressor
	observer   Observer
	tracer     trace.Tracer
	logger     *slog.Logger
}

// NewHTTPSClient creates a client for endpoint, resolved with ResolveURL
func NewHTTPSClient(endpoint string, config *HTTPSConfig) *HTTPSClient {
	if config == nil {
		config = DefaultHTTPSConfig()
	}

	rt := config.RoundTripper
	if rt == nil {
		rt = &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{
				MinVersion:   config.MinTLSVersion,
				MaxVersion:   config.MaxTLSVersion,
				CipherSuites: config.CipherSuites,
				RootCAs:      config.RootCAs,
			},
			IdleConnTimeout:     config.IdleConnTimeout,
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 2,
		}
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	observer := config.Observer
	if observer == nil {
		observer = nopObserver{}
	}
	tp := config.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}

	c := &HTTPSClient{
		client: &http.Client{
			Transport: rt,
			Timeout:   config.Timeout,
		},
		config:     config,
		endpoint:   ResolveURL(endpoint),
		retry:      config.Retry.withDefaults(),
		compressor: compression.NewCompressor(),
		observer:   observer,
		tracer:     tp.Tracer(tracerName),
		logger:     logger,
	}

	if config.CircuitBreaker != nil {
		c.breaker = newBreaker("sherpa", config.CircuitBreaker, func(from, to gobreaker.State) {
			c.logger.Warn("circuit breaker state changed",
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		})
	}

	return c
}

// Endpoint returns the resolved endpoint URL
func (c *HTTPSClient) Endpoint() string {
	return c.endpoint
}

// Send posts a SOAP envelope for operation and returns the response body.
// Failures are returned as *TransportError after the retry budget is spent.
func (c *HTTPSClient) Send(ctx context.Context, operation string, envelope []byte) ([]byte, error) {
	ctx, span := c.tracer.Start(ctx, "soap "+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("soap.operation", operation),
			attribute.String("soap.action", SOAPAction(operation)),
			attribute.String("url.full", c.endpoint),
		))
	defer span.End()

	start := time.Now()
	response, err := c.execute(ctx, operation, envelope)
	c.observer.ObserveRequest(operation, time.Since(start), err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetStatus(codes.Ok, "")
	return response, nil
}

func (c *HTTPSClient) execute(ctx context.Context, operation string, envelope []byte) ([]byte, error) {
	if c.breaker == nil {
		return c.sendWithRetry(ctx, operation, envelope)
	}

	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.sendWithRetry(ctx, operation, envelope)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, &TransportError{Operation: operation, URL: c.endpoint, Err: ErrCircuitOpen}
	}
	if err != nil {
		return nil, err
	}
	return out.([]byte), nil
}

func (c *HTTPSClient) sendWithRetry(ctx context.Context, operation string, envelope []byte) ([]byte, error) {
	log := c.logger.With(slog.String("operation", operation))

	var (
		response []byte
		attempt  int
	)
	call := func() error {
		attempt++
		data, err := c.post(ctx, operation, envelope)
		if err == nil {
			response = data
			return nil
		}

		var terr *TransportError
		if errors.As(err, &terr) {
			terr.Attempts = attempt
			if c.retry.SkipClientErrors && terr.ClientError() {
				return backoff.Permanent(err)
			}
		}
		if ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		log.Warn("soap call failed, retrying",
			slog.Int("attempt", attempt),
			slog.Duration("wait", wait),
			slog.String("error", err.Error()))
		c.observer.ObserveRetry(operation)
	}

	err := backoff.RetryNotify(call, c.retry.backOff(ctx), notify)
	if err == nil {
		return response, nil
	}

	var terr *TransportError
	if !errors.As(err, &terr) {
		// context cancelled while waiting between attempts
		terr = &TransportError{Operation: operation, URL: c.endpoint, Attempts: attempt, Err: err}
	}
	log.Error("soap call failed",
		slog.Int("attempts", terr.Attempts),
		slog.Int("status", terr.StatusCode),
		slog.String("error", terr.Error()))
	return nil, terr
}

// post performs a single HTTP round trip
func (c *HTTPSClient) post(ctx context.Context, operation string, envelope []byte) ([]byte, error) {
	fail := func(status int, body []byte, err error) error {
		return &TransportError{
			Operation:  operation,
			URL:        c.endpoint,
			StatusCode: status,
			Body:       truncate(body),
			Attempts:   1,
			Err:        err,
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(envelope))
	if err != nil {
		return nil, fail(0, nil, fmt.Errorf("failed to create request: %w", err))
	}

	userAgent := c.config.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	req.Header.Set("Content-Type", ContentTypeSOAP12)
	req.Header.Set("SOAPAction", SOAPAction(operation))
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Encoding", compression.AcceptEncoding)
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("User-Agent", userAgent)

	c.logger.Info("calling soap operation", slog.String("operation", operation), slog.String("url", c.endpoint))
	if c.logger.Enabled(ctx, slog.LevelDebug) {
		c.logger.Debug("soap envelope", slog.String("operation", operation), slog.String("envelope", truncateLog(envelope)))
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fail(0, nil, fmt.Errorf("failed to send request: %w", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fail(resp.StatusCode, nil, fmt.Errorf("failed to read response: %w", err))
	}

	body, err := c.compressor.Decompress(raw, resp.Header.Get("Content-Encoding"))
	if err != nil {
		return nil, fail(resp.StatusCode, raw, fmt.Errorf("failed to decode response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("unexpected HTTP status",
			slog.String("operation", operation),
			slog.Int("status", resp.StatusCode),
			slog.String("body", truncate(body)))
		return nil, fail(resp.StatusCode, body, fmt.Errorf("unexpected status code %d", resp.StatusCode))
	}

	return body, nil
}

// SOAPAction returns the quoted SOAPAction header value for operation
func SOAPAction(operation string) string {
	return `"` + SOAPActionNamespace + operation + `"`
}

// EndpointURL derives the service URL for a shop from the configured base URL
func EndpointURL(baseURL, shopID string) string {
	base := strings.TrimRight(strings.ReplaceAll(strings.TrimSpace(baseURL), "?wsdl", ""), "/")
	if shopID == "" || hasAsmxSegment(base) {
		return ResolveURL(base)
	}
	return ResolveURL(base + "/" + shopID)
}

// ResolveURL strips a "?wsdl" suffix and appends /Sherpa.asmx unless the URL
// path already ends in an .asmx segment
func ResolveURL(url string) string {
	url = strings.TrimRight(strings.ReplaceAll(url, "?wsdl", ""), "/")
	if hasAsmxSegment(url) {
		return url
	}
	return url + "/Sherpa.asmx"
}

func hasAsmxSegment(url string) bool {
	return strings.HasSuffix(strings.ToLower(url), ".asmx")
}

func truncateLog(envelope []byte) string {
	if len(envelope) > maxLoggedEnvelope {
		return string(envelope[:maxLoggedEnvelope])
	}
	return string(envelope)
}
