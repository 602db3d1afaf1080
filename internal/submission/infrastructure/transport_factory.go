package infrastructure

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"productform/internal/shared/validation"
	"productform/internal/submission/domain"
)

// NewHTTPClient creates the HTTP client shared by both transports.
// Requests are traced through otelhttp; no timeout is set so a call lasts as long as its context.
func NewHTTPClient() *http.Client {
	return &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

// BuildTransport creates the transport implementation for variant
func BuildTransport(variant domain.Variant, baseURL string, httpClient *http.Client) (domain.Transport, error) {
	switch variant {
	case domain.VariantFetch:
		return NewFetchTransport(baseURL, httpClient), nil
	case domain.VariantClient:
		return NewClientTransport(baseURL, httpClient), nil
	default:
		return nil, validation.NewValidationError(map[string]string{
			"transport": "unknown transport variant: " + string(variant),
		}, "transport")
	}
}

// BuildTransports creates one transport per supported variant
func BuildTransports(baseURL string, httpClient *http.Client) (map[domain.Variant]domain.Transport, error) {
	transports := make(map[domain.Variant]domain.Transport, len(domain.Variants))
	for _, v := range domain.Variants {
		t, err := BuildTransport(v, baseURL, httpClient)
		if err != nil {
			return nil, err
		}
		transports[v] = t
	}
	return transports, nil
}
