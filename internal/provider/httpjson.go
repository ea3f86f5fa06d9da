package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/tripweaver/tripweaver/internal/faults"
)

// GetJSON performs a GET against endpoint with the given query parameters and
// decodes the JSON response into out. HTTP and transport failures come back
// kind-tagged; the raw upstream body is never propagated past this point.
func GetJSON(ctx context.Context, client *http.Client, providerName, endpoint string, params url.Values, out any) error {
	u := endpoint
	if len(params) > 0 {
		u = endpoint + "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return faults.Wrap(faults.Unknown, providerName+": build request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return classifyTransport(providerName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused, then discard: upstream error
		// payloads are classified, never surfaced.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return classifyStatus(providerName, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return faults.Wrap(faults.Unknown, providerName+": decode response", err)
	}
	return nil
}

// PostJSON performs a POST with a JSON body and decodes the JSON response
// into out, with the same classification rules as GetJSON.
func PostJSON(ctx context.Context, client *http.Client, providerName, endpoint string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return faults.Wrap(faults.Unknown, providerName+": encode request", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(raw))
	if err != nil {
		return faults.Wrap(faults.Unknown, providerName+": build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return classifyTransport(providerName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return classifyStatus(providerName, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return faults.Wrap(faults.Unknown, providerName+": decode response", err)
	}
	return nil
}

// classifyStatus maps an upstream HTTP status to a taxonomy kind.
func classifyStatus(providerName string, status int) error {
	msg := fmt.Sprintf("%s: upstream returned %d", providerName, status)
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return faults.New(faults.AuthFailed, msg)
	case status == http.StatusTooManyRequests:
		return faults.New(faults.RateLimitExceeded, msg)
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return faults.New(faults.ValidationError, msg)
	case status >= 500:
		return faults.New(faults.ServiceUnavailable, msg)
	default:
		return faults.New(faults.Unknown, msg)
	}
}

// classifyTransport maps client-side transport errors (timeouts, DNS, refused
// connections) to NETWORK_ERROR.
func classifyTransport(providerName string, err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) || errors.Is(err, context.DeadlineExceeded) {
		return faults.Wrap(faults.NetworkError, providerName+": request failed", err)
	}
	return faults.Wrap(faults.Unknown, providerName+": request failed", err)
}
