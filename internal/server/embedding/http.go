package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/userembed/internal/vector"
)

const maxErrorBody = 4 << 10

type jsonResponse struct {
	UserVector vector.Matrix `json:"user_vector"`
}

// HTTPFetcher calls POST {base}/v1/embedding/user/{id} and receives the
// vector as JSON.
type HTTPFetcher struct {
	baseURL string
	client  *http.Client
}

func NewHTTPFetcher(baseURL string, client *http.Client) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFetcher{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

// Fetch packs the provider's values in req.DType. The returned Vector is
// decoded back from those bytes, so it matches what a later read of the
// stored feature yields.
func (f *HTTPFetcher) Fetch(ctx context.Context, userID int64, req Request, binaryOnly bool) (*Result, error) {
	body, err := post(ctx, f.client, fmt.Sprintf("%s/v1/embedding/user/%d", f.baseURL, userID), req)
	if err != nil {
		return nil, err
	}

	var resp jsonResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &ProviderError{Message: "malformed response", Err: err}
	}

	b, err := vector.Encode(resp.UserVector, req.DType)
	if err != nil {
		return nil, err
	}
	return packed(b, req.DType, binaryOnly)
}

// OctetFetcher calls POST {base}/v1/embedding/user/{id}/octet and receives
// the packed vector as the raw body.
type OctetFetcher struct {
	baseURL string
	client  *http.Client
}

func NewOctetFetcher(baseURL string, client *http.Client) *OctetFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &OctetFetcher{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (f *OctetFetcher) Fetch(ctx context.Context, userID int64, req Request, binaryOnly bool) (*Result, error) {
	body, err := post(ctx, f.client, fmt.Sprintf("%s/v1/embedding/user/%d/octet", f.baseURL, userID), req)
	if err != nil {
		return nil, err
	}
	return packed(body, req.DType, binaryOnly)
}

// packed wraps provider bytes, decoding them unless binaryOnly.
func packed(b []byte, dt vector.DType, binaryOnly bool) (*Result, error) {
	if binaryOnly {
		if _, err := vector.Len(b, dt); err != nil {
			return nil, err
		}
		return &Result{BVector: b}, nil
	}
	m, err := vector.Decode(b, dt)
	if err != nil {
		return nil, err
	}
	return &Result{BVector: b, Vector: m}, nil
}

func post(ctx context.Context, client *http.Client, url string, req Request) ([]byte, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal embedding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build embedding request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, &ProviderError{Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &ProviderError{Status: resp.StatusCode, Message: string(text)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ProviderError{Message: "read response", Err: err}
	}
	return body, nil
}
