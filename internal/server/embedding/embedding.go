// Package embedding fetches user embeddings from the remote provider over one
// of several transports and returns them packed for storage.
package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/userembed/internal/common"
	"github.com/dmitrijs2005/userembed/internal/vector"
	"google.golang.org/grpc/codes"
)

// Protocol selects the transport used to reach the provider.
type Protocol string

const (
	ProtocolHTTP      Protocol = "http"
	ProtocolHTTPOctet Protocol = "http-octet"
	ProtocolGRPC      Protocol = "grpc"
)

const DefaultProtocol = ProtocolHTTP

func ParseProtocol(s string) (Protocol, error) {
	switch p := Protocol(s); p {
	case ProtocolHTTP, ProtocolHTTPOctet, ProtocolGRPC:
		return p, nil
	}
	return "", fmt.Errorf("%w: %q", common.ErrUnsupportedProtocol, s)
}

// Request is the user profile sent to the provider.
type Request struct {
	Size     int          `json:"size"`
	DType    vector.DType `json:"dtype"`
	Email    string       `json:"email"`
	Nickname string       `json:"nickname"`
	Favorite *string      `json:"favorite"`
	Lat      *float64     `json:"lat"`
	Lng      *float64     `json:"lng"`
}

// Fields returns the request as a generic map, keyed like the JSON body, with
// userID added. Nil optionals become nulls.
func (r Request) Fields(userID int64) map[string]any {
	m := map[string]any{
		"user_id":  userID,
		"size":     r.Size,
		"dtype":    r.DType.String(),
		"email":    r.Email,
		"nickname": r.Nickname,
		"favorite": nil,
		"lat":      nil,
		"lng":      nil,
	}
	if r.Favorite != nil {
		m["favorite"] = *r.Favorite
	}
	if r.Lat != nil {
		m["lat"] = *r.Lat
	}
	if r.Lng != nil {
		m["lng"] = *r.Lng
	}
	return m
}

// Result holds the packed vector and, unless only bytes were requested, its
// float form.
type Result struct {
	BVector []byte
	Vector  vector.Matrix
}

// Fetcher is one provider transport.
type Fetcher interface {
	Fetch(ctx context.Context, userID int64, req Request, binaryOnly bool) (*Result, error)
}

// ProviderError reports a failed provider call. It matches
// common.ErrEmbeddingProvider under errors.Is.
type ProviderError struct {
	Status  int        // HTTP status, 0 for gRPC and transport failures
	Code    codes.Code // gRPC status code, codes.OK for HTTP
	Message string
	Err     error
}

func (e *ProviderError) Error() string {
	var b strings.Builder
	b.WriteString("embedding provider")
	if e.Status != 0 {
		fmt.Fprintf(&b, " status %d", e.Status)
	}
	if e.Code != codes.OK {
		fmt.Fprintf(&b, " code %s", e.Code)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ProviderError) Unwrap() error { return e.Err }

func (e *ProviderError) Is(target error) bool { return target == common.ErrEmbeddingProvider }
