package admission

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
)

var (
	// errors
	ErrNoFile           = errors.New("no file uploaded")
	ErrExtractionFailed = errors.New("extraction failed")
	ErrSubmitFailed     = errors.New("failed to save to sheet and send email")
)

// DocumentKind identifies which external OCR service handles an upload.
type DocumentKind string

const (
	KindAadhaar            DocumentKind = "aadhaar"
	KindLeavingCertificate DocumentKind = "leaving-certificate"
)

// Party identifies whose identity document is being processed.
type Party string

const (
	PartyStudent Party = "student"
	PartyFather  Party = "father"
	PartyMother  Party = "mother"
)

// Document is a single uploaded file to be forwarded to an OCR service.
type Document struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Source tags whether an extraction result came from the live OCR service
// or from the fixed mock fallback.
type Source string

const (
	SourceLive Source = "live"
	SourceMock Source = "mock"
)

// Fields is the normalized flat field mapping extracted from a document.
type Fields map[string]interface{}

func (f Fields) Str(key string) string {
	if v, ok := f[key].(string); ok {
		return v
	}
	return ""
}

func (f Fields) Strings(key string) []string {
	switch v := f[key].(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, it := range v {
			if s, ok := it.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Result is the outcome of a successful extraction call.
// Raw holds the upstream response body verbatim (aadhaar path only).
type Result struct {
	Kind   DocumentKind
	Fields Fields
	Raw    json.RawMessage
	Source Source
}

// UpstreamError is returned when the OCR service responds with an unexpected
// shape; the body is forwarded to the caller for debugging (HTTP 502).
type UpstreamError struct {
	StatusCode int
	Body       json.RawMessage
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("unexpected upstream response (status %d)", e.StatusCode)
}

type (
	// Extractor forwards an uploaded document to the matching external OCR
	// service and returns a normalized Result.
	Extractor interface {
		ExtractAadhaar(ctx context.Context, doc Document) (Result, error)
		ExtractLeavingCertificate(ctx context.Context, doc Document) (Result, error)
	}

	// Submitter forwards a finished application record to the external
	// sheet/notification webhook and returns its JSON response.
	Submitter interface {
		SubmitRecord(ctx context.Context, rec Record) (json.RawMessage, error)
	}
)
