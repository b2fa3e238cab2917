package ocrsvc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/smartflows/shule/core"
	"github.com/smartflows/shule/core/admission"
)

// Client forwards uploaded documents to the external OCR services.
// Each call is independent and stateless; outbound calls use bounded
// timeouts and are never retried.
type Client struct {
	http          *http.Client
	aadhaarURL    string
	certURL       string
	timeout       time.Duration
	healthTimeout time.Duration
	logger        core.Logger
}

var _ admission.Extractor = (*Client)(nil)

func NewClient(conf *core.Config, logger core.Logger) *Client {
	return &Client{
		http:          &http.Client{},
		aadhaarURL:    conf.OCR.AadhaarURL,
		certURL:       conf.OCR.LeavingCertificateURL,
		timeout:       conf.OCR.Timeout,
		healthTimeout: conf.OCR.HealthTimeout,
		logger:        logger,
	}
}

// ExtractAadhaar forwards the file as multipart form data to the Aadhaar OCR
// endpoint. Whatever body the upstream sends on HTTP success comes back
// verbatim in Raw, so callers can relay the upstream's own error detail
// (a rejected image still answers 200 with success=false); Fields is only
// populated when the body is a success payload. Network and non-2xx failures
// surface as ErrExtractionFailed; there is no fallback on this path.
func (c *Client) ExtractAadhaar(ctx context.Context, doc admission.Document) (admission.Result, error) {
	body, err := c.forward(ctx, c.aadhaarURL, doc, c.timeout)
	if err != nil {
		return admission.Result{}, errors.Wrap(admission.ErrExtractionFailed, err.Error())
	}

	res := admission.Result{
		Kind:   admission.KindAadhaar,
		Raw:    body,
		Source: admission.SourceLive,
	}
	var parsed struct {
		Success bool             `json:"success"`
		Data    admission.Fields `json:"data"`
	}
	if err = json.Unmarshal(body, &parsed); err == nil && parsed.Success {
		res.Fields = parsed.Data
	}
	return res, nil
}

// ExtractLeavingCertificate health-checks the certificate OCR service, forwards the
// file when it is healthy, and flattens the nested extraction payload. An
// unreachable or failing service is masked by the fixed mock record so the
// admissions flow never blocks; only a well-formed response with an
// unexpected shape is surfaced (as *admission.UpstreamError).
func (c *Client) ExtractLeavingCertificate(ctx context.Context, doc admission.Document) (admission.Result, error) {
	if !c.certHealthy(ctx) {
		c.logger.Warn("leaving-certificate OCR unreachable, returning mock data")
		return MockLeavingCertificate(), nil
	}

	body, err := c.forward(ctx, c.certURL, doc, c.timeout)
	if err != nil {
		c.logger.Warn(fmt.Sprintf("leaving-certificate OCR failed, returning mock data: %v", err))
		return MockLeavingCertificate(), nil
	}

	var parsed struct {
		Status string `json:"status"`
		Data   struct {
			SchoolName        string           `json:"school_name"`
			LastClassAttended string           `json:"last_class_attended"`
			AllExtractedData  admission.Fields `json:"all_extracted_data"`
		} `json:"data"`
	}
	if err = json.Unmarshal(body, &parsed); err != nil || parsed.Status != "success" {
		return admission.Result{}, &admission.UpstreamError{StatusCode: http.StatusOK, Body: body}
	}

	fields := admission.Fields{
		"school_name":         parsed.Data.SchoolName,
		"last_class_attended": parsed.Data.LastClassAttended,
	}
	for k, v := range parsed.Data.AllExtractedData {
		fields[k] = v
	}
	return admission.Result{
		Kind:   admission.KindLeavingCertificate,
		Fields: fields,
		Source: admission.SourceLive,
	}, nil
}

// certHealthy does a quick GET against the service root's /health path.
func (c *Client) certHealthy(ctx context.Context) bool {
	u, err := url.Parse(c.certURL)
	if err != nil {
		return false
	}
	healthURL := u.Scheme + "://" + u.Host + "/health"

	ctx, cancel := context.WithTimeout(ctx, c.healthTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, healthURL, nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode < http.StatusBadRequest
}

// forward POSTs the document as a multipart "file" field and returns the
// response body on HTTP success.
func (c *Client) forward(ctx context.Context, endpoint string, doc admission.Document, timeout time.Duration) ([]byte, error) {
	var buff bytes.Buffer
	w := multipart.NewWriter(&buff)
	part, err := w.CreatePart(fileHeader(doc))
	if err != nil {
		return nil, errors.Wrap(err, "creating multipart file part")
	}
	if _, err = part.Write(doc.Content); err != nil {
		return nil, errors.Wrap(err, "writing multipart file content")
	}
	if err = w.Close(); err != nil {
		return nil, errors.Wrap(err, "closing multipart writer")
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buff)
	if err != nil {
		return nil, errors.Wrap(err, "creating request")
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "forwarding document")
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "reading response")
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, errors.Errorf("upstream returned %d: %s", resp.StatusCode, body)
	}
	return body, nil
}

func fileHeader(doc admission.Document) textproto.MIMEHeader {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(doc.Filename)))
	ct := doc.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	h.Set("Content-Type", ct)
	return h
}

func escapeQuotes(s string) string {
	return strings.NewReplacer("\\", "\\\\", `"`, "\\\"").Replace(s)
}

// MockLeavingCertificate is the fixed fallback record returned when the
// certificate OCR service cannot serve a request. It is clearly marked as
// mock data and tagged SourceMock so callers can flag it.
func MockLeavingCertificate() admission.Result {
	return admission.Result{
		Kind: admission.KindLeavingCertificate,
		Fields: admission.Fields{
			"school_name":                         "Mock School (dev mode)",
			"last_class_attended":                 "X",
			"book_number":                         "MOCK001",
			"serial_number":                       "MOCK001",
			"admission_number":                    "MOCK001",
			"student_name":                        "Mock Student",
			"father_name":                         "Mock Father",
			"mother_name":                         "Mock Mother",
			"nationality":                         "Indian",
			"belongs_to_sc_st":                    "NO",
			"date_of_first_admission":             "01-01-2020",
			"class_at_first_admission":            "I",
			"date_of_birth":                       "01-01-2010",
			"date_of_birth_in_words":              "First January Two Thousand Ten",
			"school_board_exam_result":            "Passed",
			"failed_status":                       "",
			"subjects_studied":                    []string{"Maths", "Science", "English"},
			"promoted_to_higher_class":            "Yes",
			"school_dues_paid_up_to":              "March 2025",
			"fee_concession":                      "None",
			"total_working_days":                  "200",
			"total_working_days_present":          "195",
			"ncc_cadet_boys_scout_girl_guide":     "NO",
			"extracurricular_activities":          "Sports",
			"general_conduct":                     "Good",
			"date_of_application_for_certificate": "01-04-2025",
			"date_of_issue_of_certificate":        "01-04-2025",
			"reason_for_leaving":                  "Promotion",
			"other_remarks":                       "Good student",
		},
		Source: admission.SourceMock,
	}
}
