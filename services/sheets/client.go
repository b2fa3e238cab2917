package sheetsvc

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/smartflows/shule/core"
	"github.com/smartflows/shule/core/admission"
)

// Client forwards finished application records to the external
// spreadsheet/notification webhook (a Google Apps Script web app). The
// webhook persists the record and triggers the notification email; its JSON
// response is returned to the caller verbatim.
type Client struct {
	http    *http.Client
	url     string
	timeout time.Duration
	logger  core.Logger
}

var _ admission.Submitter = (*Client)(nil)

func NewClient(conf *core.Config, logger core.Logger) *Client {
	return &Client{
		http:    &http.Client{},
		url:     conf.SheetWebhookURL,
		timeout: conf.OCR.Timeout,
		logger:  logger,
	}
}

// SubmitRecord serializes the record as JSON and POSTs it to the webhook.
// A non-2xx or unreachable webhook surfaces as ErrSubmitFailed; the caller
// must not mark the application as submitted.
func (c *Client) SubmitRecord(ctx context.Context, rec admission.Record) (json.RawMessage, error) {
	payload, err := json.Marshal(rec)
	if err != nil {
		return nil, errors.Wrap(err, "marshalling record")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(err, "creating request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(admission.ErrSubmitFailed, err.Error())
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(admission.ErrSubmitFailed, err.Error())
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, errors.Wrapf(admission.ErrSubmitFailed, "webhook returned %d: %s", resp.StatusCode, body)
	}
	return body, nil
}
