package echoapi

import (
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/smartflows/shule/core"
	"github.com/smartflows/shule/core/admission"
)

type admissionApi struct {
	extractor admission.Extractor
	svc       *admission.Service
	logger    core.Logger
}

func registerAdmissionAPI(g *echo.Group, deps ServerDeps) {
	api := admissionApi{
		extractor: deps.Extractor,
		svc:       deps.AdmissionSvc,
		logger:    deps.Logger,
	}

	ag := g.Group("/admissions")
	ag.POST("/extract-aadhaar", api.extractAadhaar)
	ag.POST("/extract-leaving-certificate", api.extractLeavingCertificate)
	ag.POST("/submit", api.submit)
	ag.POST("/submit-to-sheet", api.submitToSheet)
}

// Handlers

// extractAadhaar proxies the upload to the aadhaar OCR service and returns
// its response body verbatim on success.
func (api *admissionApi) extractAadhaar(ctx echo.Context) error {
	doc, err := formDocument(ctx)
	if err != nil {
		if errors.Cause(err) == admission.ErrNoFile {
			return noFileResponse(ctx)
		}
		return errors.Wrap(err, "reading upload")
	}
	api.logger.Info(fmt.Sprintf("aadhaar extraction: processing %q (%d bytes)", doc.Filename, len(doc.Content)))

	res, err := api.extractor.ExtractAadhaar(ctx.Request().Context(), doc)
	if err != nil {
		api.logger.Error(fmt.Sprintf("aadhaar OCR: %v", err), err)
		return ctx.JSON(http.StatusInternalServerError, ExtractionErrorResponse{
			Success: false,
			Error:   ExtractionErrorDetail{Code: "EXTRACTION_FAILED", Message: errors.Cause(err).Error()},
		})
	}
	return ctx.JSONBlob(http.StatusOK, res.Raw)
}

// extractLeavingCertificate health-checks the OCR service and either returns
// the flattened live extraction or the mock fallback. A 200 of unexpected
// shape is forwarded as a 502 for debugging.
func (api *admissionApi) extractLeavingCertificate(ctx echo.Context) error {
	doc, err := formDocument(ctx)
	if err != nil {
		if errors.Cause(err) == admission.ErrNoFile {
			return noFileResponse(ctx)
		}
		return errors.Wrap(err, "reading upload")
	}
	api.logger.Info(fmt.Sprintf("leaving-cert extraction: processing %q (%d bytes)", doc.Filename, len(doc.Content)))

	res, err := api.extractor.ExtractLeavingCertificate(ctx.Request().Context(), doc)
	if err != nil {
		var upErr *admission.UpstreamError
		if errors.As(err, &upErr) {
			return ctx.JSONBlob(http.StatusBadGateway, upErr.Body)
		}
		return errors.Wrap(err, "extracting leaving certificate")
	}
	if res.Source == admission.SourceMock {
		api.logger.Warn("leaving-cert OCR unreachable, returning mock data")
	}
	return ctx.JSON(http.StatusOK, ExtractionResponse{
		Success: true,
		Source:  res.Source,
		Data:    res.Fields,
	})
}

func (api *admissionApi) submit(ctx echo.Context) error {
	var data map[string]interface{}
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding submission")
	}
	api.logger.Info(fmt.Sprintf("submitted student data: %v", data))
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: true, Message: "Data saved successfully"})
}

// submitToSheet forwards the finished record to the sheet webhook and returns
// the webhook's response to the frontend.
func (api *admissionApi) submitToSheet(ctx echo.Context) error {
	var rec admission.Record
	if err := ctx.Bind(&rec); err != nil {
		return errors.Wrap(err, "binding to Record")
	}

	resp, err := api.svc.ForwardRecord(ctx.Request().Context(), rec)
	if err != nil {
		api.logger.Error(fmt.Sprintf("submitting to sheet: %v", err), err)
		return ctx.JSON(http.StatusInternalServerError, SuccessResponse{
			Success: false,
			Message: admission.ErrSubmitFailed.Error(),
		})
	}
	return ctx.JSONBlob(http.StatusOK, resp)
}

func formDocument(ctx echo.Context) (admission.Document, error) {
	fh, err := ctx.FormFile("file")
	if err != nil {
		return admission.Document{}, admission.ErrNoFile
	}
	f, err := fh.Open()
	if err != nil {
		return admission.Document{}, errors.Wrap(err, "opening upload")
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		return admission.Document{}, errors.Wrap(err, "reading upload")
	}
	return admission.Document{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Content:     content,
	}, nil
}

func noFileResponse(ctx echo.Context) error {
	return ctx.JSON(http.StatusBadRequest, ExtractionErrorResponse{
		Success: false,
		Error:   ExtractionErrorDetail{Code: "NO_FILE", Message: "No file uploaded"},
	})
}

type (
	ExtractionErrorDetail struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}

	ExtractionErrorResponse struct {
		Success bool                  `json:"success"`
		Error   ExtractionErrorDetail `json:"error"`
	}

	ExtractionResponse struct {
		Success bool             `json:"success"`
		Source  admission.Source `json:"source"`
		Data    admission.Fields `json:"data"`
	}
)
