package admission

import (
	"context"
	"encoding/json"
	"fmt"
	"net/mail"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/smartflows/shule/core"
)

// Service drives the admissions pipeline: it feeds uploaded documents to the
// extractor for the wizard's current step, accumulates the record, and on the
// final step submits it once to the sheet webhook and notifies the
// admissions office.
type Service struct {
	extractor Extractor
	sheets    Submitter
	mailSvc   core.EmailService
	logger    core.Logger

	admissionsEmail string
}

func NewService(extractor Extractor, sheets Submitter, mailSvc core.EmailService, logger core.Logger, conf *core.Config) *Service {
	return &Service{
		extractor:       extractor,
		sheets:          sheets,
		mailSvc:         mailSvc,
		logger:          logger,
		admissionsEmail: conf.AdmissionsEmail,
	}
}

// ExtractDocument runs the extraction the wizard's current step expects and
// merges the result into the record. A failed extraction leaves the wizard
// unchanged; the caller re-triggers the upload manually (no retries).
func (svc *Service) ExtractDocument(ctx context.Context, w *Wizard, doc Document) (Result, error) {
	kind, _, ok := w.Step().expectedDocument()
	if !ok {
		return Result{}, errors.Wrapf(ErrWrongStep, "no document expected at step %v", w.Step())
	}

	var res Result
	var err error
	switch kind {
	case KindAadhaar:
		res, err = svc.extractor.ExtractAadhaar(ctx, doc)
	case KindLeavingCertificate:
		res, err = svc.extractor.ExtractLeavingCertificate(ctx, doc)
	}
	if err != nil {
		return Result{}, errors.Wrapf(err, "extracting %s at step %v", kind, w.Step())
	}
	// The live Aadhaar endpoint reports rejections (blurry image, wrong
	// document) inside a 200 body; those come back with no fields.
	if len(res.Fields) == 0 {
		return Result{}, errors.Wrapf(ErrExtractionFailed, "no fields extracted at step %v: %s", w.Step(), res.Raw)
	}
	if res.Source == SourceMock {
		svc.logger.Warn(fmt.Sprintf("wizard %s: step %v served mock data", w.ID, w.Step()))
	}
	if err = w.ApplyExtraction(res); err != nil {
		return Result{}, err
	}
	return res, nil
}

// SetDetails validates and records the direct-input contact fields.
func (svc *Service) SetDetails(w *Wizard, d Details, validate *validator.Validate) error {
	if err := d.Validate(validate); err != nil {
		return err
	}
	return w.SetDetails(d)
}

// Submit runs the terminal transition: gate check, single webhook call, then
// the wizard advances to IDCardReady. A webhook failure leaves the wizard
// unsubmitted so the caller can resubmit manually.
func (svc *Service) Submit(ctx context.Context, w *Wizard) (json.RawMessage, error) {
	if err := w.CanSubmit(); err != nil {
		return nil, err
	}

	resp, err := svc.sheets.SubmitRecord(ctx, w.Record())
	if err != nil {
		return nil, errors.Wrapf(err, "submitting wizard %s", w.ID)
	}
	w.markSubmitted()
	svc.logger.Info(fmt.Sprintf("wizard %s: application submitted for %q", w.ID, w.Record().Name))
	svc.notify(w.ID.String(), w.Record(), w.UsedMockData())
	return resp, nil
}

// ForwardRecord submits a record assembled elsewhere (the browser wizard)
// straight to the sheet webhook and notifies the admissions office. No
// wizard gating applies.
func (svc *Service) ForwardRecord(ctx context.Context, rec Record) (json.RawMessage, error) {
	resp, err := svc.sheets.SubmitRecord(ctx, rec)
	if err != nil {
		return nil, errors.Wrapf(err, "submitting record for %q", rec.Name)
	}
	svc.logger.Info(fmt.Sprintf("application submitted for %q", rec.Name))
	svc.notify("", rec, false)
	return resp, nil
}

func (svc *Service) notify(ref string, rec Record, usedMock bool) {
	if svc.admissionsEmail == "" {
		return
	}
	body := "A new admission application was submitted.\r\n\r\n"
	if ref != "" {
		body += fmt.Sprintf("Reference: %s\r\n", ref)
	}
	body += fmt.Sprintf("Student: %s\r\nClass: %s\r\nPhone: %s\r\n", rec.Name, rec.ClassGrade, rec.Phone)
	if usedMock {
		body += "\r\nNote: one or more documents were processed with mock data (OCR unavailable).\r\n"
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Address: svc.admissionsEmail}},
		Subject: "New admission application: " + rec.Name,
		BodyStr: body,
	})
}
