package admission

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var (
	// errors
	ErrStepIncomplete   = errors.New("step requirements not met")
	ErrWrongStep        = errors.New("operation not valid at this step")
	ErrSubmitRequired   = errors.New("submission required to finish")
	ErrAlreadySubmitted = errors.New("application already submitted")
	ErrWizardComplete   = errors.New("wizard already complete")
)

// Step is the ordinal position in the admissions wizard.
type Step int

const (
	StepStudentAadhaar Step = iota + 1
	StepStudentDetails
	StepFatherAadhaar
	StepMotherAadhaar
	StepLeavingCertificate
	StepIDCardReady
)

func (s Step) String() string {
	switch s {
	case StepStudentAadhaar:
		return "student-aadhaar"
	case StepStudentDetails:
		return "student-details"
	case StepFatherAadhaar:
		return "father-aadhaar"
	case StepMotherAadhaar:
		return "mother-aadhaar"
	case StepLeavingCertificate:
		return "leaving-certificate"
	case StepIDCardReady:
		return "id-card-ready"
	}
	return "unknown"
}

// expectedDocument returns which document kind (and party, for Aadhaar) a
// capture step consumes.
func (s Step) expectedDocument() (DocumentKind, Party, bool) {
	switch s {
	case StepStudentAadhaar:
		return KindAadhaar, PartyStudent, true
	case StepFatherAadhaar:
		return KindAadhaar, PartyFather, true
	case StepMotherAadhaar:
		return KindAadhaar, PartyMother, true
	case StepLeavingCertificate:
		return KindLeavingCertificate, "", true
	}
	return "", "", false
}

// Wizard is the admissions flow state machine. Transitions are strictly
// forward and each is gated by that step's required condition; the record
// is submitted at most once per wizard session.
type Wizard struct {
	ID uuid.UUID

	step   Step
	record Record

	studentExtracted     bool
	fatherExtracted      bool
	motherExtracted      bool
	certificateExtracted bool

	usedMockData bool
	submitted    bool
}

func NewWizard() *Wizard {
	return &Wizard{ID: uuid.New(), step: StepStudentAadhaar}
}

func (w *Wizard) Step() Step         { return w.step }
func (w *Wizard) Record() Record     { return w.record }
func (w *Wizard) Submitted() bool    { return w.submitted }
func (w *Wizard) UsedMockData() bool { return w.usedMockData }

// ApplyExtraction merges a successful extraction result into the record and
// marks the current step's extraction flag. Only valid at a capture step, and
// only for the document kind that step expects; re-extraction at the same
// step overwrites the previous fields.
func (w *Wizard) ApplyExtraction(res Result) error {
	kind, party, ok := w.step.expectedDocument()
	if !ok {
		return errors.Wrapf(ErrWrongStep, "no document expected at step %v", w.step)
	}
	if res.Kind != kind {
		return errors.Wrapf(ErrWrongStep, "step %v expects a %s document", w.step, kind)
	}

	switch w.step {
	case StepStudentAadhaar:
		w.record.ApplyAadhaar(party, res.Fields)
		w.studentExtracted = true
	case StepFatherAadhaar:
		w.record.ApplyAadhaar(party, res.Fields)
		w.fatherExtracted = true
	case StepMotherAadhaar:
		w.record.ApplyAadhaar(party, res.Fields)
		w.motherExtracted = true
	case StepLeavingCertificate:
		w.record.ApplyLeavingCertificate(res.Fields)
		w.certificateExtracted = true
	}
	if res.Source == SourceMock {
		w.usedMockData = true
	}
	return nil
}

// SetDetails records the direct-input contact fields. Only valid at the
// StudentDetails step.
func (w *Wizard) SetDetails(d Details) error {
	if w.step != StepStudentDetails {
		return errors.Wrapf(ErrWrongStep, "details not editable at step %v", w.step)
	}
	w.record.Address = d.Address
	w.record.BloodGroup = d.BloodGroup
	w.record.Phone = d.Phone
	w.record.ClassGrade = d.ClassGrade
	return nil
}

// CanAdvance reports whether the current step's gate condition holds.
// Checking is idempotent: once a gate opens it stays open unless the record
// itself changes.
func (w *Wizard) CanAdvance() bool {
	switch w.step {
	case StepStudentAadhaar:
		return w.studentExtracted
	case StepStudentDetails:
		return w.record.HasRequiredDetails()
	case StepFatherAadhaar:
		return w.fatherExtracted
	case StepMotherAadhaar:
		return w.motherExtracted
	}
	return false
}

// Next advances to the following step. The LeavingCertificate step cannot be
// left with Next; it only advances through a successful submission.
func (w *Wizard) Next() error {
	switch w.step {
	case StepIDCardReady:
		return ErrWizardComplete
	case StepLeavingCertificate:
		return ErrSubmitRequired
	}
	if !w.CanAdvance() {
		return errors.Wrapf(ErrStepIncomplete, "cannot leave step %v", w.step)
	}
	w.step++
	return nil
}

// CanSubmit checks the final gate: all four extractions done, all required
// fields still present, and no prior submission.
func (w *Wizard) CanSubmit() error {
	if w.submitted {
		return ErrAlreadySubmitted
	}
	if w.step != StepLeavingCertificate {
		return errors.Wrapf(ErrWrongStep, "cannot submit at step %v", w.step)
	}
	if !w.certificateExtracted {
		return errors.Wrap(ErrStepIncomplete, "leaving certificate not extracted")
	}
	if !w.studentExtracted || !w.fatherExtracted || !w.motherExtracted {
		return errors.Wrap(ErrStepIncomplete, "missing an extraction from an earlier step")
	}
	if !w.record.HasRequiredDetails() || w.record.FatherName == "" || w.record.MotherName == "" {
		return errors.Wrap(ErrStepIncomplete, "required fields missing")
	}
	return nil
}

// markSubmitted is the terminal transition; only the Service calls it, after
// the sheet webhook accepted the record.
func (w *Wizard) markSubmitted() {
	w.submitted = true
	w.step = StepIDCardReady
}
