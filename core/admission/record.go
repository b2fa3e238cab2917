package admission

import (
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/smartflows/shule/core"
)

// Record is the application record built incrementally by the admissions
// wizard: student/father/mother identity from Aadhaar extractions, contact
// details from direct input, prior-school fields from a leaving certificate.
// Fields are only ever set, never removed.
type Record struct {
	Name          string `json:"name"`
	Dob           string `json:"dob"`
	Gender        string `json:"gender"`
	AadhaarNumber string `json:"aadhaar_number"`

	FatherName          string `json:"father_name"`
	FatherDob           string `json:"father_dob"`
	FatherGender        string `json:"father_gender"`
	FatherAadhaarNumber string `json:"father_aadhaar_number"`

	MotherName          string `json:"mother_name"`
	MotherDob           string `json:"mother_dob"`
	MotherGender        string `json:"mother_gender"`
	MotherAadhaarNumber string `json:"mother_aadhaar_number"`

	Address    string `json:"address"`
	BloodGroup string `json:"blood_group"`
	Phone      string `json:"phone"`
	ClassGrade string `json:"class_grade"`

	// leaving certificate fields
	SchoolName                      string   `json:"school_name"`
	LastClassAttended               string   `json:"last_class_attended"`
	BookNumber                      string   `json:"book_number"`
	SerialNumber                    string   `json:"serial_number"`
	AdmissionNumber                 string   `json:"admission_number"`
	Nationality                     string   `json:"nationality"`
	BelongsToScSt                   string   `json:"belongs_to_sc_st"`
	DateOfFirstAdmission            string   `json:"date_of_first_admission"`
	ClassAtFirstAdmission           string   `json:"class_at_first_admission"`
	DateOfBirthInWords              string   `json:"date_of_birth_in_words"`
	SchoolBoardExamResult           string   `json:"school_board_exam_result"`
	FailedStatus                    string   `json:"failed_status"`
	SubjectsStudied                 []string `json:"subjects_studied"`
	PromotedToHigherClass           string   `json:"promoted_to_higher_class"`
	SchoolDuesPaidUpTo              string   `json:"school_dues_paid_up_to"`
	FeeConcession                   string   `json:"fee_concession"`
	TotalWorkingDays                string   `json:"total_working_days"`
	TotalWorkingDaysPresent         string   `json:"total_working_days_present"`
	NccCadetBoysScoutGirlGuide      string   `json:"ncc_cadet_boys_scout_girl_guide"`
	ExtracurricularActivities       string   `json:"extracurricular_activities"`
	GeneralConduct                  string   `json:"general_conduct"`
	DateOfApplicationForCertificate string   `json:"date_of_application_for_certificate"`
	DateOfIssueOfCertificate        string   `json:"date_of_issue_of_certificate"`
	ReasonForLeaving                string   `json:"reason_for_leaving"`
	OtherRemarks                    string   `json:"other_remarks"`
}

// ApplyAadhaar merges the fields of an Aadhaar extraction into the record
// for the given party. The upstream DOB (DD/MM/YYYY) is reformatted to
// YYYY-MM-DD; an unparseable DOB is stored empty.
func (r *Record) ApplyAadhaar(party Party, f Fields) {
	name, dob := f.Str("name"), FormatDOB(f.Str("dob"))
	gender, num := f.Str("gender"), f.Str("aadhaar_number")
	switch party {
	case PartyStudent:
		r.Name, r.Dob, r.Gender, r.AadhaarNumber = name, dob, gender, num
	case PartyFather:
		r.FatherName, r.FatherDob, r.FatherGender, r.FatherAadhaarNumber = name, dob, gender, num
	case PartyMother:
		r.MotherName, r.MotherDob, r.MotherGender, r.MotherAadhaarNumber = name, dob, gender, num
	}
}

// ApplyLeavingCertificate merges the flattened certificate fields into the
// record. The certificate's own student/father/mother names only backfill
// identities that an Aadhaar extraction has not already set.
func (r *Record) ApplyLeavingCertificate(f Fields) {
	r.SchoolName = f.Str("school_name")
	r.LastClassAttended = f.Str("last_class_attended")
	r.BookNumber = f.Str("book_number")
	r.SerialNumber = f.Str("serial_number")
	r.AdmissionNumber = f.Str("admission_number")
	r.Nationality = f.Str("nationality")
	r.BelongsToScSt = f.Str("belongs_to_sc_st")
	r.DateOfFirstAdmission = f.Str("date_of_first_admission")
	r.ClassAtFirstAdmission = f.Str("class_at_first_admission")
	r.DateOfBirthInWords = f.Str("date_of_birth_in_words")
	r.SchoolBoardExamResult = f.Str("school_board_exam_result")
	r.FailedStatus = f.Str("failed_status")
	r.SubjectsStudied = f.Strings("subjects_studied")
	r.PromotedToHigherClass = f.Str("promoted_to_higher_class")
	r.SchoolDuesPaidUpTo = f.Str("school_dues_paid_up_to")
	r.FeeConcession = f.Str("fee_concession")
	r.TotalWorkingDays = f.Str("total_working_days")
	r.TotalWorkingDaysPresent = f.Str("total_working_days_present")
	r.NccCadetBoysScoutGirlGuide = f.Str("ncc_cadet_boys_scout_girl_guide")
	r.ExtracurricularActivities = f.Str("extracurricular_activities")
	r.GeneralConduct = f.Str("general_conduct")
	r.DateOfApplicationForCertificate = f.Str("date_of_application_for_certificate")
	r.DateOfIssueOfCertificate = f.Str("date_of_issue_of_certificate")
	r.ReasonForLeaving = f.Str("reason_for_leaving")
	r.OtherRemarks = f.Str("other_remarks")

	if r.Name == "" {
		r.Name = f.Str("student_name")
	}
	if r.FatherName == "" {
		r.FatherName = f.Str("father_name")
	}
	if r.MotherName == "" {
		r.MotherName = f.Str("mother_name")
	}
}

// HasRequiredDetails reports whether all direct-input fields gating the
// StudentDetails step are present.
func (r *Record) HasRequiredDetails() bool {
	return r.Address != "" && r.BloodGroup != "" && r.Phone != "" && r.ClassGrade != ""
}

// Details defines the direct-input contact fields captured at the
// StudentDetails step.
type Details struct {
	Address    string `json:"address" validate:"required"`
	BloodGroup string `json:"blood_group" validate:"required"`
	Phone      string `json:"phone" validate:"required"`
	ClassGrade string `json:"class_grade" validate:"required"`
}

func (d *Details) Validate(validate *validator.Validate) error {
	d.Address = core.CleanString(d.Address)
	d.BloodGroup = core.CleanString(d.BloodGroup)
	d.Phone = core.CleanString(d.Phone)
	d.ClassGrade = core.CleanString(d.ClassGrade)
	return validate.Struct(d)
}

// FormatDOB reformats an OCR DOB from DD/MM/YYYY to YYYY-MM-DD.
// Anything unparseable (including impossible dates) yields "".
func FormatDOB(dob string) string {
	if dob == "" {
		return ""
	}
	parts := strings.Split(dob, "/")
	if len(parts) != 3 {
		return ""
	}
	day, month, year := pad2(parts[0]), pad2(parts[1]), parts[2]
	formatted := year + "-" + month + "-" + day
	t, err := time.Parse("2006-01-02", formatted)
	if err != nil || strconv.Itoa(t.Year()) != year {
		return ""
	}
	return formatted
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}
