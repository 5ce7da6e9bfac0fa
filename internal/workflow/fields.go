package workflow

import (
	"strings"
	"time"

	apperrors "github.com/dhavalaMadhav/swaminarayan.foundation/internal/errors"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/models"
)

// Fields carries profile values from a form. Empty strings and nil pointers
// mean "keep the stored value".
type Fields struct {
	FullName        string
	Phone           string
	DateOfBirth     *time.Time
	Gender          string
	Address         string
	City            string
	State           string
	Pincode         string
	FatherName      string
	MotherName      string
	Category        string
	Qualification   string
	BoardUniversity string
	PassingYear     *int
	Percentage      *float64
	ProgramType     string
	CourseName      string
}

// Documents carries stored-file locators. Empty means "keep the stored one".
type Documents struct {
	Photo       string
	IDProof     string
	Certificate string
}

func (f Fields) validate() []apperrors.FieldError {
	var errs []apperrors.FieldError
	if f.Percentage != nil && (*f.Percentage < 0 || *f.Percentage > 100) {
		errs = append(errs, apperrors.FieldError{Field: "percentage", Message: "must be between 0 and 100"})
	}
	if g := strings.ToLower(strings.TrimSpace(f.Gender)); g != "" &&
		g != models.GenderMale && g != models.GenderFemale && g != models.GenderOther {
		errs = append(errs, apperrors.FieldError{Field: "gender", Message: "must be male, female or other"})
	}
	if f.PassingYear != nil && (*f.PassingYear < 1900 || *f.PassingYear > 2100) {
		errs = append(errs, apperrors.FieldError{Field: "passingYear", Message: "is not a valid year"})
	}
	return errs
}

func mergeString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

func (f Fields) applyTo(a *models.Applicant) {
	mergeString(&a.FullName, f.FullName)
	mergeString(&a.Phone, f.Phone)
	mergeString(&a.Address, f.Address)
	mergeString(&a.City, f.City)
	mergeString(&a.State, f.State)
	mergeString(&a.Pincode, f.Pincode)
	mergeString(&a.FatherName, f.FatherName)
	mergeString(&a.MotherName, f.MotherName)
	mergeString(&a.Category, f.Category)
	mergeString(&a.Qualification, f.Qualification)
	mergeString(&a.BoardUniversity, f.BoardUniversity)
	mergeString(&a.ProgramType, f.ProgramType)
	mergeString(&a.CourseName, f.CourseName)
	if g := strings.ToLower(strings.TrimSpace(f.Gender)); g != "" {
		a.Gender = g
	}
	if f.DateOfBirth != nil {
		dob := *f.DateOfBirth
		a.DateOfBirth = &dob
	}
	if f.PassingYear != nil {
		year := *f.PassingYear
		a.PassingYear = &year
	}
	if f.Percentage != nil {
		pct := *f.Percentage
		a.Percentage = &pct
	}
}

func (d Documents) applyTo(a *models.Applicant) {
	mergeString(&a.PhotoRef, d.Photo)
	mergeString(&a.IDProofRef, d.IDProof)
	mergeString(&a.CertificateRef, d.Certificate)
}

// missingRequired lists every field a submission still lacks, in form order.
func missingRequired(a models.Applicant) []string {
	checks := []struct {
		name    string
		present bool
	}{
		{"fullName", a.FullName != ""},
		{"phone", a.Phone != ""},
		{"dateOfBirth", a.DateOfBirth != nil},
		{"gender", a.Gender != ""},
		{"address", a.Address != ""},
		{"qualification", a.Qualification != ""},
		{"boardUniversity", a.BoardUniversity != ""},
		{"passingYear", a.PassingYear != nil},
		{"percentage", a.Percentage != nil},
		{"programType", a.ProgramType != ""},
		{"courseName", a.CourseName != ""},
		{"photo", a.PhotoRef != ""},
		{"idProof", a.IDProofRef != ""},
		{"certificate", a.CertificateRef != ""},
	}
	var missing []string
	for _, c := range checks {
		if !c.present {
			missing = append(missing, c.name)
		}
	}
	return missing
}
