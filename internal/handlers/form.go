package handlers

import (
	"mime/multipart"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/dhavalaMadhav/swaminarayan.foundation/internal/errors"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/services/application"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/storage"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/workflow"

	"github.com/gofiber/fiber/v2"
)

const dateLayout = "2006-01-02"

// parseFields reads the application form values. Malformed numbers and
// dates are collected so every problem is reported at once.
func parseFields(c *fiber.Ctx) (workflow.Fields, int, []apperrors.FieldError) {
	var problems []apperrors.FieldError
	bad := func(field, msg string) {
		problems = append(problems, apperrors.FieldError{Field: field, Message: msg})
	}

	f := workflow.Fields{
		FullName:        c.FormValue("fullName"),
		Phone:           c.FormValue("phone"),
		Gender:          c.FormValue("gender"),
		Address:         c.FormValue("address"),
		City:            c.FormValue("city"),
		State:           c.FormValue("state"),
		Pincode:         c.FormValue("pincode"),
		FatherName:      c.FormValue("fatherName"),
		MotherName:      c.FormValue("motherName"),
		Category:        c.FormValue("category"),
		Qualification:   c.FormValue("qualification"),
		BoardUniversity: c.FormValue("boardUniversity"),
		ProgramType:     c.FormValue("programType"),
		CourseName:      c.FormValue("courseName"),
	}

	if v := strings.TrimSpace(c.FormValue("dateOfBirth")); v != "" {
		if dob, err := time.Parse(dateLayout, v); err == nil {
			f.DateOfBirth = &dob
		} else {
			bad("dateOfBirth", "must be a date in YYYY-MM-DD format")
		}
	}
	if v := strings.TrimSpace(c.FormValue("passingYear")); v != "" {
		if year, err := strconv.Atoi(v); err == nil {
			f.PassingYear = &year
		} else {
			bad("passingYear", "must be a year")
		}
	}
	if v := strings.TrimSpace(c.FormValue("percentage")); v != "" {
		if pct, err := strconv.ParseFloat(v, 64); err == nil {
			f.Percentage = &pct
		} else {
			bad("percentage", "must be a number")
		}
	}

	step := 0
	if v := strings.TrimSpace(c.FormValue("currentStep")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			step = n
		} else {
			bad("currentStep", "must be a number")
		}
	}
	return f, step, problems
}

// formFile returns the upload for field, or nil when the request has none.
func formFile(form *multipart.Form, field string) *multipart.FileHeader {
	if form == nil {
		return nil
	}
	if files := form.File[field]; len(files) > 0 {
		return files[0]
	}
	return nil
}

// inspect validates the optional upload named field against limit.
func inspect(form *multipart.Form, field string, limit int64) (*storage.File, error) {
	fh := formFile(form, field)
	if fh == nil {
		return nil, nil
	}
	return storage.Validate(field, fh, limit)
}

// parseForm turns a draft or submit request into a FormInput.
func parseForm(c *fiber.Ctx) (application.FormInput, error) {
	fields, step, problems := parseFields(c)

	// Plain url-encoded posts carry no files.
	form, err := c.MultipartForm()
	if err != nil {
		form = nil
	}

	var files application.Files
	for _, doc := range []struct {
		field string
		dst   **storage.File
	}{
		{"photo", &files.Photo},
		{"idProof", &files.IDProof},
		{"certificate", &files.Certificate},
	} {
		f, err := inspect(form, doc.field, storage.DocumentLimit)
		if err != nil {
			if de, ok := apperrors.As(err); ok && de.Kind == apperrors.KindValidation {
				problems = append(problems, de.Fields...)
				continue
			}
			return application.FormInput{}, err
		}
		*doc.dst = f
	}

	if len(problems) > 0 {
		return application.FormInput{}, apperrors.Validation(problems...)
	}
	return application.FormInput{Fields: fields, Step: step, Files: files}, nil
}
