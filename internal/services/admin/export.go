package admin

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/models"
)

var exportHeader = []string{
	"Name", "Email", "Phone", "Application ID", "Qualification",
	"Course", "Payment Status", "Status", "Created At",
}

// ExportCSV writes every applicant matching f, ignoring pagination.
func (s *service) ExportCSV(ctx context.Context, f models.ApplicantFilter, w io.Writer) error {
	if err := checkFilter(f); err != nil {
		return err
	}
	f.Offset, f.Limit = 0, 0
	rows, _, err := s.Applicants.Query(ctx, f)
	if err != nil {
		return fmt.Errorf("failed to load applicants: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for _, a := range rows {
		record := []string{
			a.FullName,
			a.Email,
			a.Phone,
			a.AppID(),
			a.Qualification,
			a.CourseName,
			string(a.PaymentStatus),
			string(a.Status),
			a.CreatedAt.Format(time.RFC3339),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
