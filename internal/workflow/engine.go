package workflow

import (
	"regexp"

	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/models"
)

const (
	MinStep = 1
	MaxStep = 6

	// PaymentStep and VerificationStep are the steps the projection lands on
	// after submission and after a manual transfer.
	PaymentStep      = 5
	VerificationStep = 6

	DefaultIDPrefix          = "SU"
	DefaultMinTransferRefLen = 12
	DefaultMaxTransferRefLen = 50
)

var prefixPattern = regexp.MustCompile(`^[A-Z]{2}$`)

// Config tunes the engine. Zero values fall back to defaults.
type Config struct {
	IDPrefix          string
	MinTransferRefLen int
	MaxTransferRefLen int
}

// Engine holds configuration only; it carries no state between calls.
type Engine struct {
	prefix    string
	minRefLen int
	maxRefLen int
}

func New(cfg Config) *Engine {
	e := &Engine{
		prefix:    cfg.IDPrefix,
		minRefLen: cfg.MinTransferRefLen,
		maxRefLen: cfg.MaxTransferRefLen,
	}
	if !prefixPattern.MatchString(e.prefix) {
		e.prefix = DefaultIDPrefix
	}
	if e.minRefLen <= 0 {
		e.minRefLen = DefaultMinTransferRefLen
	}
	if e.maxRefLen < e.minRefLen {
		e.maxRefLen = DefaultMaxTransferRefLen
	}
	return e
}

// IsTerminal reports whether no further workflow events apply.
func IsTerminal(a models.Applicant) bool {
	return a.Status == models.StatusAccepted || a.Status == models.StatusRejected
}

func clampStep(step int) int {
	if step < MinStep {
		return MinStep
	}
	if step > MaxStep {
		return MaxStep
	}
	return step
}

// clone detaches the note log so appends never alias the caller's slice.
func clone(a models.Applicant) models.Applicant {
	if a.Notes != nil {
		notes := make([]models.AdminNote, len(a.Notes))
		copy(notes, a.Notes)
		a.Notes = notes
	}
	return a
}
