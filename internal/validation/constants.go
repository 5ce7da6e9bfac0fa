package validation

const (
	// Password requirements
	MinAdminPasswordLength = 8
	MaxPasswordLength      = 72

	MaxNoteLength = 1000
)
