package attendance

import "errors"

// Domain errors surfaced by the resolver and recorder. Callers branch with
// errors.Is; the HTTP layer owns the status-code mapping.
var (
	// ErrStudentNotRegistered means the device uuid has no student record.
	ErrStudentNotRegistered = errors.New("device is not registered to a student")

	// ErrSessionNotFound means no subject is accepting attendance in the
	// room at the given instant, or the grace window has elapsed.
	ErrSessionNotFound = errors.New("no class session accepting attendance")

	// ErrProfessorNotFound means a subject references an instructor id with
	// no matching professor record. Reference-data integrity fault.
	ErrProfessorNotFound = errors.New("subject references an unknown professor")

	// ErrDuplicateAttendance means the caller already checked in during the
	// same calendar hour.
	ErrDuplicateAttendance = errors.New("attendance already recorded this hour")
)
