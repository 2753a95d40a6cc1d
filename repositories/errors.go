package repositories

import "errors"

var (
	ErrAccountNotFound      = errors.New("account not found")
	ErrAccountEmailConflict = errors.New("account email conflict")

	ErrPlayerNotFound      = errors.New("player not found")
	ErrPlayerEmailConflict = errors.New("player email conflict")

	ErrTournamentNotFound = errors.New("tournament not found")
	ErrAlreadyRegistered  = errors.New("player already registered in tournament")
	ErrNotRegistered      = errors.New("player not registered in tournament")

	ErrMatchNotFound     = errors.New("match not found")
	ErrMatchNotScheduled = errors.New("match is not scheduled")
	ErrPodiumSlotTaken   = errors.New("tournament already has a match for this podium round")

	// Conditional write failed: the record changed since it was read.
	ErrVersionConflict = errors.New("version conflict")
	ErrStatusConflict  = errors.New("status changed concurrently")

	ErrPermissionDenied = errors.New("storage permission denied")
	ErrQueryUnavailable = errors.New("query path unavailable")
)
