package services

import (
	"errors"
	"fmt"

	"github.com/Dosada05/beach-league/repositories"
)

// Виды ошибок. Конкретные ошибки ниже оборачивают один из них,
// поэтому errors.Is работает и с точной ошибкой, и с её видом.
var (
	ErrNotFound          = errors.New("requested resource not found")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrInvalidState      = errors.New("operation not allowed in the current state")
	ErrAlreadyRegistered = errors.New("player is already registered for this tournament")
	ErrUnauthorized      = errors.New("operation not permitted")
	ErrUnknown           = errors.New("unexpected store failure")

	ErrUnauthenticated = errors.New("authentication required")
)

// kindError carries its own message and unwraps to its kind.
type kindError struct {
	msg  string
	kind error
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

func newKindError(kind error, msg string) error {
	return &kindError{msg: msg, kind: kind}
}

var (
	ErrInvalidTransition = newKindError(ErrInvalidState, "invalid tournament status transition")

	ErrMatchNotFound      = newKindError(ErrNotFound, "match not found")
	ErrTournamentNotFound = newKindError(ErrNotFound, "tournament not found")
	ErrPlayerNotFound     = newKindError(ErrNotFound, "player not found")
	ErrNotRegistered      = newKindError(ErrNotFound, "player is not registered for this tournament")

	ErrScoreRequired              = newKindError(ErrInvalidArgument, "score is required")
	ErrInvalidWinner              = newKindError(ErrInvalidArgument, "winner must be exactly one of the match teams")
	ErrTournamentNameRequired     = newKindError(ErrInvalidArgument, "tournament name is required")
	ErrTournamentDatesRequired    = newKindError(ErrInvalidArgument, "tournament start and end dates are required")
	ErrTournamentInvalidDateRange = newKindError(ErrInvalidArgument, "tournament end date must not be before start date")
	ErrCategoriesRequired         = newKindError(ErrInvalidArgument, "at least one category is required")
	ErrInvalidStatus              = newKindError(ErrInvalidArgument, "invalid tournament status")
	ErrInvalidCategory            = newKindError(ErrInvalidArgument, "category is not offered by this tournament")
	ErrRoundRequired              = newKindError(ErrInvalidArgument, "round is required")
	ErrInvalidTeams               = newKindError(ErrInvalidArgument, "teams must be non-empty, without duplicates and disjoint")
	ErrPlayerNotParticipant       = newKindError(ErrInvalidArgument, "every player must be registered for the tournament")
	ErrMatchDateRequired          = newKindError(ErrInvalidArgument, "match date is required")
	ErrNameRequired               = newKindError(ErrInvalidArgument, "name is required")
	ErrInvalidAge                 = newKindError(ErrInvalidArgument, "age must be between 1 and 120")
	ErrInvalidEmail               = newKindError(ErrInvalidArgument, "invalid email address")
	ErrPasswordTooShort           = newKindError(ErrInvalidArgument, "password is too short")
	ErrAvatarInvalidType          = newKindError(ErrInvalidArgument, "avatar must be an image")
	ErrAvatarTooLarge             = newKindError(ErrInvalidArgument, "avatar exceeds the maximum size")
	ErrInvalidRankingLimit        = newKindError(ErrInvalidArgument, "ranking limit must be positive")

	ErrMatchAlreadyCompleted = newKindError(ErrInvalidState, "match is already completed")
	ErrMatchNotScheduled     = newKindError(ErrInvalidState, "match is not scheduled")
	ErrTournamentClosed      = newKindError(ErrInvalidState, "tournament is completed or cancelled")
	ErrTournamentNotActive   = newKindError(ErrInvalidState, "tournament is not active")
	ErrRoundAlreadyScheduled = newKindError(ErrInvalidState, "tournament already has a match for this round")

	ErrForbiddenOperation = newKindError(ErrUnauthorized, "operation not allowed for the current user")

	ErrInvalidCredentials = newKindError(ErrUnauthenticated, "invalid email or password")
	ErrInvalidToken       = newKindError(ErrUnauthenticated, "invalid or expired token")
	ErrSessionRevoked     = newKindError(ErrUnauthenticated, "session is no longer active")

	ErrEmailTaken          = errors.New("email address is already in use")
	ErrUploaderUnavailable = errors.New("avatar storage is not configured")
)

// storeError wraps an unexpected repository failure. Permission denials keep their own kind.
func storeError(op string, err error) error {
	if errors.Is(err, repositories.ErrPermissionDenied) {
		return fmt.Errorf("%w: %s: %w", ErrUnauthorized, op, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrUnknown, op, err)
}
