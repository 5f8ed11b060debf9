// Package model holds the domain types shared by the seat selection,
// booking and payment controllers, together with the sentinel errors that
// let the HTTP layer tell failure categories apart.
package model

import "errors"

var (
	// ErrFetchFailure covers an unreachable collaborator or a non-success
	// response.  Inventory degrades to an empty view on it; event and
	// booking fetches surface it to the user.
	ErrFetchFailure = errors.New("collaborator fetch failed")

	// Validation failures are detected before any network call.
	ErrEmptySelection  = errors.New("select at least one seat")
	ErrMissingIdentity = errors.New("missing user identity")
	ErrInvalidMethod   = errors.New("unsupported payment method")
	ErrInvalidSeat     = errors.New("invalid seat")
	ErrInvalidEvent    = errors.New("invalid event")

	// ErrBookingRejected is returned when the ledger refuses a booking,
	// typically because another session claimed a seat first.
	ErrBookingRejected = errors.New("booking rejected")
	// ErrAlreadySubmitted guards the single submit of a booking controller.
	ErrAlreadySubmitted = errors.New("booking already submitted")

	ErrBookingNotFound = errors.New("booking not found")
	ErrEventNotFound   = errors.New("event not found")
	ErrViewNotFound    = errors.New("seat view not found")

	ErrPaymentDeclined   = errors.New("payment declined")
	ErrPaymentInProgress = errors.New("payment already in progress")
	ErrAlreadyPaid       = errors.New("booking already paid")

	// ErrConfirmInconsistency means the payer was charged but the ledger
	// did not acknowledge the confirmation.  There is no compensation; it
	// is reported for operational follow-up.
	ErrConfirmInconsistency = errors.New("payment captured but booking confirmation failed")
)

// IsValidation reports whether err was raised before contacting any
// collaborator because the input was incomplete.
func IsValidation(err error) bool {
	return errors.Is(err, ErrEmptySelection) ||
		errors.Is(err, ErrMissingIdentity) ||
		errors.Is(err, ErrInvalidMethod) ||
		errors.Is(err, ErrInvalidSeat) ||
		errors.Is(err, ErrInvalidEvent)
}

// IsNotFound reports whether err refers to a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrBookingNotFound) ||
		errors.Is(err, ErrEventNotFound) ||
		errors.Is(err, ErrViewNotFound)
}

// IsConflict reports whether err is a state conflict the user resolves by
// starting over or waiting.
func IsConflict(err error) bool {
	return errors.Is(err, ErrBookingRejected) ||
		errors.Is(err, ErrAlreadySubmitted) ||
		errors.Is(err, ErrPaymentInProgress) ||
		errors.Is(err, ErrAlreadyPaid)
}

// IsFetchFailure reports whether err came from a collaborator that could
// not be reached or answered with a server error.
func IsFetchFailure(err error) bool {
	return errors.Is(err, ErrFetchFailure)
}
