package services

import (
	"errors"
)

// Pipeline error taxonomy. Every precondition failure is detected before any
// write and wraps one of these sentinels, so handlers can map them to stable
// client-facing reasons with errors.Is.
var (
	// ErrNotFound covers missing entities and entities the caller does not
	// own; ownership failures are deliberately indistinguishable from
	// missing records.
	ErrNotFound = errors.New("not found")

	// ErrValidation covers malformed caller input (non-positive amounts,
	// unknown appointment types).
	ErrValidation = errors.New("invalid input")

	// ErrQuotaExceeded means the user already holds the maximum number of
	// active opportunity requests.
	ErrQuotaExceeded = errors.New("active opportunity request quota exceeded")

	// ErrInvalidTransition means the request or offer is not in the source
	// state the operation requires.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrVisitNotCompleted means an offer was submitted against a request
	// whose visit step has not reached the offer stage.
	ErrVisitNotCompleted = errors.New("visit step not reached for this request")

	// ErrDuplicateOffer means the request already has its one offer.
	ErrDuplicateOffer = errors.New("an offer already exists for this request")

	// ErrAlreadyAccepted guards AcceptOffer idempotency.
	ErrAlreadyAccepted = errors.New("offer is already accepted")

	// ErrCannotRejectAccepted guards the accepted terminal state.
	ErrCannotRejectAccepted = errors.New("cannot reject an accepted offer")
)
