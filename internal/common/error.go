// Package common defines shared constants and sentinel errors used across
// the storage, service, and transport layers. Callers should use errors.Is
// (or errors.As for the typed errors) to match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Claim/link errors surfaced to the requester.
	ErrorLinkInvalid = errors.New("link invalid or expired")
	ErrorLinkClaimed = errors.New("link bound to another account")

	// Artifact was removed from the archive out-of-band.
	ErrorFileMissing = errors.New("file no longer available")

	// No unique short code found within the attempt budget.
	ErrorCodeExhausted = errors.New("unique code generation exhausted")

	// Startup-fatal configuration error.
	ErrorConfigInvalid = errors.New("invalid configuration")

	// Delivery failed with a non-retryable transport error, or the
	// bounded retry loop ran out of attempts.
	ErrorDeliveryFailed = errors.New("delivery failed")
)

// MembershipRequiredError reports that at least one required chat membership
// is not satisfied (or could not be determined). It carries the pending
// file id so the gate prompt can offer a re-check for the same artifact.
type MembershipRequiredError struct {
	FileID string
}

func (e *MembershipRequiredError) Error() string {
	return fmt.Sprintf("membership required for file %s", e.FileID)
}
