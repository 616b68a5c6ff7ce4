/**
 * @description
 * This file declares the sentinel errors that make up the bank-account
 * lifecycle error taxonomy. Every layer (store, app, api) matches on these
 * with errors.Is; the API layer maps each one to a stable kind tag.
 */
package domain

import "errors"

var (
	// ErrAccountNotFound is returned when no bank account matches the
	// requested (user, account) pair.
	ErrAccountNotFound = errors.New("bank account not found")

	// ErrUserNotFound is returned when the owning user row is absent.
	ErrUserNotFound = errors.New("user not found")

	// ErrAlreadyVerified is returned when an operation targets an account
	// that has already completed verification.
	ErrAlreadyVerified = errors.New("bank account is already verified")

	// ErrNoCodeIssued is returned when a verification attempt finds no
	// stored code, e.g. the code was already consumed.
	ErrNoCodeIssued = errors.New("no verification code has been issued for this account")

	// ErrCodeMismatch is returned when the submitted code does not match
	// the stored one.
	ErrCodeMismatch = errors.New("verification code is incorrect")

	// ErrCodeExpired is returned when the submitted code matches but the
	// stored expiry instant has passed.
	ErrCodeExpired = errors.New("verification code has expired")

	// ErrAccountNotVerified is returned when promotion targets an account
	// that has not been verified.
	ErrAccountNotVerified = errors.New("bank account is not verified")

	// ErrPrimaryAccountUndeletable is returned when deletion targets the
	// current primary account. Another account must be promoted first.
	ErrPrimaryAccountUndeletable = errors.New("primary bank account cannot be deleted")
)
