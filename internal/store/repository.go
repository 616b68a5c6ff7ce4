/**
 * @description
 * This file defines the interfaces for the data access layer (repositories).
 * Defining interfaces allows for dependency injection and easy mocking in tests,
 * promoting a loosely coupled architecture.
 *
 * @notes
 * - Any component that needs to interact with the database should depend on these
 *   interfaces, not on the concrete PostgreSQL implementation.
 * - VerifyAndClaim and Promote are single transactions in the implementation:
 *   they lock the user's bank-account rows before the count-then-write that
 *   maintains the single-primary invariant.
 */
package store

import (
	"context"
	"time"

	"github.com/payvault/payout-account-service/internal/domain"
)

// BankAccountRepository defines the contract for bank-account persistence.
type BankAccountRepository interface {
	// Create inserts a new unverified, non-primary row and returns it with
	// its minted id and timestamps.
	Create(ctx context.Context, acct *domain.BankAccount) (*domain.BankAccount, error)

	// FindByID returns the account with the given id owned by the user, or
	// domain.ErrAccountNotFound.
	FindByID(ctx context.Context, userID, accountID string) (*domain.BankAccount, error)

	// FindByUserAndNumber returns the account matching the external identity
	// (user, account number, bank code), or domain.ErrAccountNotFound.
	FindByUserAndNumber(ctx context.Context, userID, accountNumber, bankCode string) (*domain.BankAccount, error)

	// ReissueCode overwrites the descriptive fields of an existing unverified
	// row and installs a fresh code and expiry, discarding the previous one.
	ReissueCode(ctx context.Context, acct *domain.BankAccount) error

	// ListByUser returns the user's accounts ordered primary first, then
	// newest-created first.
	ListByUser(ctx context.Context, userID string) ([]domain.BankAccount, error)

	// VerifyAndClaim validates the submitted code against the stored row and,
	// in the same transaction, marks the account verified, clears the code,
	// and applies the claim-if-first primary rule.
	VerifyAndClaim(ctx context.Context, userID, accountID, submittedCode string, now time.Time) (*domain.BankAccount, error)

	// Promote makes the target verified account the user's primary account,
	// demoting any previous primary in the same transaction.
	Promote(ctx context.Context, userID, accountID string) (*domain.BankAccount, error)

	// Delete permanently removes a non-primary account. Deleting the primary
	// account fails with domain.ErrPrimaryAccountUndeletable.
	Delete(ctx context.Context, userID, accountID string) error

	// FindUserByID resolves the owning user, needed to address the
	// verification-code notification.
	FindUserByID(ctx context.Context, userID string) (*domain.User, error)
}

// BankRepository defines the contract for caching bank directory information.
type BankRepository interface {
	CacheBanks(ctx context.Context, banks []domain.Bank) error
	GetCachedBanks(ctx context.Context) ([]domain.Bank, error)
	ClearExpiredBanks(ctx context.Context) error
}
