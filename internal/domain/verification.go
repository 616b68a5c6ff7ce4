/**
 * @description
 * This file holds the pure decision logic for the verification state machine.
 * Both the Postgres repository (inside its locked transaction) and the
 * in-memory test fakes call these functions, so the rules cannot drift
 * between the real store and the tests.
 */
package domain

import "time"

// CheckVerification decides whether a submitted code may verify the given
// account at instant `now`. It returns nil when verification must proceed,
// or the taxonomy error describing why it must not.
//
// The comparison is exact string equality: no trimming, no case folding, no
// leading-zero normalization. Expiry is compared on absolute UTC instants and
// fails only when `now` is strictly after the stored expiry.
func CheckVerification(acct *BankAccount, submittedCode string, now time.Time) error {
	if acct.IsVerified {
		return ErrAlreadyVerified
	}
	if acct.VerificationCode == nil || acct.VerificationCodeExpiresAt == nil {
		return ErrNoCodeIssued
	}
	if *acct.VerificationCode != submittedCode {
		return ErrCodeMismatch
	}
	if now.UTC().After(acct.VerificationCodeExpiresAt.UTC()) {
		return ErrCodeExpired
	}
	return nil
}

// ShouldClaimPrimary implements the claim-if-first rule: a freshly verified
// account becomes primary only when it is the user's sole verified account,
// counting itself.
func ShouldClaimPrimary(verifiedCount int) bool {
	return verifiedCount == 1
}
