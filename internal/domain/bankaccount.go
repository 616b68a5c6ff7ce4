/**
 * @description
 * This file defines the core domain model for a user's external payout bank
 * account. It represents the row exactly as stored in our own database,
 * including the verification state that drives the account lifecycle.
 *
 * @notes
 * - A bank account belongs to exactly one user via `UserID`.
 * - `VerificationCode` and `VerificationCodeExpiresAt` are populated only
 *   while the account is pending verification; both are cleared the moment
 *   the account transitions to verified. They never appear in JSON output.
 * - At most one account per user carries `IsPrimary = true`, and only a
 *   verified account may carry it.
 */
package domain

import (
	"fmt"
	"time"
)

// BankAccount represents an external bank account registered for payouts.
type BankAccount struct {
	ID                        string     `json:"id"`
	UserID                    string     `json:"user_id"`
	AccountNumber             string     `json:"-"`
	AccountName               string     `json:"account_name"`
	BankName                  string     `json:"bank_name"`
	BankCode                  string     `json:"bank_code"`
	IsVerified                bool       `json:"is_verified"`
	IsPrimary                 bool       `json:"is_primary"`
	VerificationCode          *string    `json:"-"`
	VerificationCodeExpiresAt *time.Time `json:"-"`
	CreatedAt                 time.Time  `json:"created_at"`
	UpdatedAt                 time.Time  `json:"updated_at"`
}

// BankAccountView is the caller-facing projection of a bank account. The raw
// account number is masked and the verification secret is never included.
type BankAccountView struct {
	ID                  string    `json:"id"`
	AccountNumberMasked string    `json:"account_number_masked"`
	AccountName         string    `json:"account_name"`
	BankName            string    `json:"bank_name"`
	BankCode            string    `json:"bank_code"`
	IsVerified          bool      `json:"is_verified"`
	IsPrimary           bool      `json:"is_primary"`
	CreatedAt           time.Time `json:"created_at"`
}

// View converts a stored bank account into its caller-facing projection.
func (a *BankAccount) View() BankAccountView {
	return BankAccountView{
		ID:                  a.ID,
		AccountNumberMasked: MaskAccountNumber(a.AccountNumber),
		AccountName:         a.AccountName,
		BankName:            a.BankName,
		BankCode:            a.BankCode,
		IsVerified:          a.IsVerified,
		IsPrimary:           a.IsPrimary,
		CreatedAt:           a.CreatedAt,
	}
}

// MaskAccountNumber masks an account number, showing only the first and last
// two digits.
func MaskAccountNumber(accountNumber string) string {
	if len(accountNumber) > 4 {
		return fmt.Sprintf("%s...%s", accountNumber[:2], accountNumber[len(accountNumber)-2:])
	}
	return "****"
}
