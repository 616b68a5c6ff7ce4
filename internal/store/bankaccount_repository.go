/**
 * @description
 * This file implements the data access layer for bank-account operations.
 * It owns every SQL statement touching the `bank_accounts` table, including
 * the locked transactions that keep the single-primary invariant correct
 * under concurrent verification and promotion.
 *
 * @dependencies
 * - context, time: Standard Go libraries.
 * - github.com/google/uuid: Account ids are minted here on insert.
 * - github.com/jackc/pgx/v5 and pgxpool: The PostgreSQL driver.
 * - The service's internal domain package for the BankAccount model and the
 *   verification decision logic.
 *
 * @notes
 * - VerifyAndClaim and Promote both start by locking ALL of the user's
 *   bank-account rows with `SELECT ... FOR UPDATE` ordered by id. Ordering
 *   the lock acquisition keeps two concurrent transactions for the same user
 *   from deadlocking, and holding the full set serializes the
 *   count-then-write against concurrent mutations of sibling rows.
 */
package store

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/payvault/payout-account-service/internal/domain"
)

const bankAccountColumns = `id, user_id, account_number, account_name, bank_name, bank_code,
	is_verified, is_primary, verification_code, verification_code_expires_at, created_at, updated_at`

// PostgresBankAccountRepository is the PostgreSQL implementation of the
// BankAccountRepository.
type PostgresBankAccountRepository struct {
	db *pgxpool.Pool
}

// NewPostgresBankAccountRepository creates a new instance of PostgresBankAccountRepository.
func NewPostgresBankAccountRepository(db *pgxpool.Pool) *PostgresBankAccountRepository {
	return &PostgresBankAccountRepository{db: db}
}

func scanBankAccount(row pgx.Row) (*domain.BankAccount, error) {
	var a domain.BankAccount
	err := row.Scan(
		&a.ID,
		&a.UserID,
		&a.AccountNumber,
		&a.AccountName,
		&a.BankName,
		&a.BankCode,
		&a.IsVerified,
		&a.IsPrimary,
		&a.VerificationCode,
		&a.VerificationCodeExpiresAt,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Create inserts a new unverified, non-primary bank account row.
func (r *PostgresBankAccountRepository) Create(ctx context.Context, acct *domain.BankAccount) (*domain.BankAccount, error) {
	query := `
        INSERT INTO bank_accounts (
            id, user_id, account_number, account_name, bank_name, bank_code,
            is_verified, is_primary, verification_code, verification_code_expires_at
        )
        VALUES ($1, $2, $3, $4, $5, $6, FALSE, FALSE, $7, $8)
        RETURNING ` + bankAccountColumns
	id := uuid.NewString()
	created, err := scanBankAccount(r.db.QueryRow(ctx, query,
		id,
		acct.UserID,
		acct.AccountNumber,
		acct.AccountName,
		acct.BankName,
		acct.BankCode,
		acct.VerificationCode,
		acct.VerificationCodeExpiresAt,
	))
	if err != nil {
		// A concurrent add for the same (user, number, bank) trips the unique
		// index; the retry lands on the reuse path.
		log.Printf("Error inserting bank account for user %s: %v", acct.UserID, err)
		return nil, classify(err)
	}
	return created, nil
}

// FindByID retrieves a bank account by id, scoped to its owner.
func (r *PostgresBankAccountRepository) FindByID(ctx context.Context, userID, accountID string) (*domain.BankAccount, error) {
	query := `SELECT ` + bankAccountColumns + ` FROM bank_accounts WHERE id = $1 AND user_id = $2`
	acct, err := scanBankAccount(r.db.QueryRow(ctx, query, accountID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, classify(err)
	}
	return acct, nil
}

// FindByUserAndNumber retrieves a bank account by its external identity.
func (r *PostgresBankAccountRepository) FindByUserAndNumber(ctx context.Context, userID, accountNumber, bankCode string) (*domain.BankAccount, error) {
	query := `
        SELECT ` + bankAccountColumns + `
        FROM bank_accounts
        WHERE user_id = $1 AND account_number = $2 AND bank_code = $3`
	acct, err := scanBankAccount(r.db.QueryRow(ctx, query, userID, accountNumber, bankCode))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, classify(err)
	}
	return acct, nil
}

// ReissueCode refreshes an existing unverified row with new descriptive
// fields and a newly issued code, invalidating the previous one.
func (r *PostgresBankAccountRepository) ReissueCode(ctx context.Context, acct *domain.BankAccount) error {
	query := `
        UPDATE bank_accounts
        SET account_name = $2,
            bank_name = $3,
            is_verified = FALSE,
            verification_code = $4,
            verification_code_expires_at = $5,
            updated_at = NOW()
        WHERE id = $1 AND is_verified = FALSE`
	result, err := r.db.Exec(ctx, query,
		acct.ID,
		acct.AccountName,
		acct.BankName,
		acct.VerificationCode,
		acct.VerificationCodeExpiresAt,
	)
	if err != nil {
		return classify(err)
	}
	if result.RowsAffected() == 0 {
		// The row verified between lookup and update.
		return domain.ErrAlreadyVerified
	}
	return nil
}

// ListByUser returns all of a user's bank accounts, primary first, then
// newest-created first.
func (r *PostgresBankAccountRepository) ListByUser(ctx context.Context, userID string) ([]domain.BankAccount, error) {
	query := `
        SELECT ` + bankAccountColumns + `
        FROM bank_accounts
        WHERE user_id = $1
        ORDER BY is_primary DESC, created_at DESC`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var accounts []domain.BankAccount
	for rows.Next() {
		acct, err := scanBankAccount(rows)
		if err != nil {
			return nil, classify(err)
		}
		accounts = append(accounts, *acct)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return accounts, nil
}

// lockUserAccounts acquires row locks on every bank account belonging to the
// user, in id order, and returns them. Both VerifyAndClaim and Promote go
// through here so per-user mutations are serialized by the database.
func lockUserAccounts(ctx context.Context, tx pgx.Tx, userID string) ([]domain.BankAccount, error) {
	query := `
        SELECT ` + bankAccountColumns + `
        FROM bank_accounts
        WHERE user_id = $1
        ORDER BY id
        FOR UPDATE`
	rows, err := tx.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []domain.BankAccount
	for rows.Next() {
		acct, err := scanBankAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *acct)
	}
	return accounts, rows.Err()
}

// VerifyAndClaim validates the submitted code and, within one transaction,
// marks the account verified, clears the consumed code, and sets is_primary
// when this is the user's first verified account.
func (r *PostgresBankAccountRepository) VerifyAndClaim(ctx context.Context, userID, accountID, submittedCode string, now time.Time) (*domain.BankAccount, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, classify(err)
	}
	defer tx.Rollback(ctx)

	accounts, err := lockUserAccounts(ctx, tx, userID)
	if err != nil {
		return nil, classify(err)
	}

	var target *domain.BankAccount
	verifiedCount := 0
	for i := range accounts {
		if accounts[i].IsVerified {
			verifiedCount++
		}
		if accounts[i].ID == accountID {
			target = &accounts[i]
		}
	}
	if target == nil {
		return nil, domain.ErrAccountNotFound
	}

	if err := domain.CheckVerification(target, submittedCode, now); err != nil {
		return nil, err
	}

	claimPrimary := domain.ShouldClaimPrimary(verifiedCount + 1)

	query := `
        UPDATE bank_accounts
        SET is_verified = TRUE,
            is_primary = $2,
            verification_code = NULL,
            verification_code_expires_at = NULL,
            updated_at = NOW()
        WHERE id = $1
        RETURNING ` + bankAccountColumns
	verified, err := scanBankAccount(tx.QueryRow(ctx, query, accountID, claimPrimary))
	if err != nil {
		return nil, classify(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, classify(err)
	}
	return verified, nil
}

// Promote makes the target verified account primary, demoting any previous
// primary account in the same transaction.
func (r *PostgresBankAccountRepository) Promote(ctx context.Context, userID, accountID string) (*domain.BankAccount, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, classify(err)
	}
	defer tx.Rollback(ctx)

	accounts, err := lockUserAccounts(ctx, tx, userID)
	if err != nil {
		return nil, classify(err)
	}

	var target *domain.BankAccount
	for i := range accounts {
		if accounts[i].ID == accountID {
			target = &accounts[i]
			break
		}
	}
	if target == nil {
		return nil, domain.ErrAccountNotFound
	}
	if !target.IsVerified {
		return nil, domain.ErrAccountNotVerified
	}

	if _, err := tx.Exec(ctx,
		`UPDATE bank_accounts SET is_primary = FALSE, updated_at = NOW() WHERE user_id = $1 AND is_primary = TRUE`,
		userID,
	); err != nil {
		return nil, classify(err)
	}

	query := `
        UPDATE bank_accounts
        SET is_primary = TRUE, updated_at = NOW()
        WHERE id = $1
        RETURNING ` + bankAccountColumns
	promoted, err := scanBankAccount(tx.QueryRow(ctx, query, accountID))
	if err != nil {
		return nil, classify(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, classify(err)
	}
	return promoted, nil
}

// Delete permanently removes a non-primary bank account.
func (r *PostgresBankAccountRepository) Delete(ctx context.Context, userID, accountID string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return classify(err)
	}
	defer tx.Rollback(ctx)

	var isPrimary bool
	err = tx.QueryRow(ctx,
		`SELECT is_primary FROM bank_accounts WHERE id = $1 AND user_id = $2 FOR UPDATE`,
		accountID, userID,
	).Scan(&isPrimary)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrAccountNotFound
		}
		return classify(err)
	}
	if isPrimary {
		return domain.ErrPrimaryAccountUndeletable
	}

	if _, err := tx.Exec(ctx, `DELETE FROM bank_accounts WHERE id = $1`, accountID); err != nil {
		return classify(err)
	}
	return classify(tx.Commit(ctx))
}

// FindUserByID resolves a user's id and email from the users table.
func (r *PostgresBankAccountRepository) FindUserByID(ctx context.Context, userID string) (*domain.User, error) {
	var user domain.User
	err := r.db.QueryRow(ctx, `SELECT id, email FROM users WHERE id = $1`, userID).Scan(&user.ID, &user.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, classify(err)
	}
	return &user, nil
}
