/**
 * @description
 * This file contains the core business logic for the payout-account-service,
 * implemented as a `BankAccountService`. It orchestrates the bank-account
 * lifecycle: registering an account (which issues a one-time code), verifying
 * it, listing, promoting a verified account to primary, and deleting.
 *
 * @notes
 * - This service layer keeps the API handlers (controllers) thin and focused
 *   on HTTP concerns, while the business logic remains independent.
 * - The verification code is never part of any return value here; it reaches
 *   the user only through the Notifier, and only after the issuing write has
 *   committed.
 */
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/payvault/payout-account-service/internal/domain"
	"github.com/payvault/payout-account-service/internal/otp"
	"github.com/payvault/payout-account-service/internal/store"
	"github.com/payvault/payout-account-service/pkg/bankclient"
)

const notifyTimeout = 15 * time.Second

// Notifier delivers an issued verification code to the user. Best-effort:
// failures are logged by the caller and never fail the issuing request.
type Notifier interface {
	SendVerificationCode(ctx context.Context, event domain.VerificationCodeIssuedEvent) error
}

// BankAccountService provides methods for managing payout bank accounts.
type BankAccountService struct {
	repo           store.BankAccountRepository
	bankRepo       store.BankRepository
	bankClient     *bankclient.Client
	notifier       Notifier
	codeTTLMinutes int
	countryCode    string
}

// NewBankAccountService creates a new instance of BankAccountService.
func NewBankAccountService(repo store.BankAccountRepository, bankRepo store.BankRepository, bankClient *bankclient.Client, notifier Notifier, codeTTLMinutes int, countryCode string) *BankAccountService {
	if codeTTLMinutes <= 0 {
		codeTTLMinutes = otp.DefaultTTLMinutes
	}
	return &BankAccountService{
		repo:           repo,
		bankRepo:       bankRepo,
		bankClient:     bankClient,
		notifier:       notifier,
		codeTTLMinutes: codeTTLMinutes,
		countryCode:    countryCode,
	}
}

// AddBankAccountInput defines the required input for registering a bank account.
type AddBankAccountInput struct {
	UserID        string
	AccountNumber string
	AccountName   string
	BankName      string
	BankCode      string
}

// AddBankAccountResult is returned from AddBankAccount. It carries the TTL
// for display purposes only, never the code or the expiry instant.
type AddBankAccountResult struct {
	AccountID      string `json:"id"`
	CodeTTLMinutes int    `json:"code_ttl_minutes"`
}

// VerifyResult is returned from VerifyBankAccount and SetPrimaryBankAccount.
type VerifyResult struct {
	AccountID  string `json:"id"`
	IsVerified bool   `json:"is_verified"`
	IsPrimary  bool   `json:"is_primary"`
}

// AddBankAccount registers an external bank account and issues a one-time
// verification code for it. Re-submitting the same (account number, bank
// code) while the row is still unverified reuses the row and invalidates the
// previous code; re-submitting a verified account is rejected.
func (s *BankAccountService) AddBankAccount(ctx context.Context, input AddBankAccountInput) (*AddBankAccountResult, error) {
	code, err := otp.Generate()
	if err != nil {
		return nil, err
	}
	expiresAt := otp.Expiry(s.codeTTLMinutes)

	var accountID string
	existing, err := s.repo.FindByUserAndNumber(ctx, input.UserID, input.AccountNumber, input.BankCode)
	switch {
	case err == nil && existing.IsVerified:
		return nil, domain.ErrAlreadyVerified
	case err == nil:
		existing.AccountName = input.AccountName
		existing.BankName = input.BankName
		existing.VerificationCode = &code
		existing.VerificationCodeExpiresAt = &expiresAt
		if err := s.repo.ReissueCode(ctx, existing); err != nil {
			return nil, err
		}
		accountID = existing.ID
	case errors.Is(err, domain.ErrAccountNotFound):
		created, err := s.repo.Create(ctx, &domain.BankAccount{
			UserID:                    input.UserID,
			AccountNumber:             input.AccountNumber,
			AccountName:               input.AccountName,
			BankName:                  input.BankName,
			BankCode:                  input.BankCode,
			VerificationCode:          &code,
			VerificationCodeExpiresAt: &expiresAt,
		})
		if err != nil {
			return nil, err
		}
		accountID = created.ID
	default:
		return nil, err
	}

	// The issuing write has committed; delivery is detached so a slow
	// notifier cannot hold the request.
	go s.notifyCodeIssued(input.UserID, accountID, code)

	return &AddBankAccountResult{AccountID: accountID, CodeTTLMinutes: s.codeTTLMinutes}, nil
}

func (s *BankAccountService) notifyCodeIssued(userID, accountID, code string) {
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	user, err := s.repo.FindUserByID(ctx, userID)
	if err != nil {
		log.Printf("ERROR: Failed to resolve email for user %s, verification code not delivered: %v", userID, err)
		return
	}

	event := domain.VerificationCodeIssuedEvent{
		UserID:        userID,
		BankAccountID: accountID,
		Email:         user.Email,
		Code:          code,
		TTLMinutes:    s.codeTTLMinutes,
	}
	if err := s.notifier.SendVerificationCode(ctx, event); err != nil {
		log.Printf("ERROR: Failed to send verification code for account %s: %v", accountID, err)
	}
}

// VerifyBankAccount validates a submitted code and transitions the account to
// verified. The first verified account of a user becomes primary in the same
// transaction.
func (s *BankAccountService) VerifyBankAccount(ctx context.Context, userID, accountID, submittedCode string) (*VerifyResult, error) {
	acct, err := s.repo.VerifyAndClaim(ctx, userID, accountID, submittedCode, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	return &VerifyResult{AccountID: acct.ID, IsVerified: acct.IsVerified, IsPrimary: acct.IsPrimary}, nil
}

// ListBankAccounts returns the user's accounts, primary first, then newest first.
func (s *BankAccountService) ListBankAccounts(ctx context.Context, userID string) ([]domain.BankAccountView, error) {
	accounts, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	views := make([]domain.BankAccountView, 0, len(accounts))
	for i := range accounts {
		views = append(views, accounts[i].View())
	}
	return views, nil
}

// SetPrimaryBankAccount promotes a verified account to primary, demoting any
// previously primary account.
func (s *BankAccountService) SetPrimaryBankAccount(ctx context.Context, userID, accountID string) (*VerifyResult, error) {
	acct, err := s.repo.Promote(ctx, userID, accountID)
	if err != nil {
		return nil, err
	}
	return &VerifyResult{AccountID: acct.ID, IsVerified: acct.IsVerified, IsPrimary: acct.IsPrimary}, nil
}

// DeleteBankAccount permanently removes a non-primary account. The primary
// account must be demoted first by promoting another verified account.
func (s *BankAccountService) DeleteBankAccount(ctx context.Context, userID, accountID string) error {
	return s.repo.Delete(ctx, userID, accountID)
}

// ListBanks returns the supported banks, served from the Postgres cache when
// possible.
func (s *BankAccountService) ListBanks(ctx context.Context) (*domain.ListBanksResponse, error) {
	cached, err := s.bankRepo.GetCachedBanks(ctx)
	if err == nil && len(cached) > 0 {
		return &domain.ListBanksResponse{Data: cached}, nil
	}

	resp, err := s.bankClient.ListBanks(ctx, s.countryCode)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch banks from directory: %w", err)
	}

	// Refresh the cache without blocking the request.
	go func() {
		cacheCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if cacheErr := s.bankRepo.CacheBanks(cacheCtx, resp.Data); cacheErr != nil {
			log.Printf("WARN: failed to cache banks: %v", cacheErr)
		}
	}()

	return resp, nil
}

// ResolveAccountName performs name enquiry against the bank directory.
func (s *BankAccountService) ResolveAccountName(ctx context.Context, bankCode, accountNumber string) (string, error) {
	name, err := s.bankClient.ResolveAccountName(ctx, bankCode, accountNumber)
	if err != nil {
		return "", fmt.Errorf("failed to resolve account name: %w", err)
	}
	return name, nil
}
