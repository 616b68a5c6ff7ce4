package app

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/payvault/payout-account-service/internal/domain"
)

// fakeBankAccountRepository is an in-memory stand-in for the Postgres
// repository. Its VerifyAndClaim and Promote honor the same contract as the
// real implementation, reusing the shared decision logic in the domain
// package.
type fakeBankAccountRepository struct {
	mu       sync.Mutex
	accounts map[string]*domain.BankAccount
	users    map[string]*domain.User
	clock    time.Time
}

func newFakeRepo() *fakeBankAccountRepository {
	return &fakeBankAccountRepository{
		accounts: make(map[string]*domain.BankAccount),
		users: map[string]*domain.User{
			"user-1": {ID: "user-1", Email: "user-1@example.com"},
			"user-2": {ID: "user-2", Email: "user-2@example.com"},
		},
		clock: time.Date(2026, time.March, 14, 9, 0, 0, 0, time.UTC),
	}
}

func (f *fakeBankAccountRepository) tick() time.Time {
	f.clock = f.clock.Add(time.Minute)
	return f.clock
}

func (f *fakeBankAccountRepository) Create(ctx context.Context, acct *domain.BankAccount) (*domain.BankAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *acct
	cp.ID = uuid.NewString()
	cp.IsVerified = false
	cp.IsPrimary = false
	cp.CreatedAt = f.tick()
	cp.UpdatedAt = cp.CreatedAt
	f.accounts[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeBankAccountRepository) FindByID(ctx context.Context, userID, accountID string) (*domain.BankAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	acct, ok := f.accounts[accountID]
	if !ok || acct.UserID != userID {
		return nil, domain.ErrAccountNotFound
	}
	cp := *acct
	return &cp, nil
}

func (f *fakeBankAccountRepository) FindByUserAndNumber(ctx context.Context, userID, accountNumber, bankCode string) (*domain.BankAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, acct := range f.accounts {
		if acct.UserID == userID && acct.AccountNumber == accountNumber && acct.BankCode == bankCode {
			cp := *acct
			return &cp, nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (f *fakeBankAccountRepository) ReissueCode(ctx context.Context, acct *domain.BankAccount) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.accounts[acct.ID]
	if !ok {
		return domain.ErrAccountNotFound
	}
	if stored.IsVerified {
		return domain.ErrAlreadyVerified
	}
	stored.AccountName = acct.AccountName
	stored.BankName = acct.BankName
	stored.VerificationCode = acct.VerificationCode
	stored.VerificationCodeExpiresAt = acct.VerificationCodeExpiresAt
	stored.UpdatedAt = f.tick()
	return nil
}

func (f *fakeBankAccountRepository) ListByUser(ctx context.Context, userID string) ([]domain.BankAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.BankAccount
	for _, acct := range f.accounts {
		if acct.UserID == userID {
			out = append(out, *acct)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsPrimary != out[j].IsPrimary {
			return out[i].IsPrimary
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (f *fakeBankAccountRepository) VerifyAndClaim(ctx context.Context, userID, accountID, submittedCode string, now time.Time) (*domain.BankAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	target, ok := f.accounts[accountID]
	if !ok || target.UserID != userID {
		return nil, domain.ErrAccountNotFound
	}
	verifiedCount := 0
	for _, acct := range f.accounts {
		if acct.UserID == userID && acct.IsVerified {
			verifiedCount++
		}
	}
	if err := domain.CheckVerification(target, submittedCode, now); err != nil {
		return nil, err
	}
	target.IsVerified = true
	target.IsPrimary = domain.ShouldClaimPrimary(verifiedCount + 1)
	target.VerificationCode = nil
	target.VerificationCodeExpiresAt = nil
	target.UpdatedAt = f.tick()
	cp := *target
	return &cp, nil
}

func (f *fakeBankAccountRepository) Promote(ctx context.Context, userID, accountID string) (*domain.BankAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	target, ok := f.accounts[accountID]
	if !ok || target.UserID != userID {
		return nil, domain.ErrAccountNotFound
	}
	if !target.IsVerified {
		return nil, domain.ErrAccountNotVerified
	}
	for _, acct := range f.accounts {
		if acct.UserID == userID {
			acct.IsPrimary = false
		}
	}
	target.IsPrimary = true
	target.UpdatedAt = f.tick()
	cp := *target
	return &cp, nil
}

func (f *fakeBankAccountRepository) Delete(ctx context.Context, userID, accountID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	acct, ok := f.accounts[accountID]
	if !ok || acct.UserID != userID {
		return domain.ErrAccountNotFound
	}
	if acct.IsPrimary {
		return domain.ErrPrimaryAccountUndeletable
	}
	delete(f.accounts, accountID)
	return nil
}

func (f *fakeBankAccountRepository) FindUserByID(ctx context.Context, userID string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *user
	return &cp, nil
}

// expireCode backdates the stored expiry so a subsequent verify sees an
// expired code.
func (f *fakeBankAccountRepository) expireCode(accountID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	past := time.Now().UTC().Add(-time.Minute)
	f.accounts[accountID].VerificationCodeExpiresAt = &past
}

func (f *fakeBankAccountRepository) storedCode(accountID string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	acct := f.accounts[accountID]
	if acct.VerificationCode == nil {
		return ""
	}
	return *acct.VerificationCode
}

func (f *fakeBankAccountRepository) primaryCount(userID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, acct := range f.accounts {
		if acct.UserID == userID && acct.IsPrimary {
			n++
		}
	}
	return n
}

// fakeNotifier records published verification events and signals arrival.
type fakeNotifier struct {
	mu     sync.Mutex
	events []domain.VerificationCodeIssuedEvent
	ch     chan domain.VerificationCodeIssuedEvent
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{ch: make(chan domain.VerificationCodeIssuedEvent, 16)}
}

func (n *fakeNotifier) SendVerificationCode(ctx context.Context, event domain.VerificationCodeIssuedEvent) error {
	n.mu.Lock()
	n.events = append(n.events, event)
	n.mu.Unlock()
	n.ch <- event
	return nil
}

func (n *fakeNotifier) waitForEvent(t *testing.T) domain.VerificationCodeIssuedEvent {
	t.Helper()
	select {
	case event := <-n.ch:
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for verification event")
		return domain.VerificationCodeIssuedEvent{}
	}
}

func newTestService(repo *fakeBankAccountRepository, notifier *fakeNotifier) *BankAccountService {
	return NewBankAccountService(repo, nil, nil, notifier, 15, "NG")
}

func addInput(userID, number string) AddBankAccountInput {
	return AddBankAccountInput{
		UserID:        userID,
		AccountNumber: number,
		AccountName:   "Ada Obi",
		BankName:      "First Bank",
		BankCode:      "000016",
	}
}

func TestAddBankAccountIssuesCodeAndNotifies(t *testing.T) {
	repo := newFakeRepo()
	notifier := newFakeNotifier()
	svc := newTestService(repo, notifier)

	result, err := svc.AddBankAccount(context.Background(), addInput("user-1", "0123456789"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.AccountID == "" {
		t.Fatal("expected an account id")
	}
	if result.CodeTTLMinutes != 15 {
		t.Fatalf("expected ttl 15, got %d", result.CodeTTLMinutes)
	}

	event := notifier.waitForEvent(t)
	if event.Email != "user-1@example.com" {
		t.Fatalf("expected code sent to owner email, got %q", event.Email)
	}
	if len(event.Code) != 6 {
		t.Fatalf("expected 6-digit code in event, got %q", event.Code)
	}
	if event.Code != repo.storedCode(result.AccountID) {
		t.Fatal("event code does not match stored code")
	}

	acct, err := repo.FindByID(context.Background(), "user-1", result.AccountID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if acct.IsVerified || acct.IsPrimary {
		t.Fatal("freshly added account must be unverified and non-primary")
	}
}

func TestAddBankAccountReusesUnverifiedRowAndInvalidatesOldCode(t *testing.T) {
	repo := newFakeRepo()
	notifier := newFakeNotifier()
	svc := newTestService(repo, notifier)
	ctx := context.Background()

	first, err := svc.AddBankAccount(ctx, addInput("user-1", "0123456789"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	oldCode := notifier.waitForEvent(t).Code

	second, err := svc.AddBankAccount(ctx, addInput("user-1", "0123456789"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	newCode := notifier.waitForEvent(t).Code

	if second.AccountID != first.AccountID {
		t.Fatal("re-submission of an unverified account must reuse the row")
	}

	if oldCode != newCode {
		if _, err := svc.VerifyBankAccount(ctx, "user-1", first.AccountID, oldCode); !errors.Is(err, domain.ErrCodeMismatch) {
			t.Fatalf("old code should no longer verify, got %v", err)
		}
	}
	if _, err := svc.VerifyBankAccount(ctx, "user-1", first.AccountID, newCode); err != nil {
		t.Fatalf("new code should verify: %v", err)
	}
}

func TestAddBankAccountRejectsVerifiedAccount(t *testing.T) {
	repo := newFakeRepo()
	notifier := newFakeNotifier()
	svc := newTestService(repo, notifier)
	ctx := context.Background()

	result, _ := svc.AddBankAccount(ctx, addInput("user-1", "0123456789"))
	code := notifier.waitForEvent(t).Code
	if _, err := svc.VerifyBankAccount(ctx, "user-1", result.AccountID, code); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := svc.AddBankAccount(ctx, addInput("user-1", "0123456789")); !errors.Is(err, domain.ErrAlreadyVerified) {
		t.Fatalf("expected ErrAlreadyVerified, got %v", err)
	}
}

func TestVerifyFirstAccountClaimsPrimary(t *testing.T) {
	repo := newFakeRepo()
	notifier := newFakeNotifier()
	svc := newTestService(repo, notifier)
	ctx := context.Background()

	result, _ := svc.AddBankAccount(ctx, addInput("user-1", "0123456789"))
	code := notifier.waitForEvent(t).Code

	verified, err := svc.VerifyBankAccount(ctx, "user-1", result.AccountID, code)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !verified.IsVerified {
		t.Fatal("account should be verified")
	}
	if !verified.IsPrimary {
		t.Fatal("first verified account must become primary")
	}
	if repo.storedCode(result.AccountID) != "" {
		t.Fatal("stored code must be cleared after verification")
	}
}

func TestVerifySecondAccountDoesNotClaimPrimary(t *testing.T) {
	repo := newFakeRepo()
	notifier := newFakeNotifier()
	svc := newTestService(repo, notifier)
	ctx := context.Background()

	x, _ := svc.AddBankAccount(ctx, addInput("user-1", "0123456789"))
	xCode := notifier.waitForEvent(t).Code
	if _, err := svc.VerifyBankAccount(ctx, "user-1", x.AccountID, xCode); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	y, _ := svc.AddBankAccount(ctx, addInput("user-1", "9876543210"))
	yCode := notifier.waitForEvent(t).Code
	yVerified, err := svc.VerifyBankAccount(ctx, "user-1", y.AccountID, yCode)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if yVerified.IsPrimary {
		t.Fatal("second verified account must not claim primary")
	}

	xAcct, _ := repo.FindByID(ctx, "user-1", x.AccountID)
	if !xAcct.IsPrimary {
		t.Fatal("first account must remain primary")
	}
	if repo.primaryCount("user-1") != 1 {
		t.Fatalf("expected exactly one primary, got %d", repo.primaryCount("user-1"))
	}
}

func TestVerifyWithWrongCodeDoesNotFlipVerified(t *testing.T) {
	repo := newFakeRepo()
	notifier := newFakeNotifier()
	svc := newTestService(repo, notifier)
	ctx := context.Background()

	result, _ := svc.AddBankAccount(ctx, addInput("user-1", "0123456789"))
	code := notifier.waitForEvent(t).Code

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	if _, err := svc.VerifyBankAccount(ctx, "user-1", result.AccountID, wrong); !errors.Is(err, domain.ErrCodeMismatch) {
		t.Fatalf("expected ErrCodeMismatch, got %v", err)
	}

	acct, _ := repo.FindByID(ctx, "user-1", result.AccountID)
	if acct.IsVerified {
		t.Fatal("mismatched code must never flip is_verified")
	}
}

func TestVerifyWithExpiredCodeFails(t *testing.T) {
	repo := newFakeRepo()
	notifier := newFakeNotifier()
	svc := newTestService(repo, notifier)
	ctx := context.Background()

	result, _ := svc.AddBankAccount(ctx, addInput("user-1", "0123456789"))
	code := notifier.waitForEvent(t).Code
	repo.expireCode(result.AccountID)

	if _, err := svc.VerifyBankAccount(ctx, "user-1", result.AccountID, code); !errors.Is(err, domain.ErrCodeExpired) {
		t.Fatalf("expected ErrCodeExpired, got %v", err)
	}
}

func TestVerifyTwiceReportsAlreadyVerified(t *testing.T) {
	repo := newFakeRepo()
	notifier := newFakeNotifier()
	svc := newTestService(repo, notifier)
	ctx := context.Background()

	result, _ := svc.AddBankAccount(ctx, addInput("user-1", "0123456789"))
	code := notifier.waitForEvent(t).Code
	if _, err := svc.VerifyBankAccount(ctx, "user-1", result.AccountID, code); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := svc.VerifyBankAccount(ctx, "user-1", result.AccountID, code); !errors.Is(err, domain.ErrAlreadyVerified) {
		t.Fatalf("expected ErrAlreadyVerified on re-verification, got %v", err)
	}
}

func TestVerifyUnknownAccountReportsNotFound(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, newFakeNotifier())

	if _, err := svc.VerifyBankAccount(context.Background(), "user-1", uuid.NewString(), "482913"); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestPromoteSwapsPrimary(t *testing.T) {
	repo := newFakeRepo()
	notifier := newFakeNotifier()
	svc := newTestService(repo, notifier)
	ctx := context.Background()

	x, _ := svc.AddBankAccount(ctx, addInput("user-1", "0123456789"))
	xCode := notifier.waitForEvent(t).Code
	_, _ = svc.VerifyBankAccount(ctx, "user-1", x.AccountID, xCode)

	y, _ := svc.AddBankAccount(ctx, addInput("user-1", "9876543210"))
	yCode := notifier.waitForEvent(t).Code
	_, _ = svc.VerifyBankAccount(ctx, "user-1", y.AccountID, yCode)

	promoted, err := svc.SetPrimaryBankAccount(ctx, "user-1", y.AccountID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !promoted.IsPrimary {
		t.Fatal("promoted account should be primary")
	}

	xAcct, _ := repo.FindByID(ctx, "user-1", x.AccountID)
	if xAcct.IsPrimary {
		t.Fatal("previous primary must be demoted")
	}
	if repo.primaryCount("user-1") != 1 {
		t.Fatalf("expected exactly one primary, got %d", repo.primaryCount("user-1"))
	}
}

func TestPromoteUnverifiedAccountFails(t *testing.T) {
	repo := newFakeRepo()
	notifier := newFakeNotifier()
	svc := newTestService(repo, notifier)
	ctx := context.Background()

	result, _ := svc.AddBankAccount(ctx, addInput("user-1", "0123456789"))
	notifier.waitForEvent(t)

	if _, err := svc.SetPrimaryBankAccount(ctx, "user-1", result.AccountID); !errors.Is(err, domain.ErrAccountNotVerified) {
		t.Fatalf("expected ErrAccountNotVerified, got %v", err)
	}
}

func TestDeletePrimaryFailsUntilAnotherIsPromoted(t *testing.T) {
	repo := newFakeRepo()
	notifier := newFakeNotifier()
	svc := newTestService(repo, notifier)
	ctx := context.Background()

	x, _ := svc.AddBankAccount(ctx, addInput("user-1", "0123456789"))
	xCode := notifier.waitForEvent(t).Code
	_, _ = svc.VerifyBankAccount(ctx, "user-1", x.AccountID, xCode)

	y, _ := svc.AddBankAccount(ctx, addInput("user-1", "9876543210"))
	yCode := notifier.waitForEvent(t).Code
	_, _ = svc.VerifyBankAccount(ctx, "user-1", y.AccountID, yCode)

	// X is primary and cannot be removed.
	if err := svc.DeleteBankAccount(ctx, "user-1", x.AccountID); !errors.Is(err, domain.ErrPrimaryAccountUndeletable) {
		t.Fatalf("expected ErrPrimaryAccountUndeletable, got %v", err)
	}

	if _, err := svc.SetPrimaryBankAccount(ctx, "user-1", y.AccountID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := svc.DeleteBankAccount(ctx, "user-1", x.AccountID); err != nil {
		t.Fatalf("demoted account should delete: %v", err)
	}
	if err := svc.DeleteBankAccount(ctx, "user-1", y.AccountID); !errors.Is(err, domain.ErrPrimaryAccountUndeletable) {
		t.Fatalf("new primary must be undeletable, got %v", err)
	}
}

func TestListBankAccountsOrdersPrimaryFirstThenNewest(t *testing.T) {
	repo := newFakeRepo()
	notifier := newFakeNotifier()
	svc := newTestService(repo, notifier)
	ctx := context.Background()

	a, _ := svc.AddBankAccount(ctx, addInput("user-1", "1111111111"))
	aCode := notifier.waitForEvent(t).Code
	_, _ = svc.VerifyBankAccount(ctx, "user-1", a.AccountID, aCode)

	b, _ := svc.AddBankAccount(ctx, addInput("user-1", "2222222222"))
	notifier.waitForEvent(t)
	c, _ := svc.AddBankAccount(ctx, addInput("user-1", "3333333333"))
	notifier.waitForEvent(t)

	views, err := svc.ListBankAccounts(ctx, "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(views) != 3 {
		t.Fatalf("expected 3 accounts, got %d", len(views))
	}
	if views[0].ID != a.AccountID {
		t.Fatal("primary account must be listed first")
	}
	if views[1].ID != c.AccountID || views[2].ID != b.AccountID {
		t.Fatal("non-primary accounts must be ordered newest first")
	}
	for _, v := range views {
		if v.AccountNumberMasked == "1111111111" || v.AccountNumberMasked == "2222222222" || v.AccountNumberMasked == "3333333333" {
			t.Fatal("raw account numbers must not appear in list views")
		}
	}
}
