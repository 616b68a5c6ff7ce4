/**
 * @description
 * This file implements the data access layer for bank directory caching.
 * The supported-bank list changes rarely, so it is cached in Postgres for 24
 * hours to keep directory lookups off the external API's rate limits.
 *
 * @dependencies
 * - context, encoding/json, time: Standard Go libraries.
 * - github.com/jackc/pgx/v5/pgxpool: The PostgreSQL driver.
 * - The service's internal domain package for the Bank model.
 */
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/payvault/payout-account-service/internal/domain"
)

const bankCacheTTL = 24 * time.Hour

// ErrBankCacheMiss is returned when no unexpired cached bank list exists.
var ErrBankCacheMiss = errors.New("no valid cached banks found")

// PostgresBankRepository is the PostgreSQL implementation of the BankRepository.
type PostgresBankRepository struct {
	db *pgxpool.Pool
}

// NewPostgresBankRepository creates a new instance of PostgresBankRepository.
func NewPostgresBankRepository(db *pgxpool.Pool) *PostgresBankRepository {
	return &PostgresBankRepository{db: db}
}

// CacheBanks replaces the cached bank list. An empty list is ignored so a bad
// upstream response cannot wipe a usable cache.
func (r *PostgresBankRepository) CacheBanks(ctx context.Context, banks []domain.Bank) error {
	if len(banks) == 0 {
		log.Printf("WARN: empty bank list received from directory, keeping existing cache")
		return nil
	}

	banksJSON, err := json.Marshal(banks)
	if err != nil {
		return fmt.Errorf("failed to marshal banks: %w", err)
	}

	if _, err := r.db.Exec(ctx, `DELETE FROM cached_banks`); err != nil {
		log.Printf("WARN: failed to delete existing cached banks: %v", err)
	}

	now := time.Now()
	query := `
        INSERT INTO cached_banks (banks_data, cached_at, expires_at)
        VALUES ($1, $2, $3)`
	if _, err := r.db.Exec(ctx, query, banksJSON, now, now.Add(bankCacheTTL)); err != nil {
		return fmt.Errorf("failed to cache banks: %w", classify(err))
	}

	log.Printf("Cached %d banks for %s", len(banks), bankCacheTTL)
	return nil
}

// GetCachedBanks retrieves the cached bank list, or ErrBankCacheMiss when the
// cache is empty or expired.
func (r *PostgresBankRepository) GetCachedBanks(ctx context.Context) ([]domain.Bank, error) {
	query := `
        SELECT banks_data
        FROM cached_banks
        WHERE expires_at > NOW()
        ORDER BY cached_at DESC
        LIMIT 1`
	var banksJSON []byte
	if err := r.db.QueryRow(ctx, query).Scan(&banksJSON); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBankCacheMiss
		}
		return nil, classify(err)
	}

	var banks []domain.Bank
	if err := json.Unmarshal(banksJSON, &banks); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached banks: %w", err)
	}
	return banks, nil
}

// ClearExpiredBanks removes expired bank cache entries.
func (r *PostgresBankRepository) ClearExpiredBanks(ctx context.Context) error {
	result, err := r.db.Exec(ctx, `DELETE FROM cached_banks WHERE expires_at <= NOW()`)
	if err != nil {
		return fmt.Errorf("failed to clear expired banks: %w", classify(err))
	}
	if n := result.RowsAffected(); n > 0 {
		log.Printf("Cleared %d expired bank cache entries", n)
	}
	return nil
}
