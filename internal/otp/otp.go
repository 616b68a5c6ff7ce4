/**
 * @description
 * This package generates the one-time codes used to prove ownership of an
 * external bank account, together with their absolute expiry instants.
 *
 * @notes
 * - Codes are independent random draws; uniqueness across accounts is not
 *   required because a code is only ever compared against its own row.
 * - The value range starts at 100000 so a code never renders with a leading
 *   zero that could be ambiguous in display.
 */
package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const (
	codeMin = 100000
	codeMax = 999999

	// DefaultTTLMinutes is how long a code stays valid unless configured
	// otherwise.
	DefaultTTLMinutes = 15
)

// Generate returns a 6-digit numeric code in [100000, 999999].
func Generate() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeMax-codeMin+1))
	if err != nil {
		return "", fmt.Errorf("failed to generate verification code: %w", err)
	}
	return fmt.Sprintf("%d", codeMin+n.Int64()), nil
}

// Expiry returns the absolute UTC instant at which a code issued now stops
// being valid. The clock is read once.
func Expiry(ttlMinutes int) time.Time {
	if ttlMinutes <= 0 {
		ttlMinutes = DefaultTTLMinutes
	}
	return time.Now().UTC().Add(time.Duration(ttlMinutes) * time.Minute)
}
