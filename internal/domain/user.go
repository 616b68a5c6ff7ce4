/**
 * @description
 * This file defines the slice of the User model this service needs: the
 * identity and email address used to deliver verification codes.
 */
package domain

// User holds the user fields relevant to bank-account verification.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}
