/**
 * @description
 * This file defines the domain models for events published by this service.
 * These structs represent the contract for messages placed on the message
 * broker (RabbitMQ) for the notification service to deliver.
 *
 * @notes
 * - Having a clear, versioned contract for events is crucial for maintaining a
 *   stable and scalable microservices architecture.
 */
package domain

// VerificationCodeIssuedEvent is published after the write that issued a
// verification code has committed. The notification service delivers the code
// to the user's email; the code never travels back to the API caller.
type VerificationCodeIssuedEvent struct {
	UserID        string `json:"user_id"`
	BankAccountID string `json:"bank_account_id"`
	Email         string `json:"email"`
	Code          string `json:"code"`
	TTLMinutes    int    `json:"ttl_minutes"`
}
