/**
 * @description
 * This file defines the Go structs that map to the external bank directory
 * API consumed by the bankclient package: the supported-bank list and the
 * name-enquiry (account resolution) endpoint.
 *
 * @notes
 * - Directory data is convenience display data only. It never participates
 *   in the verification invariant.
 */
package domain

// Bank represents a single bank returned from the directory API.
type Bank struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// ListBanksResponse is the response structure for the list banks endpoint.
type ListBanksResponse struct {
	Data []Bank `json:"data"`
}

// ResolveAccountResponse is the response from the directory's name-enquiry
// endpoint.
type ResolveAccountResponse struct {
	Data struct {
		AccountName   string `json:"account_name"`
		AccountNumber string `json:"account_number"`
		BankCode      string `json:"bank_code"`
	} `json:"data"`
}
