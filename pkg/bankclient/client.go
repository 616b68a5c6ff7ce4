/**
 * @description
 * This package provides a client for the external bank directory API. It
 * serves two user-facing conveniences: the list of supported banks, and
 * name enquiry (resolving an account number + bank code to the registered
 * account holder name).
 *
 * @notes
 * - Directory data is display-only; the verification invariant never depends
 *   on it.
 *
 * @dependencies
 * - bytes, context, encoding/json, fmt, io, net/http, time: Standard Go libraries.
 * - The service's internal domain package for the directory response models.
 */
package bankclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/payvault/payout-account-service/internal/domain"
)

// Client is a client for the bank directory API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new bank directory client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ListBanks fetches the list of supported banks for a country.
func (c *Client) ListBanks(ctx context.Context, countryCode string) (*domain.ListBanksResponse, error) {
	var resp domain.ListBanksResponse
	endpoint := fmt.Sprintf("%s/api/v1/banks?country=%s", c.baseURL, url.QueryEscape(countryCode))
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ResolveAccountName performs name enquiry for an external bank account.
func (c *Client) ResolveAccountName(ctx context.Context, bankCode, accountNumber string) (string, error) {
	var resp domain.ResolveAccountResponse
	endpoint := fmt.Sprintf("%s/api/v1/banks/%s/accounts/%s", c.baseURL, url.PathEscape(bankCode), url.PathEscape(accountNumber))
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &resp); err != nil {
		return "", err
	}
	return resp.Data.AccountName, nil
}

// do is a helper to make HTTP requests to the directory API.
func (c *Client) do(ctx context.Context, method, endpoint string, body, target interface{}) error {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create http request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("Bank directory returned status %d for %s %s", resp.StatusCode, method, endpoint)
		return fmt.Errorf("bank directory error: status %d, body: %s", resp.StatusCode, string(respBody))
	}

	if target != nil {
		if err := json.Unmarshal(respBody, target); err != nil {
			return fmt.Errorf("failed to unmarshal response body: %w", err)
		}
	}

	return nil
}
