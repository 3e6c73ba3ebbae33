// Package httpapi fetches a subject's data from the source-of-record HTTP
// API using the caller's bearer token.
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"bilancio/internal/core"
	"bilancio/internal/source"
)

const defaultFetchLimit = 1000

type Client struct {
	baseURL string
	http    *http.Client
}

var _ source.Client = (*Client)(nil)

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

type (
	wireTransaction struct {
		ID          string  `json:"id"`
		Description string  `json:"description"`
		Amount      float64 `json:"amount"`
		Type        string  `json:"type"`
		Category    string  `json:"category"`
		Date        string  `json:"date"`
		Status      string  `json:"status"`
		UpdatedAt   string  `json:"updatedAt"`
		CreatedAt   string  `json:"createdAt"`
	}

	transactionsResponse struct {
		Transactions []wireTransaction `json:"transactions"`
	}

	profileResponse struct {
		User struct {
			Name          string  `json:"name"`
			Email         string  `json:"email"`
			Currency      string  `json:"currency"`
			MonthlyIncome float64 `json:"monthlyIncome"`
		} `json:"user"`
	}
)

func (c *Client) FetchTransactions(ctx context.Context, subjectID, authToken string) ([]core.TransactionRecord, error) {
	var payload transactionsResponse
	url := fmt.Sprintf("%s/transactions?limit=%d", c.baseURL, defaultFetchLimit)
	if err := c.get(ctx, url, authToken, &payload); err != nil {
		return nil, err
	}

	records := make([]core.TransactionRecord, 0, len(payload.Transactions))
	for _, wt := range payload.Transactions {
		rec, err := wt.toRecord(subjectID)
		if err != nil {
			return nil, fmt.Errorf("transaction %s: %w", wt.ID, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func (c *Client) FetchProfile(ctx context.Context, subjectID, authToken string) (core.Profile, error) {
	var payload profileResponse
	if err := c.get(ctx, c.baseURL+"/auth/me", authToken, &payload); err != nil {
		return core.Profile{}, err
	}
	return core.Profile{
		SubjectID:     subjectID,
		Name:          payload.User.Name,
		Email:         payload.User.Email,
		Currency:      payload.User.Currency,
		MonthlyIncome: core.Money{Cents: core.CentsFromFloat(payload.User.MonthlyIncome)},
	}, nil
}

// get performs an authenticated GET and decodes the JSON body. Transport
// failures and 5xx answers surface as source.ErrUnavailable so the
// reconciler can tell a dead source from a bad record.
func (c *Client) get(ctx context.Context, url, authToken string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+authToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", source.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d", source.ErrUnavailable, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (wt wireTransaction) toRecord(subjectID string) (core.TransactionRecord, error) {
	occurredAt, err := parseWireTime(wt.Date)
	if err != nil {
		return core.TransactionRecord{}, fmt.Errorf("parse date %q: %w", wt.Date, err)
	}

	// The source stamps updatedAt only after the first edit.
	modifiedRaw := wt.UpdatedAt
	if modifiedRaw == "" {
		modifiedRaw = wt.CreatedAt
	}
	lastModified, err := parseWireTime(modifiedRaw)
	if err != nil {
		return core.TransactionRecord{}, fmt.Errorf("parse lastModified %q: %w", modifiedRaw, err)
	}

	return core.TransactionRecord{
		OriginalID:     wt.ID,
		SubjectID:      subjectID,
		Description:    wt.Description,
		Amount:         core.Money{Cents: core.CentsFromFloat(wt.Amount)},
		Kind:           core.Kind(wt.Type),
		Category:       wt.Category,
		OccurredAt:     occurredAt,
		Status:         core.Status(wt.Status),
		LastModifiedAt: lastModified,
	}, nil
}

func parseWireTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	// Unix seconds as a last resort.
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized time format")
}
