// Package memory is an in-memory source-of-record used in tests and as a
// development backend when no real source is configured.
package memory

import (
	"context"
	"sync"

	"bilancio/internal/core"
	"bilancio/internal/source"
)

type Client struct {
	mu       sync.Mutex
	records  map[string][]core.TransactionRecord
	profiles map[string]core.Profile

	// failure injection for tests
	txErr      error
	profileErr error
}

var _ source.Client = (*Client)(nil)

func NewClient() *Client {
	return &Client{
		records:  make(map[string][]core.TransactionRecord),
		profiles: make(map[string]core.Profile),
	}
}

// Add appends records to a subject's feed.
func (c *Client) Add(subjectID string, recs ...core.TransactionRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records[subjectID] = append(c.records[subjectID], recs...)
}

// SetProfile sets the profile returned for a subject.
func (c *Client) SetProfile(p core.Profile) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.profiles[p.SubjectID] = p
}

// FailTransactionsWith makes FetchTransactions return err until reset with nil.
func (c *Client) FailTransactionsWith(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.txErr = err
}

// FailProfileWith makes FetchProfile return err until reset with nil.
func (c *Client) FailProfileWith(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.profileErr = err
}

func (c *Client) FetchTransactions(_ context.Context, subjectID, _ string) ([]core.TransactionRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.txErr != nil {
		return nil, c.txErr
	}
	recs := make([]core.TransactionRecord, len(c.records[subjectID]))
	copy(recs, c.records[subjectID])
	return recs, nil
}

func (c *Client) FetchProfile(_ context.Context, subjectID, _ string) (core.Profile, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.profileErr != nil {
		return core.Profile{}, c.profileErr
	}
	p, ok := c.profiles[subjectID]
	if !ok {
		return core.Profile{}, source.ErrUnavailable
	}
	return p, nil
}
