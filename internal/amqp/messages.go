package amqp

import (
	"encoding/json"
	"time"
)

// SyncRequestMessage asks the worker to reconcile one subject against the
// external source. The token is the subject's bearer credential for the
// source API.
type SyncRequestMessage struct {
	SubjectID string    `json:"subjectId"`
	AuthToken string    `json:"authToken"`
	Timestamp time.Time `json:"timestamp"`
}

// NewSyncRequestMessage creates a sync request for a subject.
func NewSyncRequestMessage(subjectID, authToken string) *SyncRequestMessage {
	return &SyncRequestMessage{
		SubjectID: subjectID,
		AuthToken: authToken,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *SyncRequestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// SyncRequestMessageFromJSON creates a message from JSON bytes.
func SyncRequestMessageFromJSON(data []byte) (*SyncRequestMessage, error) {
	var msg SyncRequestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// SyncCompletedMessage reports the outcome of one reconciliation batch.
// Consumers use it to refresh dashboards or audit sync health.
type SyncCompletedMessage struct {
	SubjectID string    `json:"subjectId"`
	Created   int       `json:"created"`
	Updated   int       `json:"updated"`
	Skipped   int       `json:"skipped"`
	Errors    int       `json:"errors"`
	Timestamp time.Time `json:"timestamp"`
}

// ToJSON converts the message to JSON bytes.
func (m *SyncCompletedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}
