package amqp

import (
	"encoding/json"
	"time"
)

// ReportRequest asks the worker to build a report for one user. It carries
// only identifiers; the worker reads the actual transaction data from the
// database when it processes the request.
type ReportRequest struct {
	ReportID    string    `json:"report_id"`
	UserID      int64     `json:"user_id"`
	RequestedAt time.Time `json:"requested_at"`
}

// NewReportRequest builds a request for the given report and user.
func NewReportRequest(reportID string, userID int64) *ReportRequest {
	return &ReportRequest{
		ReportID:    reportID,
		UserID:      userID,
		RequestedAt: time.Now(),
	}
}

// ToJSON converts the request to JSON bytes.
func (m *ReportRequest) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ReportRequestFromJSON parses a request from JSON bytes.
func ReportRequestFromJSON(data []byte) (*ReportRequest, error) {
	var msg ReportRequest
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
