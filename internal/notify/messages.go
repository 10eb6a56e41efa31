package notify

import (
	"encoding/json"
	"time"

	"github.com/dvloznov/expense-dashboard/internal/aggregate"
	"github.com/dvloznov/expense-dashboard/internal/domain"
)

// ViewSummary is the per-view part of a ReportUpdatedMessage.
type ViewSummary struct {
	Name  string `json:"name"`
	Rows  int    `json:"rows"`
	Total string `json:"total"`
}

// ReportUpdatedMessage announces a run that published new output.
type ReportUpdatedMessage struct {
	RunID               string        `json:"run_id"`
	Fingerprint         string        `json:"fingerprint"`
	PreviousFingerprint string        `json:"previous_fingerprint,omitempty"`
	RecordCount         int           `json:"record_count"`
	GeneratedAt         time.Time     `json:"generated_at"`
	Views               []ViewSummary `json:"views"`
	Timestamp           time.Time     `json:"timestamp"`
}

// NewReportUpdatedMessage summarizes run and its views.
func NewReportUpdatedMessage(run domain.Run, views []aggregate.View) *ReportUpdatedMessage {
	msg := &ReportUpdatedMessage{
		RunID:               run.ID,
		Fingerprint:         run.Fingerprint,
		PreviousFingerprint: run.PreviousFingerprint,
		RecordCount:         run.RecordCount,
		GeneratedAt:         run.GeneratedAt,
		Views:               make([]ViewSummary, 0, len(views)),
		Timestamp:           time.Now(),
	}
	for _, v := range views {
		msg.Views = append(msg.Views, ViewSummary{
			Name:  v.Name,
			Rows:  len(v.Rows),
			Total: v.Total().StringFixed(2),
		})
	}
	return msg
}

// ToJSON converts the message to JSON bytes
func (m *ReportUpdatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ReportUpdatedMessageFromJSON decodes a message.
func ReportUpdatedMessageFromJSON(data []byte) (*ReportUpdatedMessage, error) {
	var msg ReportUpdatedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
