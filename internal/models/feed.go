package models

// Game feed update types pushed through the hub.
const (
	FeedEventStarted   = "event_started"
	FeedReportAccepted = "report_accepted"
	FeedCaseOpened     = "case_opened"
	FeedCaseClosed     = "case_closed"
)

// GameUpdate is the payload broadcast to live feed subscribers (websocket
// clients and other backend instances via Redis pub/sub).
type GameUpdate struct {
	Type     string `json:"type"`
	CaseCode string `json:"case_code,omitempty"`
	VictimID string `json:"victim_id,omitempty"`
	Place    string `json:"place,omitempty"`
	Text     string `json:"text,omitempty"`
}
