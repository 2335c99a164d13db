package model

// RiskLevel classifies a contract's position in its retention window.
type RiskLevel string

const (
	RiskSafe    RiskLevel = "safe"
	RiskWarning RiskLevel = "warning"
	RiskDanger  RiskLevel = "danger"
)

// RiskAssessment is a derived read model computed from wall-clock time on
// every call; nothing here is persisted.
type RiskAssessment struct {
	Level           RiskLevel `json:"level"`
	DaysElapsed     int       `json:"days_elapsed"`
	DaysRemaining   int       `json:"days_remaining"`
	ProgressPercent int       `json:"progress_percent"`
}
