package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// AlertSeverity grades how serious a suspicious-activity alert is
type AlertSeverity string

const (
	AlertSeverityLow      AlertSeverity = "low"
	AlertSeverityMedium   AlertSeverity = "medium"
	AlertSeverityHigh     AlertSeverity = "high"
	AlertSeverityCritical AlertSeverity = "critical"
)

// Weight returns the severity's contribution to the aggregate risk score
func (s AlertSeverity) Weight() float64 {
	switch s {
	case AlertSeverityLow:
		return 0.25
	case AlertSeverityMedium:
		return 0.5
	case AlertSeverityHigh:
		return 0.75
	case AlertSeverityCritical:
		return 1.0
	default:
		return 0
	}
}

// AlertType identifies the detector that raised an alert
type AlertType string

const (
	AlertTypeRapidBetting       AlertType = "rapid_betting"
	AlertTypeCoordinatedBetting AlertType = "coordinated_betting"
	AlertTypeWashTrading        AlertType = "wash_trading"
	AlertTypeInsiderTrading     AlertType = "insider_trading"
	AlertTypeAccountFarming     AlertType = "account_farming"
	AlertTypeBotActivity        AlertType = "bot_activity"
)

// AlertAction is the automatic action taken when an alert is accepted
type AlertAction string

const (
	AlertActionSuspend   AlertAction = "suspend"
	AlertActionRestrict  AlertAction = "flag_and_restrict"
	AlertActionRateLimit AlertAction = "rate_limit"
	AlertActionMonitor   AlertAction = "monitor"
)

// Alert records one suspicious-activity finding. Alerts are append-only and
// never mutated after creation.
type Alert struct {
	ID          string         `json:"id"`
	UserID      string         `json:"userId"`
	Type        AlertType      `json:"type"`
	Severity    AlertSeverity  `json:"severity"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Evidence    map[string]any `json:"evidence,omitempty"`
	Timestamp   time.Time      `json:"timestamp"`
	ActionTaken AlertAction    `json:"actionTaken"`
}

// CooldownKey identifies repeat alerts for suppression purposes
func (a *Alert) CooldownKey() string {
	return a.UserID + "|" + string(a.Type) + "|" + a.Title
}

// MonitoringRule configures one detector's sensitivity. Rules are read-only
// at evaluation time.
type MonitoringRule struct {
	ID         string        `json:"id"`
	Type       AlertType     `json:"type"`
	Threshold  float64       `json:"threshold"`
	TimeWindow time.Duration `json:"timeWindow"`
	Action     AlertAction   `json:"action"`
	Severity   AlertSeverity `json:"severity"`
	Enabled    bool          `json:"enabled"`
}

// BetRecord is the monitor's view of one accepted or attempted bet
type BetRecord struct {
	UserID    string          `json:"userId"`
	Wallet    string          `json:"wallet"`
	PoolID    string          `json:"poolId"`
	OutcomeID string          `json:"outcomeId"`
	Amount    decimal.Decimal `json:"amount"`
	Timestamp time.Time       `json:"timestamp"`
}

// MarketEvent is an odds- or outcome-affecting event the insider-trading
// detector correlates bet timing against.
type MarketEvent struct {
	PoolID    string    `json:"poolId"`
	Kind      string    `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
}

// EvaluationResult is the monitor's verdict for one bet request
type EvaluationResult struct {
	Allowed   bool
	Alerts    []*Alert
	RiskScore float64
}
