package observability

// Metric name prefixes
const (
	MetricPrefix = "fairbook"
)

// Metric names
const (
	// Betting metrics
	BetsPlacedTotal   = MetricPrefix + ".betting.placed_total"
	BetsBlockedTotal  = MetricPrefix + ".betting.blocked_total"
	PoolsActive       = MetricPrefix + ".pools.active"
	PoolsSettledTotal = MetricPrefix + ".pools.settled_total"

	// Alert metrics
	AlertsRaisedTotal = MetricPrefix + ".alerts.raised_total"

	// Reward metrics
	RewardsDistributedTotal = MetricPrefix + ".rewards.distributed_total"
	TransfersTotal          = MetricPrefix + ".transfers.total"

	// Store metrics
	StoreOperationsTotal   = MetricPrefix + ".store.operations_total"
	StoreOperationDuration = MetricPrefix + ".store.operation_duration"
)

// Label keys
const (
	LabelType      = "type"
	LabelOutcome   = "outcome"
	LabelSeverity  = "severity"
	LabelAlertType = "alert_type"
	LabelBackend   = "backend"
	LabelMethod    = "method"
)

// Transfer outcomes
const (
	TransferOutcomeConfirmed = "confirmed"
	TransferOutcomeFailed    = "failed"
)
