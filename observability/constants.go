package observability

// Metric name prefixes
const (
	MetricPrefix = "monkeybet"
)

// Metric names
const (
	RoundsSettledTotal        = MetricPrefix + ".rounds.settled_total"
	LedgerTransactionsTotal   = MetricPrefix + ".ledger.transactions_total"
	WithdrawalTransitionTotal = MetricPrefix + ".withdrawals.transitions_total"
)

// Label keys
const (
	LabelGame    = "game"
	LabelOutcome = "outcome"
	LabelKind    = "kind"
	LabelStatus  = "status"
)

// Round outcomes
const (
	OutcomeWin  = "win"
	OutcomeLoss = "loss"
)
