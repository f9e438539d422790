package ledger

// Default configuration values
const (
	DefaultMaxCASAttempts = 5
)

// Operation names used for metrics and logs
const (
	opCredit    = "credit"
	opDebit     = "debit"
	opReserve   = "reserve"
	opMarker    = "marker"
	opRetry     = "retry"
	opReconcile = "reconcile"
	opBalance   = "balance"
)

type direction int

const (
	directionCredit direction = iota
	directionDebit
)

func (d direction) String() string {
	if d == directionDebit {
		return opDebit
	}
	return opCredit
}
