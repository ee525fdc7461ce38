package ledger

import "strings"

// Status is the closed set of ledger order statuses. The eligible
// statuses are re-evaluated on every reconciliation pass; settled
// statuses are terminal and never reverted.
type Status int

const (
	StatusUnknown Status = iota
	StatusUnset
	StatusPrepaid
	StatusPartiallyPaid
	StatusCancelled
	StatusDelivered
	StatusException
	StatusRTOInitiated
	StatusReturned
)

var statusNames = map[Status]string{
	StatusUnset:         "",
	StatusPrepaid:       "Prepaid",
	StatusPartiallyPaid: "Partially Paid",
	StatusCancelled:     "Cancelled",
	StatusDelivered:     "Delivered",
	StatusException:     "Exception",
	StatusRTOInitiated:  "RTO Initiated",
	StatusReturned:      "Returned",
}

// ParseStatus maps a raw cell value to a Status. Matching is trimmed
// and case-insensitive; unrecognized values become StatusUnknown,
// which is neither eligible nor settled.
func ParseStatus(raw string) Status {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return StatusUnset
	case "prepaid":
		return StatusPrepaid
	case "partially paid":
		return StatusPartiallyPaid
	case "cancelled":
		return StatusCancelled
	case "delivered":
		return StatusDelivered
	case "exception":
		return StatusException
	case "rto initiated":
		return StatusRTOInitiated
	case "returned":
		return StatusReturned
	default:
		return StatusUnknown
	}
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "Unknown"
}

// Eligible reports whether a row with this status is re-evaluated on a
// reconciliation pass.
func (s Status) Eligible() bool {
	switch s {
	case StatusUnset, StatusPrepaid, StatusPartiallyPaid, StatusCancelled:
		return true
	}
	return false
}

// Settled reports whether the status is terminal.
func (s Status) Settled() bool {
	switch s {
	case StatusDelivered, StatusException, StatusRTOInitiated, StatusReturned:
		return true
	}
	return false
}
