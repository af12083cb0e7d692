package connector

import "time"

// CheckKind is whether a scan represents an arrival or a departure.
type CheckKind int

const (
	CheckIn CheckKind = iota
	CheckOut
)

func (k CheckKind) String() string {
	if k == CheckIn {
		return "check-in"
	}
	return "check-out"
}

// Event is a single decoded scan from a terminal. Events are translated
// into attendance records and discarded; they are never persisted as-is.
type Event struct {
	DeviceUserID int
	Time         time.Time
	Kind         CheckKind
	DeviceSerial string
}
