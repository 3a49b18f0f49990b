package attendance

// Status is a student's last-known attendance state.
type Status string

const (
	// StatusNone means no log rows exist yet for the student.
	StatusNone  Status = "None"
	StatusEntry Status = "Entry"
	StatusExit  Status = "Exit"
)

// Next computes the status of the next scan from the previous one.
// The first scan of a student's lifetime is always an Entry; after that
// statuses strictly alternate. The alternation is global across the
// student's whole history, not scoped to a calendar day.
func (s Status) Next() Status {
	if s == StatusEntry {
		return StatusExit
	}
	return StatusEntry
}

// Valid reports whether s is a storable status. StatusNone is derived
// only and is never written to a log row.
func (s Status) Valid() bool {
	return s == StatusEntry || s == StatusExit
}

// ParseStatus maps a wire value to a storable status.
func ParseStatus(v string) (Status, bool) {
	switch Status(v) {
	case StatusEntry:
		return StatusEntry, true
	case StatusExit:
		return StatusExit, true
	}
	return "", false
}
