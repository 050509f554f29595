package booking

// Booking is a cleaning quote as seen by the reminder service. It is read-only here;
// the booking application owns the record.
type Booking struct {
	ID                string
	ServiceDate       string // YYYY-MM-DD of the first (base) occurrence
	PreferredTime     string // free text, e.g. "2:30 pm" or "14:30"; may be empty
	CleaningFrequency string // raw value from storage, see ParseFrequency
	AssignedCleaners  RecipientSet
	ServiceType       string
	Address           string
}

// Frequency returns the normalized recurrence rule of the booking.
func (b *Booking) Frequency() Frequency {
	return ParseFrequency(b.CleaningFrequency)
}
