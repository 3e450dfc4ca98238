// Package domain defines the core value types and collaborator interfaces
// shared across the arbitrage engine: instruments, quotes, trade proposals,
// order transport records, and the optional journal/bus boundaries. All cross
// -component communication happens through these immutable values.
package domain

// Venue identifies one of the two trading venues an instrument is listed on.
type Venue string

const (
	// VenueKRX is the primary exchange listing.
	VenueKRX Venue = "KRX"
	// VenueNXT is the secondary (alternative) venue listing.
	VenueNXT Venue = "NXT"
)

// Other returns the opposite venue.
func (v Venue) Other() Venue {
	if v == VenueKRX {
		return VenueNXT
	}
	return VenueKRX
}

// Instrument is a dual-listed equity identified by its venue-native codes.
// Instruments are created in bulk at startup by the registry and never
// mutated; two instruments are distinct if either code differs.
type Instrument struct {
	KRXCode string
	NXTCode string
	Name    string
}

// Code returns the venue-native code for the given venue.
func (i Instrument) Code(v Venue) string {
	if v == VenueKRX {
		return i.KRXCode
	}
	return i.NXTCode
}
