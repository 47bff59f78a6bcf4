package tracking

// ShipmentRecord is the state of one shipment as shown on the tracking page.
type ShipmentRecord struct {
	// WaybillID is the carrier's identifier for the shipment
	WaybillID string `json:"waybillId"`
	// Events are in page order, newest first on the tracked site
	Events []ScanEvent `json:"events"`
}

// ScanEvent is one tracking checkpoint.
type ScanEvent struct {
	Location string `json:"location"`
	Details  string `json:"details"`
}

// Equal reports whether two events have the same location and details.
func (e ScanEvent) Equal(other ScanEvent) bool {
	return e.Location == other.Location && e.Details == other.Details
}

// Latest returns the head of the event list.
// ok is false when the record has no events.
func (r ShipmentRecord) Latest() (event ScanEvent, ok bool) {
	if len(r.Events) == 0 {
		return ScanEvent{}, false
	}
	return r.Events[0], true
}

// Contains reports whether an event equal to e is in the record.
func (r ShipmentRecord) Contains(e ScanEvent) bool {
	for _, existing := range r.Events {
		if existing.Equal(e) {
			return true
		}
	}
	return false
}

// normalize replaces a nil event list so it serializes as [] and never as null.
func (r *ShipmentRecord) normalize() {
	if r.Events == nil {
		r.Events = []ScanEvent{}
	}
}
