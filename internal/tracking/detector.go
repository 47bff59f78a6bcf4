package tracking

// FailurePolicy decides what Detect reports when the previous state cannot be loaded.
type FailurePolicy int

const (
	// FailOpen reports a new scan when the snapshot cannot be loaded.
	FailOpen FailurePolicy = iota
	// FailClosed reports no new scan when the snapshot cannot be loaded.
	FailClosed
)

// String returns the policy name
func (p FailurePolicy) String() string {
	switch p {
	case FailOpen:
		return "fail-open"
	case FailClosed:
		return "fail-closed"
	default:
		return "unknown"
	}
}

// DetectionReason explains how a Detection was reached.
type DetectionReason string

const (
	// ReasonNoBaseline means no snapshot existed, so every current event is new
	ReasonNoBaseline DetectionReason = "no-baseline"
	// ReasonCompared means the current events were compared against the snapshot
	ReasonCompared DetectionReason = "compared"
	// ReasonLoadFailed means the snapshot could not be loaded and the policy decided
	ReasonLoadFailed DetectionReason = "load-failed"
)

// Detection is the outcome of comparing a record against the stored snapshot.
type Detection struct {
	// NewScan is true when at least one current event is not in the snapshot
	NewScan bool
	// NewEvents are the current events missing from the snapshot, in page order.
	// Empty when the snapshot could not be loaded.
	NewEvents []ScanEvent
	// Reason explains how NewScan was decided
	Reason DetectionReason
	// Err is the snapshot load error when Reason is ReasonLoadFailed
	Err error
}

// Detector compares fresh records against the stored snapshot.
type Detector struct {
	store  *Store
	policy FailurePolicy
}

// DetectorOption is a functional option for configuring Detector
type DetectorOption func(*Detector)

// WithFailurePolicy sets the policy applied when the snapshot cannot be loaded
func WithFailurePolicy(policy FailurePolicy) DetectorOption {
	return func(d *Detector) {
		d.policy = policy
	}
}

// NewDetector creates a detector reading previous state from store.
// The default policy is FailOpen.
func NewDetector(store *Store, opts ...DetectorOption) *Detector {
	d := &Detector{
		store:  store,
		policy: FailOpen,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Policy returns the failure policy in effect.
func (d *Detector) Policy() FailurePolicy {
	return d.policy
}

// Detect reports whether current holds an event absent from the snapshot.
// Previous events are treated as an unordered set; order and duplicates do
// not matter.
func (d *Detector) Detect(current ShipmentRecord) Detection {
	previous, err := d.store.Load()
	if err != nil {
		return Detection{
			NewScan: d.policy == FailOpen,
			Reason:  ReasonLoadFailed,
			Err:     err,
		}
	}

	reason := ReasonCompared
	if previous == nil {
		reason = ReasonNoBaseline
		previous = &ShipmentRecord{}
	}

	newEvents := Diff(*previous, current)
	return Detection{
		NewScan:   len(newEvents) > 0,
		NewEvents: newEvents,
		Reason:    reason,
	}
}

// Diff returns the events of current that have no equal in previous, in the
// order they appear in current.
func Diff(previous, current ShipmentRecord) []ScanEvent {
	seen := make(map[ScanEvent]struct{}, len(previous.Events))
	for _, e := range previous.Events {
		seen[e] = struct{}{}
	}

	var added []ScanEvent
	for _, e := range current.Events {
		if _, ok := seen[e]; !ok {
			added = append(added, e)
		}
	}
	return added
}
