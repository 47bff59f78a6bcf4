package tracking

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func storeWith(t *testing.T, record *ShipmentRecord) *Store {
	t.Helper()
	store := NewStore(filepath.Join(t.TempDir(), "temp.json"))
	if record != nil {
		if err := store.Save(*record); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}
	return store
}

func corruptStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "temp.json")
	if err := os.WriteFile(path, []byte("not json"), 0644); err != nil {
		t.Fatalf("failed to write snapshot: %v", err)
	}
	return NewStore(path)
}

// =============================================================================
// Property-Based Tests
// =============================================================================

// TestNoChangeIdempotence checks a subset of the stored events never reports a new scan
func TestNoChangeIdempotence(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("current events drawn from the snapshot are not new", prop.ForAll(
		func(events []ScanEvent, mask uint32, reverse bool) bool {
			stored := ShipmentRecord{WaybillID: testWaybill, Events: events}

			var current []ScanEvent
			for i, e := range events {
				if mask&(1<<(uint(i)%32)) != 0 {
					current = append(current, e)
				}
			}
			if reverse {
				for i, j := 0, len(current)-1; i < j; i, j = i+1, j-1 {
					current[i], current[j] = current[j], current[i]
				}
			}

			detection := NewDetector(storeWith(t, &stored)).Detect(ShipmentRecord{WaybillID: testWaybill, Events: current})
			return !detection.NewScan && len(detection.NewEvents) == 0 && detection.Reason == ReasonCompared
		},
		gen.SliceOf(genScanEvent()),
		gen.UInt32(),
		gen.Bool(),
	))

	properties.Property("an event absent from the snapshot is reported", prop.ForAll(
		func(events []ScanEvent, extra ScanEvent) bool {
			stored := ShipmentRecord{Events: events}
			if stored.Contains(extra) {
				return true
			}

			current := ShipmentRecord{Events: append([]ScanEvent{extra}, events...)}
			detection := NewDetector(storeWith(t, &stored)).Detect(current)
			return detection.NewScan && cmp.Equal(detection.NewEvents, []ScanEvent{extra})
		},
		gen.SliceOf(genScanEvent()),
		genScanEvent(),
	))

	properties.TestingRun(t)
}

// =============================================================================
// Unit Tests
// =============================================================================

func TestDetectFirstRun(t *testing.T) {
	current := ShipmentRecord{
		WaybillID: testWaybill,
		Events:    []ScanEvent{{"B", "b"}, {"A", "a"}},
	}

	detection := NewDetector(storeWith(t, nil)).Detect(current)

	if !detection.NewScan {
		t.Error("first run should report a new scan")
	}
	if detection.Reason != ReasonNoBaseline {
		t.Errorf("Reason = %s, want %s", detection.Reason, ReasonNoBaseline)
	}
	if diff := cmp.Diff(current.Events, detection.NewEvents); diff != "" {
		t.Errorf("every event should be new (-want +got):\n%s", diff)
	}
}

func TestDetectFirstRunWithoutEvents(t *testing.T) {
	detection := NewDetector(storeWith(t, nil)).Detect(ShipmentRecord{Events: []ScanEvent{}})

	if detection.NewScan {
		t.Error("an empty page with no snapshot has nothing new")
	}
}

func TestDetectNewEventBeforeKnownOne(t *testing.T) {
	stored := ShipmentRecord{WaybillID: testWaybill, Events: []ScanEvent{{"A", "a"}}}
	current := ShipmentRecord{WaybillID: testWaybill, Events: []ScanEvent{{"B", "b"}, {"A", "a"}}}

	detection := NewDetector(storeWith(t, &stored)).Detect(current)

	if !detection.NewScan {
		t.Fatal("expected a new scan")
	}
	if diff := cmp.Diff([]ScanEvent{{"B", "b"}}, detection.NewEvents); diff != "" {
		t.Errorf("NewEvents mismatch (-want +got):\n%s", diff)
	}
}

func TestDetectComparesBothFields(t *testing.T) {
	stored := ShipmentRecord{Events: []ScanEvent{{"MUMBAI", "Shipment Picked Up"}}}

	tests := []struct {
		name  string
		event ScanEvent
		want  bool
	}{
		{"identical", ScanEvent{"MUMBAI", "Shipment Picked Up"}, false},
		{"different details", ScanEvent{"MUMBAI", "Shipment Arrived"}, true},
		{"different location", ScanEvent{"PUNE", "Shipment Picked Up"}, true},
		{"different case", ScanEvent{"Mumbai", "Shipment Picked Up"}, true},
		{"extra whitespace", ScanEvent{"MUMBAI ", "Shipment Picked Up"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			detection := NewDetector(storeWith(t, &stored)).Detect(ShipmentRecord{Events: []ScanEvent{tt.event}})
			if detection.NewScan != tt.want {
				t.Errorf("NewScan = %t, want %t", detection.NewScan, tt.want)
			}
		})
	}
}

func TestDetectCorruptSnapshotFailsOpen(t *testing.T) {
	current := ShipmentRecord{Events: []ScanEvent{{"A", "a"}}}

	detection := NewDetector(corruptStore(t)).Detect(current)

	if !detection.NewScan {
		t.Error("corrupt snapshot should be treated as a new scan")
	}
	if detection.Reason != ReasonLoadFailed {
		t.Errorf("Reason = %s, want %s", detection.Reason, ReasonLoadFailed)
	}
	if !errors.Is(detection.Err, ErrSnapshotCorrupted) {
		t.Errorf("Err = %v, want ErrSnapshotCorrupted", detection.Err)
	}
}

func TestDetectCorruptSnapshotFailsOpenWithoutEvents(t *testing.T) {
	detection := NewDetector(corruptStore(t)).Detect(ShipmentRecord{Events: []ScanEvent{}})

	if !detection.NewScan {
		t.Error("fail-open applies regardless of the current record")
	}
}

func TestDetectFailClosed(t *testing.T) {
	detector := NewDetector(corruptStore(t), WithFailurePolicy(FailClosed))

	detection := detector.Detect(ShipmentRecord{Events: []ScanEvent{{"A", "a"}}})

	if detection.NewScan {
		t.Error("fail-closed should suppress the alert")
	}
	if detection.Err == nil {
		t.Error("the load error should still be reported")
	}
	if detector.Policy().String() != "fail-closed" {
		t.Errorf("unexpected policy name %q", detector.Policy())
	}
}

func TestDiffKeepsPageOrder(t *testing.T) {
	previous := ShipmentRecord{Events: []ScanEvent{{"C", "c"}}}
	current := ShipmentRecord{Events: []ScanEvent{{"A", "a"}, {"C", "c"}, {"B", "b"}, {"A", "a"}}}

	want := []ScanEvent{{"A", "a"}, {"B", "b"}, {"A", "a"}}
	if diff := cmp.Diff(want, Diff(previous, current)); diff != "" {
		t.Errorf("Diff mismatch (-want +got):\n%s", diff)
	}
}

func TestScanEventEqual(t *testing.T) {
	a := ScanEvent{Location: "A", Details: "a"}
	if !a.Equal(ScanEvent{Location: "A", Details: "a"}) {
		t.Error("identical events should be equal")
	}
	if a.Equal(ScanEvent{Location: "a", Details: "a"}) {
		t.Error("comparison is case-sensitive")
	}
}
