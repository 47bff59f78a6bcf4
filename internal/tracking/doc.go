// Package tracking polls a carrier's shipment tracking page and reports
// scan events that were not present on the previous run.
//
// The package implements:
//   - Page profiles describing where the waybill and scan rows live (TOML)
//   - Tolerant extraction of a ShipmentRecord from the page markup
//   - A single-file JSON snapshot of the last observed record
//   - Change detection against that snapshot with a fail-open policy
//   - A Runner sequencing fetch, extract, detect, notify and persist
//
// Usage:
//
//	store := tracking.NewStore("temp.json")
//	runner := tracking.NewRunner(cfg, client, extractor, tracking.NewDetector(store), notifier, store)
//	result, err := runner.Run(ctx)
package tracking
