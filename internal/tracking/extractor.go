package tracking

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// ExtractionReport says which parts of the profile matched the page.
// A page that no longer matches its profile looks exactly like a page with no
// scans, so callers use the report to tell the two apart.
type ExtractionReport struct {
	// WaybillFound is true when the waybill query matched at least one element
	WaybillFound bool
	// EventTableFound is true when the events query matched at least one row
	EventTableFound bool
	// Rows is the number of scan rows extracted
	Rows int
}

// Complete reports whether both the waybill and the scan rows were found.
func (r ExtractionReport) Complete() bool {
	return r.WaybillFound && r.EventTableFound
}

// Extractor turns tracking page markup into a ShipmentRecord.
// Extraction never fails: anything the profile does not find is left empty.
type Extractor struct {
	profile *Profile
}

// NewExtractor creates an extractor for the given profile.
// The profile is validated here so that extraction itself cannot fail.
func NewExtractor(profile *Profile) (*Extractor, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	return &Extractor{profile: profile}, nil
}

// Profile returns the profile the extractor was built with.
func (e *Extractor) Profile() *Profile {
	return e.profile
}

// Extract returns the shipment record found in content.
func (e *Extractor) Extract(content []byte) ShipmentRecord {
	record, _ := e.ExtractWithReport(content)
	return record
}

// ExtractWithReport returns the shipment record found in content together
// with a report of which queries matched.
func (e *Extractor) ExtractWithReport(content []byte) (ShipmentRecord, ExtractionReport) {
	record := ShipmentRecord{Events: []ScanEvent{}}
	var report ExtractionReport

	p := e.profile
	var doc *goquery.Document
	var root *html.Node

	if p.WaybillSelector != "" || p.usesCSS() {
		d, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
		if err == nil {
			doc = d
		}
	}
	if (p.WaybillSelector == "" && p.WaybillXPath != "") || !p.usesCSS() {
		n, err := htmlquery.Parse(bytes.NewReader(content))
		if err == nil {
			root = n
		}
	}

	switch {
	case p.WaybillSelector != "" && doc != nil:
		sel := doc.Find(p.WaybillSelector)
		report.WaybillFound = sel.Length() > 0
		record.WaybillID = strings.TrimSpace(sel.Text())
	case p.WaybillSelector == "" && root != nil:
		nodes, err := htmlquery.QueryAll(root, p.WaybillXPath)
		if err == nil && len(nodes) > 0 {
			report.WaybillFound = true
			record.WaybillID = strings.TrimSpace(innerText(nodes))
		}
	}

	switch {
	case p.usesCSS() && doc != nil:
		rows := doc.Find(p.EventsSelector)
		report.EventTableFound = rows.Length() > 0
		rows.Each(func(_ int, row *goquery.Selection) {
			record.Events = append(record.Events, ScanEvent{
				Location: strings.TrimSpace(row.Find(p.LocationSelector).Text()),
				Details:  strings.TrimSpace(row.Find(p.DetailsSelector).Text()),
			})
		})
	case !p.usesCSS() && root != nil:
		rows, err := htmlquery.QueryAll(root, p.EventsXPath)
		if err == nil {
			report.EventTableFound = len(rows) > 0
			for _, row := range rows {
				record.Events = append(record.Events, ScanEvent{
					Location: strings.TrimSpace(cellText(row, p.LocationXPath)),
					Details:  strings.TrimSpace(cellText(row, p.DetailsXPath)),
				})
			}
		}
	}

	report.Rows = len(record.Events)
	return record, report
}

// innerText concatenates the text of all nodes, like Selection.Text does.
func innerText(nodes []*html.Node) string {
	var b strings.Builder
	for _, n := range nodes {
		b.WriteString(htmlquery.InnerText(n))
	}
	return b.String()
}

// cellText returns the text of the nodes matching expr relative to row.
func cellText(row *html.Node, expr string) string {
	nodes, err := htmlquery.QueryAll(row, expr)
	if err != nil {
		return ""
	}
	return innerText(nodes)
}
