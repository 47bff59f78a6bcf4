package tracking

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/andybalholm/cascadia"
	"github.com/antchfx/xpath"
)

// Error variables for page profile errors
var (
	// ErrProfileNotFound is returned when the profile file does not exist
	ErrProfileNotFound = errors.New("page profile not found")
	// ErrProfileIncomplete is returned when the waybill or events query is missing
	ErrProfileIncomplete = errors.New("page profile needs a selector or xpath for both waybill and events")
	// ErrUnknownProfileKey is returned when the profile file has keys this version does not understand
	ErrUnknownProfileKey = errors.New("unknown key in page profile")
	// ErrInvalidSelector is returned when a CSS selector does not compile
	ErrInvalidSelector = errors.New("invalid CSS selector")
	// ErrInvalidXPath is returned when an XPath expression does not compile
	ErrInvalidXPath = errors.New("invalid XPath expression")
)

// WaybillPlaceholder is replaced by the configured waybill in every profile query.
const WaybillPlaceholder = "{waybill}"

// Cell queries used when a profile leaves them out
const (
	defaultLocationSelector = "td:nth-child(1)"
	defaultDetailsSelector  = "td:nth-child(2)"
	defaultLocationXPath    = "./td[1]"
	defaultDetailsXPath     = "./td[2]"
)

// Profile describes where a carrier's tracking page keeps the waybill and the
// scan rows. Each query may be given as a CSS selector or as an XPath
// expression; the selector wins when both are present.
type Profile struct {
	// Name identifies the profile in logs
	Name string `toml:"name"`

	// WaybillSelector matches the element(s) whose text is the waybill id
	WaybillSelector string `toml:"waybill_selector,omitempty"`
	// EventsSelector matches one element per scan row
	EventsSelector string `toml:"events_selector,omitempty"`
	// LocationSelector is evaluated inside each scan row
	LocationSelector string `toml:"location_selector,omitempty"`
	// DetailsSelector is evaluated inside each scan row
	DetailsSelector string `toml:"details_selector,omitempty"`

	WaybillXPath  string `toml:"waybill_xpath,omitempty"`
	EventsXPath   string `toml:"events_xpath,omitempty"`
	LocationXPath string `toml:"location_xpath,omitempty"`
	DetailsXPath  string `toml:"details_xpath,omitempty"`
}

// DefaultProfile returns the layout of the Blue Dart tracking result page:
// a #SHIP<waybill> table whose first body row holds the waybill, and a
// #SCAN<waybill> table with one row per scan (location, then details).
func DefaultProfile(waybill string) *Profile {
	p := &Profile{
		Name:             "bluedart",
		WaybillSelector:  "#SHIP" + WaybillPlaceholder + " tbody tr:nth-child(1) td",
		EventsSelector:   "#SCAN" + WaybillPlaceholder + " tbody tr",
		LocationSelector: defaultLocationSelector,
		DetailsSelector:  defaultDetailsSelector,
	}
	return p.Expand(waybill)
}

// LoadProfile reads a page profile from a TOML file.
// Cell queries left out of the file get the defaults for their query style.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, path)
		}
		return nil, fmt.Errorf("failed to read page profile: %w", err)
	}

	var p Profile
	md, err := toml.Decode(string(data), &p)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page profile %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProfileKey, undecoded[0].String())
	}

	p.fillDefaults()
	return &p, nil
}

// fillDefaults sets the cell queries matching the row query style.
func (p *Profile) fillDefaults() {
	if p.EventsSelector != "" {
		if p.LocationSelector == "" {
			p.LocationSelector = defaultLocationSelector
		}
		if p.DetailsSelector == "" {
			p.DetailsSelector = defaultDetailsSelector
		}
		return
	}
	if p.EventsXPath != "" {
		if p.LocationXPath == "" {
			p.LocationXPath = defaultLocationXPath
		}
		if p.DetailsXPath == "" {
			p.DetailsXPath = defaultDetailsXPath
		}
	}
}

// Expand returns a copy of the profile with the waybill placeholder replaced.
func (p *Profile) Expand(waybill string) *Profile {
	expanded := *p
	for _, field := range []*string{
		&expanded.WaybillSelector, &expanded.EventsSelector,
		&expanded.LocationSelector, &expanded.DetailsSelector,
		&expanded.WaybillXPath, &expanded.EventsXPath,
		&expanded.LocationXPath, &expanded.DetailsXPath,
	} {
		*field = strings.ReplaceAll(*field, WaybillPlaceholder, waybill)
	}
	return &expanded
}

// Validate checks that both queries are present and that every given
// selector and expression compiles.
func (p *Profile) Validate() error {
	if p.WaybillSelector == "" && p.WaybillXPath == "" {
		return ErrProfileIncomplete
	}
	if p.EventsSelector == "" && p.EventsXPath == "" {
		return ErrProfileIncomplete
	}

	for _, sel := range []string{p.WaybillSelector, p.EventsSelector, p.LocationSelector, p.DetailsSelector} {
		if sel == "" {
			continue
		}
		if _, err := cascadia.Compile(sel); err != nil {
			return fmt.Errorf("%w %q: %v", ErrInvalidSelector, sel, err)
		}
	}

	for _, expr := range []string{p.WaybillXPath, p.EventsXPath, p.LocationXPath, p.DetailsXPath} {
		if expr == "" {
			continue
		}
		if _, err := xpath.Compile(expr); err != nil {
			return fmt.Errorf("%w %q: %v", ErrInvalidXPath, expr, err)
		}
	}

	return nil
}

// usesCSS reports whether rows are found with CSS selectors.
func (p *Profile) usesCSS() bool {
	return p.EventsSelector != ""
}
