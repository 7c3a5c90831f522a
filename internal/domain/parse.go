package domain

import (
	"strconv"
	"strings"
	"time"
)

// timestampLayouts are tried in order against the composite "<date> <hour>"
// string. The strict INMET layout comes first; the rest cover exports that
// were re-saved with ISO dates or colon hours.
var timestampLayouts = []string{
	"2006/01/02 1504",
	"2006-01-02 1504",
	"2006/01/02 15:04",
	"2006-01-02 15:04",
}

// ParseTimestamp builds an observation instant from the export's date field
// and hour code. The clock part is the hour code's leading HHMM digits
// ("0300 UTC" → 03:00). Returns nil when the pair cannot be parsed under
// any known layout; bad rows keep a null timestamp instead of aborting the
// run. All instants are UTC.
func ParseTimestamp(date, hourCode string) *time.Time {
	d := strings.TrimSpace(date)
	h := hourPrefix(strings.TrimSpace(hourCode))
	if d == "" || h == "" {
		return nil
	}
	composite := d + " " + h
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, composite); err == nil {
			ts = ts.UTC()
			return &ts
		}
	}
	return nil
}

// hourPrefix extracts the clock part of an hour code: "0300 UTC" → "0300",
// "03:00" → "03:00".
func hourPrefix(h string) string {
	if len(h) >= 5 && h[2] == ':' {
		return h[:5]
	}
	if len(h) > 4 {
		return h[:4]
	}
	return h
}

// ParseNumber converts a localized numeric field to a float. Decimal commas
// become points and embedded spaces (thousands padding) are dropped, so
// "1 013,2" parses to 1013.2. Empty or unparseable fields yield nil, never
// zero: zero is a real reading and must stay distinct from "not reported".
func ParseNumber(raw string) *float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, ",", ".")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}
