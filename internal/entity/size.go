package entity

import "strings"

// sizeLabels maps human-facing size labels to the canonical short codes
// stored on inventory rows.
var sizeLabels = map[string]string{
	"X-SMALL":    "XS",
	"SMALL":      "S",
	"MEDIUM":     "M",
	"LARGE":      "L",
	"X-LARGE":    "XL",
	"XX-LARGE":   "XXL",
	"XXX-LARGE":  "XXXL",
	"XXL":        "XXL",
	"XXXL":       "XXXL",
}

// CanonicalSize maps a free-text size label to its canonical code.
// Unknown labels pass through unchanged; the second return reports
// whether the label was recognized so callers can log data-quality
// signals.
func CanonicalSize(label string) (string, bool) {
	key := strings.ToUpper(strings.TrimSpace(label))
	if code, ok := sizeLabels[key]; ok {
		return code, true
	}
	// Already-canonical codes count as mapped.
	switch key {
	case "XS", "S", "M", "L", "XL":
		return key, true
	}
	return label, false
}
