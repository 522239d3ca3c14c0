// Package catalog serves the appointment-type catalog: classification into
// the storefront's gender and body-area facets, a cached read path in front
// of the provider, and the public services endpoint.
package catalog

import (
	"strings"

	"github.com/glowupstudio/booking-platform/internal/acuity"
)

// Gender is the storefront's binary service category. There is no
// neutral bucket: a service is male iff its name carries a male marker,
// otherwise it is female.
type Gender string

const (
	GenderFemale Gender = "female"
	GenderMale   Gender = "male"
)

// BodyArea selects one of the body map regions. Areas are non-exclusive:
// a service whose name matches several keyword sets appears under each.
type BodyArea string

const (
	AreaFace BodyArea = "face"
	AreaMid  BodyArea = "mid"
	AreaLow  BodyArea = "low"
)

var maleMarkers = []string{"men's", "man's", "male", "gentleman"}

var areaKeywords = map[BodyArea][]string{
	AreaFace: {"nose", "lip", "chin", "brow", "eyebrow", "face", "sideburn", "ear", "facial"},
	AreaMid:  {"back", "chest", "stomach", "underarm", "arm"},
	AreaLow:  {"leg", "butt", "brazilian", "bikini"},
}

// ValidGender reports whether g is a known gender value.
func ValidGender(g Gender) bool {
	return g == GenderFemale || g == GenderMale
}

// ValidArea reports whether a is a known body area.
func ValidArea(a BodyArea) bool {
	_, ok := areaKeywords[a]
	return ok
}

// Classify partitions the catalog by gender, then filters by body area.
// The input is never mutated; the result is a fresh slice preserving
// catalog order.
func Classify(catalog []acuity.AppointmentType, gender Gender, area BodyArea) []acuity.AppointmentType {
	keywords, ok := areaKeywords[area]
	if !ok {
		return nil
	}

	out := make([]acuity.AppointmentType, 0, len(catalog))
	for _, svc := range catalog {
		name := strings.ToLower(svc.Name)
		male := isMaleService(name)
		if (gender == GenderMale) != male {
			continue
		}
		if containsAny(name, keywords) {
			out = append(out, svc)
		}
	}
	return out
}

// isMaleService matches male markers only at a word start, so "women's"
// and "female" never trip the "men's"/"male" substrings.
func isMaleService(name string) bool {
	for _, marker := range maleMarkers {
		if containsAtWordStart(name, marker) {
			return true
		}
	}
	return false
}

func containsAtWordStart(s, sub string) bool {
	for i := 0; i+len(sub) <= len(s); {
		j := strings.Index(s[i:], sub)
		if j < 0 {
			return false
		}
		p := i + j
		if p == 0 || !isLetter(s[p-1]) {
			return true
		}
		i = p + 1
	}
	return false
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
