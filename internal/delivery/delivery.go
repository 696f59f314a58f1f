// Package delivery classifies where an order can go: home delivery inside
// the covered postcode, street-by-street coverage in the border postcode,
// or pickup everywhere else. Pure functions over static allow-lists.
package delivery

import (
	"strings"
	"unicode"

	"github.com/chaschni/orderbot/internal/enum"
)

const (
	// DeliveryPostcode is fully covered.
	DeliveryPostcode = "30163"
	// StreetCheckPostcode is covered only on the listed streets.
	StreetCheckPostcode = "30165"

	PickupAddressFull  = "Tannenbergallee 6, 30163 Hannover"
	PickupAddressShort = "Tannenbergallee (Hannover)"
)

// coveredStreets30165 is the delivery allow-list for the border postcode.
var coveredStreets30165 = []string{
	"Melanchthonstrasse", "Moorkamp", "Gutsmuthsstrasse", "Auf dem Hollen", "Jahnplatz",
	"Dragonerstrasse", "Halkettstrasse", "Omptedastrasse", "Almannstrasse",
	"Apenraderstrasse", "Flensburgerstrasse", "Schleswigerstrasse",
	"Tondernerstrasse", "Sonderburgerstrasse", "Rotermondstrasse",
}

// ClassifyPostcode routes a normalized postcode to a delivery method.
// StreetCheckPostcode answers check_street: the caller must follow up with
// MatchStreet before the method is final.
func ClassifyPostcode(postcode string) string {
	switch postcode {
	case DeliveryPostcode:
		return enum.DeliveryMethodDelivery
	case StreetCheckPostcode:
		return enum.DeliveryMethodCheckStreet
	}
	return enum.DeliveryMethodPickup
}

// MatchStreet reports whether the free-text street name is on the
// 30165 allow-list. Comparison folds case, the German ß, and whitespace.
func MatchStreet(street string) bool {
	want := normalizeStreet(street)
	for _, s := range coveredStreets30165 {
		if want == normalizeStreet(s) {
			return true
		}
	}
	return false
}

func normalizeStreet(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "ß", "ss")
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
