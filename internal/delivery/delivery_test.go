package delivery

import (
	"testing"

	"github.com/chaschni/orderbot/internal/enum"
)

func TestClassifyPostcode(t *testing.T) {
	cases := []struct {
		postcode string
		want     string
	}{
		{"30163", enum.DeliveryMethodDelivery},
		{"30165", enum.DeliveryMethodCheckStreet},
		{"30159", enum.DeliveryMethodPickup},
		{"10115", enum.DeliveryMethodPickup},
		{"", enum.DeliveryMethodPickup},
	}
	for _, tc := range cases {
		if got := ClassifyPostcode(tc.postcode); got != tc.want {
			t.Errorf("ClassifyPostcode(%q) = %q, want %q", tc.postcode, got, tc.want)
		}
	}
}

func TestMatchStreet(t *testing.T) {
	cases := []struct {
		street string
		want   bool
	}{
		{"Moorkamp", true},
		{"moorkamp", true},
		{"MOOR KAMP", true},
		{"Gutsmuthsstraße", true}, // ß folds to ss
		{"auf dem hollen", true},
		{"Auf  dem\tHollen", true},
		{"Nonexistent", false},
		{"Moorkampweg", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := MatchStreet(tc.street); got != tc.want {
			t.Errorf("MatchStreet(%q) = %v, want %v", tc.street, got, tc.want)
		}
	}
}
