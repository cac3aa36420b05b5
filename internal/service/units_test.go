package service_test

import (
	"testing"

	"github.com/chasemp/mealplanner/internal/service"
)

func TestNormalizeUnit(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"lbs":         "lb",
		" Pounds ":    "lb",
		"Tablespoons": "tbsp",
		"cups":        "cup",
		"g":           "g",
		"ea":          "each",
		"Handful":     "handful",
	}
	for in, want := range cases {
		if got := service.NormalizeUnit(in); got != want {
			t.Fatalf("NormalizeUnit(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestKindOfUnit(t *testing.T) {
	t.Parallel()
	if service.KindOfUnit("oz") != service.UnitKindMass {
		t.Fatalf("expected oz to be mass")
	}
	if service.KindOfUnit("cup") != service.UnitKindVolume {
		t.Fatalf("expected cup to be volume")
	}
	if service.KindOfUnit("clove") != service.UnitKindCount {
		t.Fatalf("expected clove to be count")
	}
	if service.KindOfUnit("handful") != service.UnitKindUnknown {
		t.Fatalf("expected handful to be unknown")
	}
}
