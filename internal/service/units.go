package service

import (
	"strings"
)

type UnitKind string

const (
	UnitKindMass    UnitKind = "mass"
	UnitKindVolume  UnitKind = "volume"
	UnitKindCount   UnitKind = "count"
	UnitKindUnknown UnitKind = ""
)

type unitDef struct {
	canonical string
	kind      UnitKind
}

var unitTable = map[string]unitDef{
	// mass
	"mg":     {canonical: "mg", kind: UnitKindMass},
	"g":      {canonical: "g", kind: UnitKindMass},
	"gram":   {canonical: "g", kind: UnitKindMass},
	"grams":  {canonical: "g", kind: UnitKindMass},
	"kg":     {canonical: "kg", kind: UnitKindMass},
	"oz":     {canonical: "oz", kind: UnitKindMass},
	"ounce":  {canonical: "oz", kind: UnitKindMass},
	"ounces": {canonical: "oz", kind: UnitKindMass},
	"lb":     {canonical: "lb", kind: UnitKindMass},
	"lbs":    {canonical: "lb", kind: UnitKindMass},
	"pound":  {canonical: "lb", kind: UnitKindMass},
	"pounds": {canonical: "lb", kind: UnitKindMass},

	// volume
	"ml":          {canonical: "ml", kind: UnitKindVolume},
	"l":           {canonical: "l", kind: UnitKindVolume},
	"liter":       {canonical: "l", kind: UnitKindVolume},
	"tsp":         {canonical: "tsp", kind: UnitKindVolume},
	"teaspoon":    {canonical: "tsp", kind: UnitKindVolume},
	"teaspoons":   {canonical: "tsp", kind: UnitKindVolume},
	"tbsp":        {canonical: "tbsp", kind: UnitKindVolume},
	"tablespoon":  {canonical: "tbsp", kind: UnitKindVolume},
	"tablespoons": {canonical: "tbsp", kind: UnitKindVolume},
	"cup":         {canonical: "cup", kind: UnitKindVolume},
	"cups":        {canonical: "cup", kind: UnitKindVolume},
	"fl-oz":       {canonical: "fl-oz", kind: UnitKindVolume},

	// count
	"each":   {canonical: "each", kind: UnitKindCount},
	"ea":     {canonical: "each", kind: UnitKindCount},
	"piece":  {canonical: "each", kind: UnitKindCount},
	"pieces": {canonical: "each", kind: UnitKindCount},
	"clove":  {canonical: "clove", kind: UnitKindCount},
	"cloves": {canonical: "clove", kind: UnitKindCount},
	"can":    {canonical: "can", kind: UnitKindCount},
	"cans":   {canonical: "can", kind: UnitKindCount},
	"bunch":  {canonical: "bunch", kind: UnitKindCount},
	"pinch":  {canonical: "pinch", kind: UnitKindCount},
}

// NormalizeUnit maps spelling variants to one canonical unit so the grocery
// aggregator, which keys totals by unit, does not split "lbs" from "lb".
// Unknown units are lowercased and kept.
func NormalizeUnit(unit string) string {
	u := strings.ToLower(strings.TrimSpace(unit))
	if def, ok := unitTable[u]; ok {
		return def.canonical
	}
	return u
}

func KindOfUnit(unit string) UnitKind {
	def, ok := unitTable[strings.ToLower(strings.TrimSpace(unit))]
	if !ok {
		return UnitKindUnknown
	}
	return def.kind
}
