package model

// BaseUnit is one of the billing primitives that equivalence exams expand into.
type BaseUnit struct {
	Key     string   // stable identity, e.g. "abdominal_total"
	Name    string   // display and bucket label, e.g. "Abdominal total"
	Aliases []string // extra spellings that collapse direct labels into this unit
}

// BaseUnitKeys returns just the keys, in the given order.
func BaseUnitKeys(units []BaseUnit) []string {
	keys := make([]string, len(units))
	for i, u := range units {
		keys[i] = u.Key
	}
	return keys
}

// BaseUnitByKey returns the BaseUnit with the given key, or ok=false.
func BaseUnitByKey(units []BaseUnit, key string) (BaseUnit, bool) {
	for _, u := range units {
		if u.Key == key {
			return u, true
		}
	}
	return BaseUnit{}, false
}

// PriceTable maps BaseUnit keys to prices in cents.
type PriceTable map[string]int64

// Price returns the price for key; absent keys are priced at zero.
func (p PriceTable) Price(key string) int64 {
	if p == nil {
		return 0
	}
	return p[key]
}

// Clone returns an independent copy.
func (p PriceTable) Clone() PriceTable {
	out := make(PriceTable, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
