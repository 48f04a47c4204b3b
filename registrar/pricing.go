package registrar

import (
	"math/big"
	"unicode/utf8"
)

// Prices maps name length to an explicit yearly price. Missing or zero entries
// fall back to the yearly base price.
type Prices map[uint64]*big.Int

// Copy returns a deep copy.
func (p Prices) Copy() Prices {
	cp := make(Prices, len(p))
	for l, v := range p {
		cp[l] = new(big.Int).Set(v)
	}
	return cp
}

// NameLength counts the characters of a name. Names are UTF-8 and each code
// point counts once.
func NameLength(name string) uint64 {
	return uint64(utf8.RuneCountInString(name))
}

// YearlyPrice is the per-year price of names with the given length.
func YearlyPrice(prices Prices, base *big.Int, length uint64) *big.Int {
	if p := prices[length]; p != nil && p.Sign() > 0 {
		return new(big.Int).Set(p)
	}
	if base == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(base)
}

// RentPrice is yearlyPrice(len(name)) * years.
func RentPrice(prices Prices, base *big.Int, name string, years uint64) *big.Int {
	yearly := YearlyPrice(prices, base, NameLength(name))
	return yearly.Mul(yearly, new(big.Int).SetUint64(years))
}

// RentPriceWithWaiver subtracts one year of the price when the caller still
// holds a free registration. The result never goes below zero.
func RentPriceWithWaiver(prices Prices, base *big.Int, name string, years uint64, free bool) *big.Int {
	cost := RentPrice(prices, base, name, years)
	if !free {
		return cost
	}
	cost.Sub(cost, YearlyPrice(prices, base, NameLength(name)))
	if cost.Sign() < 0 {
		cost.SetUint64(0)
	}
	return cost
}
