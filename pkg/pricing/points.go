// Package pricing centralizes price-unit arithmetic: pip/point conversion
// and digit-precision rounding. Every price distance in the guard goes
// through here exactly once, never ad hoc at call sites.
package pricing

import "math"

// PipSize returns the pip size for an instrument quoted with the given
// point and decimal precision. Venues quoting 3 or 5 decimals use a
// fractional extra digit, so a pip is ten points there; otherwise a pip
// equals the point.
func PipSize(point float64, digits int) float64 {
	if digits == 3 || digits == 5 {
		return point * 10
	}
	return point
}

// PipsToPrice converts a distance expressed in pips into absolute price
// units for the given quoting convention.
func PipsToPrice(pips, point float64, digits int) float64 {
	return pips * PipSize(point, digits)
}

// PointsToPrice converts a distance expressed in points into absolute
// price units.
func PointsToPrice(points, point float64) float64 {
	return points * point
}

// Round normalizes a price to the instrument's decimal precision. Venue
// gateways reject stop levels that are not aligned to the quote grid.
func Round(price float64, digits int) float64 {
	if digits < 0 {
		return price
	}
	scale := math.Pow(10, float64(digits))
	return math.Round(price*scale) / scale
}
