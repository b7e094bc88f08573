package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Monetary amounts are carried as int64 öre so currency arithmetic never
// happens in floating point. Conversion to kronor occurs only at the
// formatting boundary.

// FormatSEK renders öre as a kronor string with two decimals, e.g. "545.00".
func FormatSEK(ore int64) string {
	sign := ""
	if ore < 0 {
		sign = "-"
		ore = -ore
	}
	return fmt.Sprintf("%s%d.%02d", sign, ore/100, ore%100)
}

// ParseSEKToOre parses "545", "545.5" or "545.00 kr" into öre.
func ParseSEKToOre(s string) (int64, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	s = strings.TrimSuffix(s, "kr")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, ",", ".")
	if s == "" {
		return 0, fmt.Errorf("invalid amount")
	}

	whole, frac, _ := strings.Cut(s, ".")
	n, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, err
	}
	ore := n * 100
	if frac != "" {
		if len(frac) > 2 {
			return 0, fmt.Errorf("at most two decimals allowed")
		}
		for len(frac) < 2 {
			frac += "0"
		}
		f, err := strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return 0, err
		}
		if n < 0 {
			ore -= f
		} else {
			ore += f
		}
	}
	return ore, nil
}

// RoundOre converts a rate multiplied by a measured quantity into öre,
// rounding half away from zero.
func RoundOre(x float64) int64 {
	return int64(math.Round(x))
}

// AbsOre returns the absolute difference between two amounts.
func AbsOre(a, b int64) int64 {
	d := a - b
	if d < 0 {
		return -d
	}
	return d
}
