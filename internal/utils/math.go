package utils

import (
	"fmt"
	"math/big"
	"strings"
)

// ParseAmount converts a human-readable decimal amount into smallest
// units for the given token decimals.
func ParseAmount(amount string, decimals int) (*big.Int, error) {
	f, ok := new(big.Float).SetString(amount)
	if !ok {
		return nil, fmt.Errorf("invalid amount: %s", amount)
	}

	scale := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	f.Mul(f, scale)

	wei, _ := f.Int(nil)
	return wei, nil
}

// FormatAmount converts smallest units into a human-readable decimal
// string, trimming trailing zeros.
func FormatAmount(amount *big.Int, decimals int) string {
	if amount == nil {
		return "0"
	}

	scale := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	f := new(big.Float).SetInt(amount)
	f.Quo(f, scale)

	s := f.Text('f', decimals)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimRight(s, ".")
	}
	return s
}

// Min returns the smaller of a or b.
func Min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// Max returns the larger of a or b.
func Max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
