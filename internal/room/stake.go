package room

import (
	"math"
	"strconv"
	"strings"
)

// MistPerSUI is the number of mist in one SUI.
const MistPerSUI = 1_000_000_000

const mistDigits = 9

// ParseStakeMist converts a decimal SUI amount ("1.5", "0.25", "3") into mist.
// Fractional digits beyond the ninth are truncated. Zero, negative, malformed or
// overflowing amounts return ErrInvalidStake.
func ParseStakeMist(amount string) (uint64, error) {
	s := strings.TrimSpace(amount)
	if s == "" {
		return 0, ErrInvalidStake
	}
	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" && frac == "" {
		return 0, ErrInvalidStake
	}
	if !allDigits(whole) || !allDigits(frac) {
		return 0, ErrInvalidStake
	}

	var w uint64
	if whole != "" {
		v, err := strconv.ParseUint(whole, 10, 64)
		if err != nil || v > math.MaxUint64/MistPerSUI {
			return 0, ErrInvalidStake
		}
		w = v
	}

	if len(frac) > mistDigits {
		frac = frac[:mistDigits]
	}
	frac += strings.Repeat("0", mistDigits-len(frac))
	f, err := strconv.ParseUint(frac, 10, 64)
	if err != nil {
		return 0, ErrInvalidStake
	}

	mist := w*MistPerSUI + f
	if mist < w*MistPerSUI || mist == 0 {
		return 0, ErrInvalidStake
	}
	return mist, nil
}

// FormatSUI renders a mist amount as SUI without trailing zeros.
func FormatSUI(mist uint64) string {
	whole := mist / MistPerSUI
	frac := mist % MistPerSUI
	if frac == 0 {
		return strconv.FormatUint(whole, 10)
	}
	fs := strconv.FormatUint(frac, 10)
	fs = strings.Repeat("0", mistDigits-len(fs)) + fs
	return strconv.FormatUint(whole, 10) + "." + strings.TrimRight(fs, "0")
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
