package transcribe

import (
	"fmt"
	"strings"
)

// Tier selects the backend model's size/accuracy/latency trade-off.
type Tier string

const (
	TierTiny   Tier = "tiny"
	TierBase   Tier = "base"
	TierSmall  Tier = "small"
	TierMedium Tier = "medium"
	TierLarge  Tier = "large"
)

// Tiers returns the fixed set in increasing accuracy and latency order.
func Tiers() []Tier {
	return []Tier{TierTiny, TierBase, TierSmall, TierMedium, TierLarge}
}

// ParseTier validates a tier name.
func ParseTier(value string) (Tier, error) {
	tier := Tier(strings.ToLower(strings.TrimSpace(value)))
	for _, known := range Tiers() {
		if tier == known {
			return tier, nil
		}
	}
	return "", fmt.Errorf("unknown model tier %q (expected one of tiny, base, small, medium, large)", value)
}

// Describe returns a short human-readable summary for CLI listings.
func (t Tier) Describe() string {
	switch t {
	case TierTiny:
		return "fastest, lowest accuracy"
	case TierBase:
		return "good default for short clips"
	case TierSmall:
		return "balanced accuracy and speed"
	case TierMedium:
		return "high accuracy, slower"
	case TierLarge:
		return "best accuracy, slowest"
	default:
		return "unknown tier"
	}
}
