package arch

import (
	"errors"
	"strings"
)

var ErrUnknownTier = errors.New("unknown architecture tier")

// Tier selects the Cortex-M architecture profile. The tier fixes which core
// exception slots exist and how many device interrupts the NVIC can address.
type Tier int

const (
	ARMv6M Tier = iota
	ARMv7M
	ARMv7EM
	ARMv8MBase
	ARMv8MMain
)

var tierNames = map[Tier]string{
	ARMv6M:     "armv6m",
	ARMv7M:     "armv7m",
	ARMv7EM:    "armv7em",
	ARMv8MBase: "armv8m.base",
	ARMv8MMain: "armv8m.main",
}

func (t Tier) String() string {
	if name, ok := tierNames[t]; ok {
		return name
	}
	return "unknown"
}

// ParseTier accepts either a tier name ("armv7em") or a thumb target triple
// ("thumbv7em-none-eabihf").
func ParseTier(s string) (Tier, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if strings.HasPrefix(s, "thumb") {
		s = "arm" + strings.TrimPrefix(s, "thumb")
		if i := strings.IndexByte(s, '-'); i >= 0 {
			s = s[:i]
		}
	}

	for tier, name := range tierNames {
		if name == s {
			return tier, nil
		}
	}
	return 0, errors.Join(ErrUnknownTier, errors.New(s))
}

// IsV8 reports whether the tier belongs to the ARMv8-M family.
func (t Tier) IsV8() bool {
	return t == ARMv8MBase || t == ARMv8MMain
}

// MaxInterrupts returns the largest number of device interrupt vectors the
// tier supports.
func (t Tier) MaxInterrupts() int {
	if t == ARMv6M {
		return 32
	}
	return 240
}

// HasFPUOption reports whether a floating-point unit can be present on parts
// implementing this tier.
func (t Tier) HasFPUOption() bool {
	return t == ARMv7EM || t == ARMv8MMain
}

// Tags returns the build tags describing the tier. They are used when
// evaluating conditional handler declarations.
func (t Tier) Tags() []string {
	tags := []string{t.String(), strings.ReplaceAll(t.String(), ".", "_")}
	if t.IsV8() {
		tags = append(tags, "armv8m")
	}
	return tags
}
