package targets

import (
	_ "embed"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"

	"omibyte.io/cmrt/arch"
)

//go:embed targets.yaml
var rawTargets []byte

var targets Targets

var (
	ErrNotFound  = errors.New("target not found")
	ErrNoRegion  = errors.New("target has no such memory region")
	ErrBadTarget = errors.New("invalid target description")
)

func All() Targets {
	return targets
}

type Targets []TargetInfo
type TargetInfo struct {
	Series       string   `yaml:"series"`
	Chips        []string `yaml:"chips"`
	Cpu          string   `yaml:"cpu"`
	Architecture string   `yaml:"architecture"`
	Triple       string   `yaml:"triple"`
	Float        string   `yaml:"float"`
	FPU          bool     `yaml:"fpu"`
	Interrupts   int      `yaml:"interrupts"`
	Tags         []string `yaml:"tags"`
	Features     []string `yaml:"features"`
	Memory       []Region `yaml:"memory"`
}

// Region is a memory region of the part as written to memory.x.
type Region struct {
	Name   string `yaml:"name"`
	Origin uint32 `yaml:"origin"`
	Length Size   `yaml:"length"`
}

func (r Region) End() uint32 {
	return r.Origin + uint32(r.Length)
}

// Size is a byte count that may carry a K or M suffix.
type Size uint32

func (s *Size) UnmarshalYAML(node *yaml.Node) error {
	v, err := ParseSize(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*s = v
	return nil
}

func (s Size) String() string {
	switch {
	case s > 0 && s%(1<<20) == 0:
		return strconv.FormatUint(uint64(s>>20), 10) + "M"
	case s > 0 && s%(1<<10) == 0:
		return strconv.FormatUint(uint64(s>>10), 10) + "K"
	}
	return strconv.FormatUint(uint64(s), 10)
}

// ParseSize accepts "64K", "1M" or a plain decimal or hexadecimal number.
func ParseSize(s string) (Size, error) {
	s = strings.TrimSpace(s)
	shift := 0
	switch {
	case strings.HasSuffix(s, "K"):
		shift, s = 10, strings.TrimSuffix(s, "K")
	case strings.HasSuffix(s, "M"):
		shift, s = 20, strings.TrimSuffix(s, "M")
	}
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, errors.Join(ErrBadTarget, err)
	}
	if v<<shift > 1<<32-1 {
		return 0, fmt.Errorf("%w: size %s overflows", ErrBadTarget, s)
	}
	return Size(v << shift), nil
}

// Tier returns the architecture tier the target implements.
func (t TargetInfo) Tier() (arch.Tier, error) {
	return arch.ParseTier(t.Architecture)
}

// Region returns the memory region called name.
func (t TargetInfo) Region(name string) (Region, error) {
	i := slices.IndexFunc(t.Memory, func(r Region) bool {
		return strings.EqualFold(r.Name, name)
	})
	if i < 0 {
		return Region{}, fmt.Errorf("%w: %s has no %s", ErrNoRegion, t.Series, name)
	}
	return t.Memory[i], nil
}

// BuildTags returns the tags of the target together with those of its tier.
func (t TargetInfo) BuildTags() []string {
	tags := slices.Clone(t.Tags)
	if tier, err := t.Tier(); err == nil {
		tags = append(tags, tier.Tags()...)
	}
	if t.FPU {
		tags = append(tags, "fpu")
	}
	return tags
}

func (t TargetInfo) Validate() error {
	var errs []error
	tier, err := t.Tier()
	if err != nil {
		errs = append(errs, err)
	} else {
		if t.Interrupts > tier.MaxInterrupts() {
			errs = append(errs, fmt.Errorf("%w: %s declares %d interrupts, %s allows %d", ErrBadTarget, t.Series, t.Interrupts, tier, tier.MaxInterrupts()))
		}
		if t.FPU && !tier.HasFPUOption() {
			errs = append(errs, fmt.Errorf("%w: %s has an fpu but %s has no fpu option", ErrBadTarget, t.Series, tier))
		}
	}
	for _, name := range []string{"FLASH", "RAM"} {
		if _, err := t.Region(name); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (t Targets) FindBySeries(name string) (TargetInfo, error) {
	for _, target := range t {
		if target.Series == strings.ToLower(name) {
			return target, nil
		}
	}
	return TargetInfo{}, fmt.Errorf("%w: series %s", ErrNotFound, name)
}

func (t Targets) FindByChip(name string) (TargetInfo, error) {
	for _, target := range t {
		if slices.Contains(target.Chips, strings.ToLower(name)) {
			return target, nil
		}
	}
	return TargetInfo{}, fmt.Errorf("%w: chip %s", ErrNotFound, name)
}

// Find looks name up as a chip first and as a series second.
func (t Targets) Find(name string) (TargetInfo, error) {
	if target, err := t.FindByChip(name); err == nil {
		return target, nil
	}
	return t.FindBySeries(name)
}

func init() {
	var t struct {
		Elements []TargetInfo `yaml:"targets"`
	}
	if err := yaml.Unmarshal(rawTargets, &t); err != nil {
		panic(err)
	}

	targets = t.Elements
}
