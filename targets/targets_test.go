package targets

import (
	"errors"
	"testing"

	"omibyte.io/cmrt/arch"
)

func TestCatalogue(t *testing.T) {
	if len(All()) == 0 {
		t.Fatal("empty catalogue")
	}
	for _, target := range All() {
		t.Run(target.Series, func(t *testing.T) {
			if err := target.Validate(); err != nil {
				t.Error(err)
			}
		})
	}
}

func TestFind(t *testing.T) {
	tests := []struct {
		name   string
		series string
		tier   arch.Tier
	}{
		{"stm32f401re", "stm32f4", arch.ARMv7EM},
		{"STM32F4", "stm32f4", arch.ARMv7EM},
		{"rp2040", "rp2040", arch.ARMv6M},
		{"atsaml10e16a", "atsaml10", arch.ARMv8MBase},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target, err := All().Find(tt.name)
			if err != nil {
				t.Fatal(err)
			}
			if target.Series != tt.series {
				t.Errorf("expected series %s, got %s", tt.series, target.Series)
			}
			if tier, _ := target.Tier(); tier != tt.tier {
				t.Errorf("expected %s, got %s", tt.tier, tier)
			}
		})
	}

	if _, err := All().Find("z80"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected %v, got %v", ErrNotFound, err)
	}
}

func TestRegion(t *testing.T) {
	target, err := All().FindBySeries("stm32f4")
	if err != nil {
		t.Fatal(err)
	}

	ram, err := target.Region("ram")
	if err != nil {
		t.Fatal(err)
	}
	if ram.Origin != 0x20000000 || ram.Length != 96<<10 || ram.End() != 0x20018000 {
		t.Errorf("unexpected RAM region %+v", ram)
	}

	if _, err := target.Region("CCM"); !errors.Is(err, ErrNoRegion) {
		t.Errorf("expected %v, got %v", ErrNoRegion, err)
	}
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		in      string
		want    Size
		wantErr bool
	}{
		{"64K", 64 << 10, false},
		{"1M", 1 << 20, false},
		{"0x400", 1024, false},
		{"512", 512, false},
		{"4096M", 0, true},
		{"lots", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSize(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("unexpected error state: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}

	if s := Size(96 << 10).String(); s != "96K" {
		t.Errorf("expected 96K, got %s", s)
	}
}

func TestBuildTags(t *testing.T) {
	target, _ := All().FindBySeries("stm32f4")
	tags := target.BuildTags()
	for _, want := range []string{"stm32f4", "armv7em", "fpu"} {
		found := false
		for _, tag := range tags {
			found = found || tag == want
		}
		if !found {
			t.Errorf("%v does not contain %s", tags, want)
		}
	}
}
