package arch

import (
	"errors"
	"testing"
)

func TestParseTier(t *testing.T) {
	tests := []struct {
		in   string
		want Tier
	}{
		{"armv6m", ARMv6M},
		{"ARMv7M", ARMv7M},
		{"thumbv7em-none-eabihf", ARMv7EM},
		{"thumbv8m.base-none-eabi", ARMv8MBase},
		{"armv8m.main", ARMv8MMain},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseTier(tc.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("expected %s, got %s", tc.want, got)
			}
		})
	}

	if _, err := ParseTier("riscv32"); !errors.Is(err, ErrUnknownTier) {
		t.Errorf("expected ErrUnknownTier, got %v", err)
	}
}

func TestExceptionsLayout(t *testing.T) {
	tests := []struct {
		tier     Tier
		reserved []int
	}{
		{ARMv6M, []int{2, 3, 4, 5, 6, 7, 8, 10, 11}},
		{ARMv7M, []int{5, 6, 7, 8, 11}},
		{ARMv7EM, []int{5, 6, 7, 8, 11}},
		{ARMv8MMain, []int{6, 7, 8, 11}},
	}

	for _, tc := range tests {
		t.Run(tc.tier.String(), func(t *testing.T) {
			slots := Exceptions(tc.tier)
			zero := map[int]bool{}
			for _, i := range tc.reserved {
				zero[i] = true
			}
			for i, e := range slots {
				if zero[i] && e != 0 {
					t.Errorf("slot %d: expected reserved, got %s", i, e)
				}
				if !zero[i] && e == 0 {
					t.Errorf("slot %d: expected an exception, got reserved", i)
				}
				if e != 0 && e.Slot() != i {
					t.Errorf("slot %d: %s reports slot %d", i, e, e.Slot())
				}
			}
		})
	}
}

func TestIRQn(t *testing.T) {
	if n := HardFault.IRQn(); n != -13 {
		t.Errorf("expected -13, got %d", n)
	}
	if n := SysTick.IRQn(); n != -1 {
		t.Errorf("expected -1, got %d", n)
	}
}

func TestLookupException(t *testing.T) {
	if e, ok := LookupException("PendSV"); !ok || e != PendSV {
		t.Errorf("expected PendSV, got %v %v", e, ok)
	}
	if _, ok := LookupException("Reset"); ok {
		t.Error("Reset is not an overridable exception")
	}
	if SecureFault.Available(ARMv7EM) {
		t.Error("SecureFault must not exist on ARMv7EM")
	}
}
