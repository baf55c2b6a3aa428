package device

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/exp/slices"
)

func TestLoad(t *testing.T) {
	dev, err := Load("testdata/stm32f4.svd")
	if err != nil {
		t.Fatal(err)
	}

	if dev.Name != "STM32F401" || dev.CPU != "CM4" {
		t.Errorf("unexpected device %s/%s", dev.Name, dev.CPU)
	}
	if !dev.FPU || dev.MPU {
		t.Errorf("expected fpu and no mpu, got fpu=%v mpu=%v", dev.FPU, dev.MPU)
	}
	if dev.PriorityBits != 4 {
		t.Errorf("expected 4 priority bits, got %d", dev.PriorityBits)
	}

	expected := []string{"WWDG", "EXTI0", "EXTI1", "ADC", "USART1", "USART2", "USART6"}
	if names := dev.Names(); !slices.Equal(names, expected) {
		t.Errorf("expected %v, got %v", expected, names)
	}
	if dev.Count() != 72 {
		t.Errorf("expected 72 slots, got %d", dev.Count())
	}

	irq, ok := dev.Lookup("USART1")
	if !ok || irq.Value != 37 {
		t.Errorf("USART1 = %+v, %v", irq, ok)
	}
	if wwdg, _ := dev.Lookup("WWDG"); wwdg.Description != "Window Watchdog interrupt" {
		t.Errorf("description not normalized: %q", wwdg.Description)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		err  error
	}{
		{
			name: "unknown parent",
			body: `<peripheral derivedFrom="UART9"><name>UART4</name></peripheral>`,
			err:  ErrUnknownParent,
		},
		{
			name: "negative value",
			body: `<peripheral><name>X</name><interrupt><name>X</name><value>-1</value></interrupt></peripheral>`,
			err:  ErrInterruptValue,
		},
		{
			name: "bad name",
			body: `<peripheral><name>X</name><interrupt><name>TIM1 UP</name><value>1</value></interrupt></peripheral>`,
			err:  ErrInterruptName,
		},
		{
			name: "bad integer",
			body: `<peripheral><name>X</name><interrupt><name>X</name><value>0xZZ</value></interrupt></peripheral>`,
			err:  ErrDecode,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := "<device><name>D</name><peripherals>" + tt.body + "</peripherals></device>"
			_, err := Parse(strings.NewReader(src))
			if !errors.Is(err, tt.err) {
				t.Errorf("expected %v, got %v", tt.err, err)
			}
		})
	}
}

func TestInteger(t *testing.T) {
	tests := []struct {
		in   string
		want Integer
	}{
		{"42", 42},
		{"0x2A", 42},
		{"0X2a", 42},
		{" 7 ", 7},
		{"#101", 5},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var i Integer
			if err := i.parse(tt.in); err != nil {
				t.Fatal(err)
			}
			if i != tt.want {
				t.Errorf("expected %d, got %d", tt.want, i)
			}
		})
	}
}
