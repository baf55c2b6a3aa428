package cortexm

import "omibyte.io/cmrt/critical"

// ResetPeripherals makes the core peripherals available to Take again.
func ResetPeripherals() {
	peripherals = critical.Singleton[Peripherals]{}
}
