package device

// The element types follow the CMSIS-SVD schema. Only the parts describing
// the core and the interrupt lines are decoded.

type deviceElement struct {
	Name        string             `xml:"name"`
	Description string             `xml:"description"`
	Series      string             `xml:"series"`
	Version     string             `xml:"version"`
	Vendor      string             `xml:"vendor"`
	CPU         cpuElement         `xml:"cpu"`
	Peripherals peripheralsElement `xml:"peripherals"`
}

type cpuElement struct {
	Name             string  `xml:"name"`
	Revision         string  `xml:"revision"`
	Endian           string  `xml:"endian"`
	MPUPresent       Bool    `xml:"mpuPresent"`
	FPUPresent       Bool    `xml:"fpuPresent"`
	NVICPriorityBits Integer `xml:"nvicPrioBits"`
	VendorSystick    Bool    `xml:"vendorSystickConfig"`
}

type peripheralsElement struct {
	Elements []peripheralElement `xml:"peripheral"`
}

func (p peripheralsElement) find(name string) (peripheralElement, bool) {
	if len(name) > 0 {
		for _, pp := range p.Elements {
			if pp.Name == name {
				return pp, true
			}
		}
	}
	return peripheralElement{}, false
}

type peripheralElement struct {
	Name        string             `xml:"name"`
	Description string             `xml:"description"`
	Group       string             `xml:"groupName"`
	BaseAddress Integer            `xml:"baseAddress"`
	Interrupts  []interruptElement `xml:"interrupt"`
	DerivedFrom string             `xml:"derivedFrom,attr"`
}

type interruptElement struct {
	Name        string  `xml:"name"`
	Description string  `xml:"description"`
	Value       Integer `xml:"value"`
}
