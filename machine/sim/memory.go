package sim

import (
	"fmt"

	"omibyte.io/cmrt/machine"
)

// Region is a word-addressed block of simulated memory.
type Region struct {
	Name  string
	Base  uint32
	words []uint32
}

func NewRegion(name string, base, size uint32) *Region {
	return &Region{
		Name:  name,
		Base:  base,
		words: make([]uint32, size/4),
	}
}

func (r *Region) Size() uint32 {
	return uint32(len(r.words)) * 4
}

func (r *Region) End() uint32 {
	return r.Base + r.Size()
}

func (r *Region) Contains(addr uint32) bool {
	return addr >= r.Base && addr-r.Base < r.Size()
}

func (r *Region) String() string {
	return fmt.Sprintf("%s [0x%08X, 0x%08X)", r.Name, r.Base, r.End())
}

func (c *Core) region(addr uint32) (*Region, int) {
	if addr%4 != 0 {
		panic(machine.Trap{Kind: machine.BusError, Address: addr})
	}
	for _, r := range c.regions {
		if r.Contains(addr) {
			return r, int((addr - r.Base) / 4)
		}
	}
	panic(machine.Trap{Kind: machine.BusError, Address: addr})
}

func (c *Core) Load32(addr uint32) uint32 {
	if value, ok := c.loadSpecial(addr); ok {
		return value
	}
	r, i := c.region(addr)
	return r.words[i]
}

func (c *Core) Store32(addr uint32, value uint32) {
	if c.storeSpecial(addr, value) {
		return
	}
	r, i := c.region(addr)
	r.words[i] = value
}

func (c *Core) Words(addr uint32, count int) []uint32 {
	r, i := c.region(addr)
	if i+count > len(r.words) {
		panic(machine.Trap{Kind: machine.BusError, Address: r.End()})
	}
	return r.words[i : i+count : i+count]
}

// LoadBytes copies n bytes starting at addr out of simulated memory.
func (c *Core) LoadBytes(addr uint32, n int) []byte {
	out := make([]byte, 0, n)
	for len(out) < n {
		word := c.Load32(addr)
		for b := 0; b < 4 && len(out) < n; b++ {
			out = append(out, byte(word>>(8*b)))
		}
		addr += 4
	}
	return out
}

// StoreBytes writes data into simulated memory starting at the word aligned
// address addr. A trailing partial word is zero padded.
func (c *Core) StoreBytes(addr uint32, data []byte) {
	for i := 0; i < len(data); i += 4 {
		var word uint32
		for b := 0; b < 4 && i+b < len(data); b++ {
			word |= uint32(data[i+b]) << (8 * b)
		}
		c.Store32(addr+uint32(i), word)
	}
}

// StoreWords writes consecutive words starting at addr.
func (c *Core) StoreWords(addr uint32, words []uint32) {
	for i, w := range words {
		c.Store32(addr+uint32(i)*4, w)
	}
}
