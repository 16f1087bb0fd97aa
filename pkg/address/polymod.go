package address

// Generator terms of the 40-bit BCH code shared with cashaddr.
var generator = [5]uint64{
	0x98f2bc8e61,
	0x79b76d99e2,
	0xf33e5fb3c4,
	0xae2eabe2a8,
	0x1e4f43e470,
}

// PolyMod computes the CIP-37 checksum over a sequence of 5-bit symbols.
// A checksummed symbol sequence is valid when PolyMod returns 0.
func PolyMod(symbols []byte) uint64 {
	c := uint64(1)
	for _, d := range symbols {
		c0 := byte(c >> 35)
		c = (c&0x07ffffffff)<<5 ^ uint64(d)
		for i, g := range generator {
			if c0>>uint(i)&1 == 1 {
				c ^= g
			}
		}
	}
	return c ^ 1
}

// checksumSymbols renders a 40-bit checksum as eight 5-bit symbols.
func checksumSymbols(c uint64) []byte {
	raw := []byte{byte(c >> 32), byte(c >> 24), byte(c >> 16), byte(c >> 8), byte(c)}
	// 40 bits re-pack into exactly eight groups, so this cannot fail.
	out, _ := ConvertBits(raw, 8, 5, true)
	return out
}
