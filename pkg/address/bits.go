package address

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidGroup   = errors.New("invalid data range")
	ErrExcessBits     = errors.New("excess bits")
	ErrNonZeroPadding = errors.New("non-zero padding, not zero suffix")
)

// ConvertBits re-slices a big-endian stream of fromBits-wide groups into
// toBits-wide groups.
//
// With pad, a trailing partial group is right-padded with zeros and kept.
// Without pad, the leftover bits must be fewer than fromBits and all zero.
func ConvertBits(data []byte, fromBits, toBits uint8, pad bool) ([]byte, error) {
	if fromBits < 1 || fromBits > 8 || toBits < 1 || toBits > 8 {
		return nil, fmt.Errorf("unsupported bit widths %d -> %d", fromBits, toBits)
	}

	var (
		acc    uint32
		bits   uint8
		maxv   = uint32(1)<<toBits - 1
		maxAcc = uint32(1)<<(fromBits+toBits-1) - 1
		out    = make([]byte, 0, len(data)*int(fromBits)/int(toBits)+1)
	)
	for i, value := range data {
		if uint32(value)>>fromBits != 0 {
			return nil, fmt.Errorf("%w: group %d is %d", ErrInvalidGroup, i, value)
		}
		acc = (acc<<fromBits | uint32(value)) & maxAcc
		bits += fromBits
		for bits >= toBits {
			bits -= toBits
			out = append(out, byte(acc>>bits&maxv))
		}
	}

	if pad {
		if bits > 0 {
			out = append(out, byte(acc<<(toBits-bits)&maxv))
		}
		return out, nil
	}
	if bits >= fromBits {
		return nil, fmt.Errorf("%w: excess %d bits", ErrExcessBits, bits)
	}
	if acc<<(toBits-bits)&maxv != 0 {
		return nil, ErrNonZeroPadding
	}
	return out, nil
}
