package monologo

import "fmt"

// Pack packs plane into PackedLen bytes, row-major, eight pixels per byte
// with the leftmost pixel in the most significant bit.
func Pack(plane BitPlane) []byte {
	out := make([]byte, 0, PackedLen)
	for row := range Size {
		for byteCol := range RowBytes {
			var v byte
			for bit := range 8 {
				if plane[row][byteCol*8+bit] {
					v |= 1 << (7 - bit)
				}
			}
			out = append(out, v)
		}
	}
	return out
}

// Unpack is the inverse of Pack.
func Unpack(data []byte) (BitPlane, error) {
	var plane BitPlane
	if len(data) != PackedLen {
		return plane, fmt.Errorf("%w: packed bitmap is %d bytes, want %d", ErrInvalidArgument, len(data), PackedLen)
	}
	for i, v := range data {
		row, byteCol := i/RowBytes, i%RowBytes
		for bit := range 8 {
			plane[row][byteCol*8+bit] = v&(1<<(7-bit)) != 0
		}
	}
	return plane, nil
}
