package pmtiles

// MaxZoom is the deepest zoom whose ids fit in 64 bits.
const MaxZoom = 31

// ZxyToID maps a tile coordinate to its archive-wide tile id: the number of
// tiles in all lower zooms plus the position of (x, y) along the Hilbert
// curve of zoom z.
func ZxyToID(z uint8, x, y uint32) (uint64, error) {
	if z > MaxZoom {
		return 0, ErrInvalidTile
	}
	n := uint64(1) << z
	if uint64(x) >= n || uint64(y) >= n {
		return 0, ErrInvalidTile
	}
	acc := zoomBase(z)
	tx, ty := uint64(x), uint64(y)
	var d uint64
	for s := n >> 1; s > 0; s >>= 1 {
		var rx, ry uint64
		if tx&s > 0 {
			rx = 1
		}
		if ty&s > 0 {
			ry = 1
		}
		d += s * s * ((3 * rx) ^ ry)
		tx, ty = rotate(n, tx, ty, rx, ry)
	}
	return acc + d, nil
}

// IDToZxy is the inverse of ZxyToID.
func IDToZxy(id uint64) (uint8, uint32, uint32, error) {
	var z uint8
	for ; z <= MaxZoom; z++ {
		if id < zoomBase(z+1) {
			break
		}
	}
	if z > MaxZoom {
		return 0, 0, 0, ErrInvalidTile
	}
	n := uint64(1) << z
	t := id - zoomBase(z)
	var x, y uint64
	for s := uint64(1); s < n; s <<= 1 {
		rx := 1 & (t / 2)
		ry := 1 & (t ^ rx)
		x, y = rotate(s, x, y, rx, ry)
		x += s * rx
		y += s * ry
		t /= 4
	}
	return z, uint32(x), uint32(y), nil
}

// zoomBase is the count of ids used by zooms 0..z-1, (4^z - 1) / 3.
func zoomBase(z uint8) uint64 {
	if z >= 32 {
		// 4^32 overflows; 0x5555555555555555 is the first id past zoom 31.
		return 0x5555555555555555
	}
	return ((uint64(1) << (2 * uint64(z))) - 1) / 3
}

func rotate(n, x, y, rx, ry uint64) (uint64, uint64) {
	if ry == 0 {
		if rx == 1 {
			x = n - 1 - x
			y = n - 1 - y
		}
		return y, x
	}
	return x, y
}
