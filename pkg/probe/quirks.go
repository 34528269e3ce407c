package probe

// Quirk is an immutable per-build capability bitfield describing structural
// deviations in a board's hardware paths that the scan engine must
// compensate for. The field is reported verbatim to the host by GetInfo.
type Quirk uint32

const (
	// QuirkFlipBytesInBlock marks shift engines that can only transmit bytes
	// MSB first, where JTAG requires LSB first. Whole bytes moved through
	// the block path are bit-reversed before transmission and after
	// reception; straggling bits on the bit-banged tail are unaffected.
	QuirkFlipBytesInBlock Quirk = 1 << 0
)

// Has reports whether all quirks in mask are set.
func (q Quirk) Has(mask Quirk) bool {
	return q&mask == mask
}

// reverseBits mirrors the bit order of a single byte.
func reverseBits(b byte) byte {
	b = b>>4 | b<<4
	b = b>>2&0x33 | b<<2&0xCC
	b = b>>1&0x55 | b<<1&0xAA
	return b
}

// reverseBytes mirrors the bit order of every byte of src into dst.
func reverseBytes(dst, src []byte) {
	for i, b := range src {
		dst[i] = reverseBits(b)
	}
}
