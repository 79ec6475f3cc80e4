package modes

// generatorPolynomial is the Mode S CRC-24 generator, x^24 term included
// as bit 24.
const generatorPolynomial = 0x1FFF409

// generatorRemainder is the 24-bit reduced form of generatorPolynomial
// (its leading x^24 bit dropped, since the table construction below
// shifts it out implicitly) used to build the byte table.
const generatorRemainder = generatorPolynomial & 0xFFFFFF

// invalidChecksum is returned by Checksum for any frame that is neither
// 7 nor 14 bytes long; callers treat it as invalid.
const invalidChecksum uint32 = 0x0F000000

// crcTable is the 256-entry byte-oriented CRC-24 lookup table, generated
// from generatorRemainder at package init. Regenerating it from the
// polynomial (rather than hand-transcribing a literal table) is how its
// equality with the source's normative table is guaranteed.
var crcTable = buildCRCTable()

func buildCRCTable() [256]uint32 {
	var table [256]uint32
	for i := range table {
		c := uint32(i) << 16
		for j := 0; j < 8; j++ {
			if c&0x800000 != 0 {
				c = ((c << 1) ^ generatorRemainder) & 0xFFFFFF
			} else {
				c = (c << 1) & 0xFFFFFF
			}
		}
		table[i] = c
	}
	return table
}

// Checksum computes the Mode S CRC-24 over a 7- or 14-byte frame,
// processing every byte except the trailing 3 that carry the
// transmitted parity. Any other frame length yields invalidChecksum.
func Checksum(frame []byte) uint32 {
	var n int
	switch len(frame) {
	case ShortFrameBytes:
		n = ShortFrameBytes - 3
	case LongFrameBytes:
		n = LongFrameBytes - 3
	default:
		return invalidChecksum
	}

	var rem uint32
	for i := 0; i < n; i++ {
		rem = ((rem << 8) & 0xFFFFFF) ^ crcTable[uint32(frame[i])^((rem>>16)&0xFF)]
	}
	return rem
}

// Syndrome returns Checksum(frame) XOR the transmitted parity (the last
// 3 bytes, big-endian). A zero syndrome means no bit error on PI
// downlinks, or that no ICAO is XORed in on AP downlinks.
func Syndrome(frame []byte) uint32 {
	checksum := Checksum(frame)
	if checksum == invalidChecksum {
		return checksum
	}

	n := len(frame)
	parity := uint32(frame[n-3])<<16 | uint32(frame[n-2])<<8 | uint32(frame[n-1])
	return checksum ^ parity
}

// df17Syndromes is the normative 112-element syndrome table: for each of
// the 88 data bits, element i is the syndrome produced by flipping bit i
// of an otherwise zero-syndrome 112-bit frame. The trailing 24 entries,
// for the parity bits, are zero; flipping a parity bit instead yields
// that bit's own place value as the syndrome. Because CRC-24 is linear over GF(2),
// this table is exactly the classic Mode S "checksum table" used to
// compute a checksum by XORing entries for every set data bit; the
// values below are reproduced from that table.
var df17Syndromes = [LongFrameBits]uint32{
	0x3935ea, 0x1c9af5, 0xf1b77e, 0x78dbbf, 0xc397db, 0x9e31e9, 0xb0e2f0, 0x587178,
	0x2c38bc, 0x161c5e, 0x0b0e2f, 0xfa7d13, 0x82c48d, 0xbe9842, 0x5f4c21, 0xd05c14,
	0x682e0a, 0x341705, 0xe5f186, 0x72f8c3, 0xc68665, 0x9cb936, 0x4e5c9b, 0xd8d449,
	0x939020, 0x49c810, 0x24e408, 0x127204, 0x093902, 0x049c81, 0xfdb444, 0x7eda22,
	0x3f6d11, 0xe04c8c, 0x702646, 0x381323, 0xe3f395, 0x8e03ce, 0x4701e7, 0xdc7af7,
	0x91c77f, 0xb719bb, 0xa476d9, 0xadc168, 0x56e0b4, 0x2b705a, 0x15b82d, 0xf52612,
	0x7a9309, 0xc2b380, 0x6159c0, 0x30ace0, 0x185670, 0x0c2b38, 0x06159c, 0x030ace,
	0x018567, 0xff38b7, 0x80665f, 0xbfc92b, 0xa01e91, 0xaff54c, 0x57faa6, 0x2bfd53,
	0xea04ad, 0x8af852, 0x457c29, 0xdd4410, 0x6ea208, 0x375104, 0x1ba882, 0x0dd441,
	0xf91024, 0x7c8812, 0x3e4409, 0xe0d800, 0x706c00, 0x383600, 0x1c1b00, 0x0e0d80,
	0x0706c0, 0x038360, 0x01c1b0, 0x00e0d8, 0x00706c, 0x003836, 0x001c1b, 0xfff409,
	0x000000, 0x000000, 0x000000, 0x000000, 0x000000, 0x000000, 0x000000, 0x000000,
	0x000000, 0x000000, 0x000000, 0x000000, 0x000000, 0x000000, 0x000000, 0x000000,
	0x000000, 0x000000, 0x000000, 0x000000, 0x000000, 0x000000, 0x000000, 0x000000,
}

// df11Syndromes is the 56-element syndrome table for short frames: it
// is the tail of df17Syndromes, offset by 112-56 bit positions, exactly
// as the reference bit-serial implementation shifts its offset for
// 56-bit messages.
var df11Syndromes = func() [ShortFrameBits]uint32 {
	var t [ShortFrameBits]uint32
	copy(t[:], df17Syndromes[LongFrameBits-ShortFrameBits:])
	return t
}()

// errorBitTable inverts a syndrome table into syndrome -> bit position,
// dropping the zero-valued entries (ambiguous: many bit positions share
// syndrome 0, namely every parity bit) and any non-zero value that is
// not unique to a single position.
func errorBitTable(t []uint32) map[uint32]int {
	m := make(map[uint32]int, len(t))
	ambiguous := make(map[uint32]bool)

	for i, v := range t {
		if v == 0 {
			continue
		}
		if _, exists := m[v]; exists {
			ambiguous[v] = true
			continue
		}
		m[v] = i
	}
	for v := range ambiguous {
		delete(m, v)
	}
	return m
}

var (
	df17ErrorBits = errorBitTable(df17Syndromes[:])
	df11ErrorBits = errorBitTable(df11Syndromes[:])
)

// ErrorBit matches syndrome against the syndrome table for a frame of
// the given byte length and returns the 0-based bit position of the
// single-bit error that would produce it, or -1 if no unique single-bit
// error accounts for it.
func ErrorBit(frameLengthBytes int, syndrome uint32) int {
	if syndrome == 0 {
		return -1
	}

	var table map[uint32]int
	switch frameLengthBytes {
	case LongFrameBytes:
		table = df17ErrorBits
	case ShortFrameBytes:
		table = df11ErrorBits
	default:
		return -1
	}

	if pos, ok := table[syndrome]; ok {
		return pos
	}
	return -1
}
