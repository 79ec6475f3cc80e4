package modes

import (
	"encoding/hex"
	"testing"
)

// Synthetic signal levels used throughout the table-driven tests below.
// Their exact values don't matter, only that lowMag is comfortably under
// every threshold highMag clears; the AGC correction term works out to
// zero for an evenly-alternating clean signal at these levels (their
// per-bit average never changes), which keeps the synthesized streams
// free of incidental magnitude correction.
const (
	lowMag  Magnitude = 20
	highMag Magnitude = 6000
)

// preambleMagnitudes returns the 16 canonical preamble chips.
func preambleMagnitudes() []Magnitude {
	// chips: 0 1 2 3 4 5 6 7 8 9 10 11 12 13 14 15
	//        hi lo hi lo lo lo lo hi lo hi -- lo lo lo lo lo
	return []Magnitude{
		highMag, lowMag, highMag, lowMag,
		lowMag, lowMag, lowMag, highMag,
		lowMag, highMag, lowMag, lowMag,
		lowMag, lowMag, lowMag, lowMag,
	}
}

// bitMagnitudes PPM-encodes a single bit as its two half-bit chips.
func bitMagnitudes(bit byte) (Magnitude, Magnitude) {
	if bit == 1 {
		return highMag, lowMag
	}
	return lowMag, highMag
}

// synthesizeFrame builds a ringSize-length magnitude stream: the
// preamble followed by raw's bits PPM-encoded, padded with low noise
// out to a full long frame's worth of data chips so the stream is
// always exactly ringSize long regardless of the frame's real length.
// Feeding this stream through a fresh Demodulator's ring buffer
// triggers exactly one preamble match, aligned so the bit slicer reads
// back precisely the bits encoded here.
func synthesizeFrame(t *testing.T, raw []byte) []Magnitude {
	t.Helper()

	stream := make([]Magnitude, 0, ringSize)
	stream = append(stream, preambleMagnitudes()...)

	bits := len(raw) * 8
	for b := 0; b < LongFrameBits; b++ {
		var s0, s1 Magnitude
		if b < bits {
			byteVal := raw[b/8]
			bit := (byteVal >> (7 - uint(b%8))) & 1
			s0, s1 = bitMagnitudes(bit)
		} else {
			s0, s1 = lowMag, lowMag
		}
		stream = append(stream, s0, s1)
	}

	if len(stream) != ringSize {
		t.Fatalf("synthesizeFrame: produced %d magnitudes, want %d", len(stream), ringSize)
	}
	return stream
}

// synthesizeFrameHex is synthesizeFrame for a hex-encoded frame.
func synthesizeFrameHex(t *testing.T, frameHex string) []Magnitude {
	t.Helper()

	raw, err := hex.DecodeString(frameHex)
	if err != nil {
		t.Fatalf("synthesizeFrameHex: invalid hex %q: %v", frameHex, err)
	}
	return synthesizeFrame(t, raw)
}

// buildPIFrame appends a checksum computed by the engine under test to
// payload, producing a frame with a guaranteed-zero syndrome: a PI-class
// frame (DF11/DF17/DF18 CF=0) carrying its address in the clear.
func buildPIFrame(t *testing.T, payload []byte) []byte {
	t.Helper()

	frame := make([]byte, len(payload)+3)
	copy(frame, payload)

	crc := Checksum(frame)
	frame[len(frame)-3] = byte(crc >> 16)
	frame[len(frame)-2] = byte(crc >> 8)
	frame[len(frame)-1] = byte(crc)
	return frame
}

// buildAPFrame builds an address-parity frame whose syndrome, once
// decoded, recovers exactly icao: the transmitted parity is the
// engine's own checksum of payload XORed with icao.
func buildAPFrame(t *testing.T, payload []byte, icao uint32) []byte {
	t.Helper()

	frame := make([]byte, len(payload)+3)
	copy(frame, payload)

	crc := Checksum(frame) ^ (icao & 0xFFFFFF)
	frame[len(frame)-3] = byte(crc >> 16)
	frame[len(frame)-2] = byte(crc >> 8)
	frame[len(frame)-1] = byte(crc)
	return frame
}

// feedFrame drives d's ring buffer with a synthesized stream for raw.
// The caller installs its own onFrame handler (via NewDemodulator) to
// observe what, if anything, was emitted.
func feedFrame(t *testing.T, d *Demodulator, raw []byte) {
	t.Helper()

	for _, mag := range synthesizeFrame(t, raw) {
		d.processMagnitude(mag)
	}
}
