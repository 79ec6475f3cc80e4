package modes

// isPreamble evaluates the shape, high-spike-average and quiet-zone
// tests against the 16 samples starting at the ring's current cursor.
// It is called once per incoming sample.
func isPreamble(rb *ringBuffer) bool {
	b0 := rb.at(0)
	b1 := rb.at(1)
	b2 := rb.at(2)
	b3 := rb.at(3)
	b4 := rb.at(4)
	b5 := rb.at(5)
	b6 := rb.at(6)
	b7 := rb.at(7)
	b8 := rb.at(8)
	b9 := rb.at(9)

	// Shape test: four pulses at chips 0, 2, 7, 9; everything else low.
	if !(b0 > b1 && b1 < b2 && b2 > b3 && b3 < b0) {
		return false
	}
	if !(b4 < b0 && b5 < b0 && b6 < b0) {
		return false
	}
	if !(b7 > b8 && b8 < b9 && b9 > b6) {
		return false
	}

	// High-spike average test. The divisor is intentionally 6, not 4,
	// for slack.
	highAvg := (b0 + b2 + b7 + b9) / 6
	if !(b4 < highAvg && b5 < highAvg) {
		return false
	}

	// Quiet-zone test: chip 10 is unconstrained (it transitions).
	b11 := rb.at(11)
	b12 := rb.at(12)
	b13 := rb.at(13)
	b14 := rb.at(14)
	if !(b11 < highAvg && b12 < highAvg && b13 < highAvg && b14 < highAvg) {
		return false
	}

	return true
}
