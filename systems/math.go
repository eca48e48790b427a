package systems

// clampFloat clamps a float64 value between min and max.
func clampFloat(v, minVal, maxVal float64) float64 {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}

// clampInt clamps an int value between min and max.
func clampInt(v, minVal, maxVal int) int {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}

// wrapAxis maps a coordinate that left [-half, half] onto the opposite face.
func wrapAxis(v, half float64) float64 {
	if v < -half {
		return half
	}
	if v > half {
		return -half
	}
	return v
}
