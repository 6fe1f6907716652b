package resources

// Int returns a pointer to an int.
func Int(v int) *int {
	return &v
}

// String returns a pointer to a string.
func String(v string) *string {
	return &v
}

// Bool returns a pointer to a bool.
func Bool(v bool) *bool {
	return &v
}

// Float64 returns a pointer to a float64.
func Float64(v float64) *float64 {
	return &v
}

// Status returns a pointer to a TranscriptStatus.
func Status(v TranscriptStatus) *TranscriptStatus {
	return &v
}
