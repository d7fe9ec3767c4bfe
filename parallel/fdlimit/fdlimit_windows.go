package fdlimit

// Raise is a no-op on Windows.
func Raise() error { return nil }
