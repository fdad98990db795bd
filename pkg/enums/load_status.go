package enums

// LoadStatus is the lifecycle phase of an asynchronously loaded value.
type LoadStatus string

const (
	LoadStatusIdle    LoadStatus = "idle"
	LoadStatusLoading LoadStatus = "loading"
	LoadStatusSuccess LoadStatus = "success"
	LoadStatusError   LoadStatus = "error"
)

// String implements fmt.Stringer.
func (s LoadStatus) String() string {
	return string(s)
}

// Settled reports whether the status is terminal for a load attempt.
func (s LoadStatus) Settled() bool {
	return s == LoadStatusSuccess || s == LoadStatusError
}
