package supervisor

// Capacity returns how many new jobs may be dispatched given the configured
// cap and the number of jobs currently running. Never negative.
func Capacity(maxConcurrent, running int) int {
	capacity := maxConcurrent - running
	if capacity < 0 {
		return 0
	}
	return capacity
}
