//go:build !linux && !darwin && !windows

package sysclip

// New returns an in-memory clipboard; this platform has no native backend.
func New() Backend { return NewMemory() }
