package metrics

import "time"

// SyscallMetrics provides observability for the system-call layer.
//
// This interface is optional. A kernel built without one uses the no-op
// implementation.
type SyscallMetrics interface {
	// RecordSyscall records a completed call.
	//
	// Parameters:
	//   - name: Call name (e.g., "open", "read", "dup2")
	//   - duration: Time spent in the call, including rate-limit waits
	//   - err: Error returned to the process, nil on success
	RecordSyscall(name string, duration time.Duration, err error)

	// RecordBytes records bytes moved by read or write.
	//
	// Parameters:
	//   - direction: "read" or "write"
	//   - bytes: Number of bytes transferred
	RecordBytes(direction string, bytes int64)

	// HandleOpened increments the open-file handle gauge.
	HandleOpened()

	// HandleClosed decrements the open-file handle gauge.
	HandleClosed()
}

type noopSyscallMetrics struct{}

// NewNoopSyscallMetrics returns a SyscallMetrics that records nothing.
func NewNoopSyscallMetrics() SyscallMetrics {
	return noopSyscallMetrics{}
}

func (noopSyscallMetrics) RecordSyscall(string, time.Duration, error) {}
func (noopSyscallMetrics) RecordBytes(string, int64)                  {}
func (noopSyscallMetrics) HandleOpened()                              {}
func (noopSyscallMetrics) HandleClosed()                              {}
