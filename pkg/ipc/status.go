package ipc

// Status is the binary outcome of a handle operation.
type Status int

const (
	// Success means the operation completed.
	Success Status = 0
	// Failure means the operation failed for any reason.
	Failure Status = -1
)

func (s Status) String() string {
	if s == Success {
		return "success"
	}
	return "failure"
}

// StatusOf collapses err into Success or Failure.
func StatusOf(err error) Status {
	if err != nil {
		return Failure
	}
	return Success
}
