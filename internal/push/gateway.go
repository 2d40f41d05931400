package push

import (
	"context"
)

type Priority int

const (
	PriorityNormal Priority = iota
	PriorityHigh
)

func (p Priority) String() string {
	if p == PriorityHigh {
		return "high"
	}
	return "normal"
}

type MulticastMessage struct {
	Tokens   []string
	Title    string
	Body     string
	Data     map[string]string
	Priority Priority
}

// BatchResult summarises one multicast. Per-token failures are reported here,
// not as an error; the error return is reserved for the request as a whole.
type BatchResult struct {
	SuccessCount  int
	FailureCount  int
	InvalidTokens []string
}

type Gateway interface {
	SendMulticast(ctx context.Context, msg *MulticastMessage) (*BatchResult, error)
}
