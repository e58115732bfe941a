package client

import (
	"context"
	"fmt"
)

// BackendState is what the status indicator shows.
type BackendState string

const (
	StateChecking BackendState = "checking"
	StateActive   BackendState = "active"
	StateDemo     BackendState = "demo"
)

// BackendStatus describes which upload path will be taken. Note explains demo mode.
type BackendStatus struct {
	State    BackendState
	Provider string
	Note     string
}

func (s BackendStatus) String() string {
	switch s.State {
	case StateActive:
		return fmt.Sprintf("active (%s)", s.Provider)
	case StateDemo:
		return "demo mode: " + s.Note
	default:
		return string(s.State)
	}
}

// Status resolves the indicator state for the current backend.
func (c *Client) Status(ctx context.Context) BackendStatus {
	if !c.Reachable() {
		return BackendStatus{
			State: StateDemo,
			Note:  fmt.Sprintf("backend %s is not reachable from %s, uploads are simulated", c.baseURL, c.contextHost),
		}
	}

	health, err := c.Health(ctx)
	if err != nil {
		return BackendStatus{
			State: StateDemo,
			Note:  fmt.Sprintf("backend health check failed (%v), uploads are simulated", err),
		}
	}
	if !health.ProviderInitialized {
		return BackendStatus{
			State:    StateDemo,
			Provider: health.Provider,
			Note:     "backend has no storage provider configured, uploads are simulated",
		}
	}
	return BackendStatus{State: StateActive, Provider: health.Provider}
}
