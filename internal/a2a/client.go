// Package a2a is a client for agents that speak the A2A JSON-RPC protocol.
// Generation can be delegated to such an agent instead of a model API.
package a2a

import "context"

// Client sends work to remote A2A agents.
type Client interface {
	// SendMessage sends a message to an agent and returns the task.
	SendMessage(ctx context.Context, endpoint string, req SendMessageRequest) (*Task, error)

	// GetTask retrieves a task by ID, to follow one that was not finished
	// when SendMessage returned.
	GetTask(ctx context.Context, endpoint string, req GetTaskRequest) (*Task, error)
}
