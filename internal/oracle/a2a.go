package oracle

import (
	"context"
	"fmt"
	"time"

	"github.com/dusk-indust/transmute/internal/a2a"
)

// DefaultPollInterval is the wait between tasks/get calls while a remote
// task is still running.
const DefaultPollInterval = 2 * time.Second

// A2A delegates generation to a remote agent. The prompt is sent as one
// text message and the reply is the text of the finished task.
type A2A struct {
	client   a2a.Client
	endpoint string
	poll     time.Duration
}

// NewA2A creates an oracle that calls the agent at endpoint.
func NewA2A(client a2a.Client, endpoint string) *A2A {
	return &A2A{client: client, endpoint: endpoint, poll: DefaultPollInterval}
}

// Invoke sends prompt with message/send. Agents that answer before the task
// is finished are polled with tasks/get until it reaches a final state.
func (o *A2A) Invoke(ctx context.Context, prompt string) (string, error) {
	task, err := o.client.SendMessage(ctx, o.endpoint, a2a.SendMessageRequest{
		Message: a2a.NewTextMessage(prompt),
	})
	if err != nil {
		return "", fmt.Errorf("oracle: a2a: %w", err)
	}

	for !task.Status.State.IsTerminal() {
		if task.Status.State == a2a.TaskStateInputRequired {
			return "", fmt.Errorf("oracle: a2a: task %s needs input: %s", task.ID, a2a.TaskText(task))
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(o.poll):
		}
		task, err = o.client.GetTask(ctx, o.endpoint, a2a.GetTaskRequest{ID: task.ID})
		if err != nil {
			return "", fmt.Errorf("oracle: a2a: poll task: %w", err)
		}
	}

	switch task.Status.State {
	case a2a.TaskStateFailed, a2a.TaskStateRejected, a2a.TaskStateCanceled:
		return "", fmt.Errorf("oracle: a2a: task %s %s: %s", task.ID, task.Status.State, a2a.TaskText(task))
	}

	text := a2a.TaskText(task)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
