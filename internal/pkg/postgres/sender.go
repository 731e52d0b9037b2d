package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/airenas/async-api/pkg/messages"
	"github.com/airenas/go-app/pkg/goapp"
	"github.com/vgarvardt/gue/v5"
)

// Sender enqueues messages into postgres gue queues
type Sender struct {
	gc *gue.Client
}

// NewSender initializes gue sender
func NewSender(gc *gue.Client) (*Sender, error) {
	if gc == nil {
		return nil, fmt.Errorf("no gue client")
	}
	return &Sender{gc: gc}, nil
}

// SendMessage sends the message to queue, job type equals queue name
func (sender *Sender) SendMessage(ctx context.Context, msg messages.Message, queue string) error {
	goapp.Log.Debug().Str("queue", queue).Msg("Sending message")
	args, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("can't marshal msg: %w", err)
	}

	j := &gue.Job{
		Type:  queue,
		Queue: queue,
		Args:  args,
	}
	if err := sender.gc.Enqueue(ctx, j); err != nil {
		return fmt.Errorf("can't send msg to %s: %w", queue, err)
	}
	goapp.Log.Debug().Str("queue", queue).Str("jobID", j.ID.String()).Msg("Sent")
	return nil
}
