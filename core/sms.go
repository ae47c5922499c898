package core

import "context"

type (
	// SMSMessage is one text sent to every recipient in To.
	SMSMessage struct {
		To   []string
		Body string
	}

	// SMSService is any service that can deliver group text messages.
	SMSService interface {
		// Send delivers msg in a single batched call.
		Send(ctx context.Context, msg SMSMessage) error
	}
)
