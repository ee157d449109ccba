// Package notification defines the outbound-email contract and the
// message payload exchanged over the message broker.
package notification

import "context"

// EmailMessage is the payload published to the notification queue. It
// contains everything a downstream consumer needs to deliver the mail
// without querying the primary database.
type EmailMessage struct {
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
}

// Gateway dispatches an email message. Send returns an error when the
// message could not be handed off; whether that error is fatal to the
// calling use case is the caller's decision, not the gateway's.
type Gateway interface {
	Send(ctx context.Context, msg EmailMessage) error
}
