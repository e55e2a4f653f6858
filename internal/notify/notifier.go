// Package notify is the outbound notification collaborator. The identity
// service treats delivery as fire-and-forget: a failure surfaces as its own
// error kind and is never folded into a user-lookup result.
package notify

import "context"

// Notifier delivers a message to a recipient address.
type Notifier interface {
	Send(ctx context.Context, to string, subject string, body string) error
}
