package contract

import "context"

// UnsubscribeStore remembers e-mail addresses that opted out of mention
// notifications. The notifier checks it before every send.
type UnsubscribeStore interface {
	Unsubscribe(ctx context.Context, address string) error
	Resubscribe(ctx context.Context, address string) error
	IsUnsubscribed(ctx context.Context, address string) (bool, error)
}
