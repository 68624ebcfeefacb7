// Package mailer sends the few transactional emails the ledger needs:
// second-factor codes, password reset links and inactivity notices.
package mailer

import "context"

// Mailer delivers a plain-text email.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}
