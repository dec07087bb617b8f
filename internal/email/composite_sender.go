package email

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoSenders is returned by a CompositeEmailSender with nothing to deliver through.
var ErrNoSenders = errors.New("no email senders configured")

// CompositeEmailSender fans one message out to several senders, e.g. SMTP plus the
// LOG_EMAILS file copy. Every sender is attempted even when an earlier one fails.
type CompositeEmailSender struct {
	senders []Sender
}

func NewCompositeEmailSender(senders ...Sender) *CompositeEmailSender {
	cs := &CompositeEmailSender{}
	for _, s := range senders {
		cs.AddSender(s)
	}
	return cs
}

// AddSender ignores nil senders.
func (cs *CompositeEmailSender) AddSender(sender Sender) {
	if sender != nil {
		cs.senders = append(cs.senders, sender)
	}
}

func (cs *CompositeEmailSender) Send(ctx context.Context, to []string, subject string, rawMessage []byte) error {
	if len(cs.senders) == 0 {
		return ErrNoSenders
	}

	var errs []error
	for i, sender := range cs.senders {
		if err := sender.Send(ctx, to, subject, rawMessage); err != nil {
			errs = append(errs, fmt.Errorf("sender %d (%T): %w", i, sender, err))
		}
	}
	return errors.Join(errs...)
}
