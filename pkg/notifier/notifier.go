// Turns expiration events into emails and hands them to a mail transport
package notifier

import (
	"context"
	"errors"
	"fmt"

	"github.com/function61/certwatch/pkg/expirypolicy"
)

type Message struct {
	From    string
	To      []string
	Subject string
	Body    string
}

// delivers a fully formed message. implementations don't retry
type Transport interface {
	Send(ctx context.Context, msg Message) error
}

type Config struct {
	Sender     string
	Recipients []string
}

type Notifier struct {
	conf      Config
	transport Transport
}

func New(conf Config, transport Transport) (*Notifier, error) {
	if conf.Sender == "" {
		return nil, errors.New("sender address not set")
	}

	if len(conf.Recipients) == 0 {
		return nil, errors.New("no recipients")
	}

	return &Notifier{conf, transport}, nil
}

// does nothing for NoAction
func (n *Notifier) Notify(ctx context.Context, certName string, event expirypolicy.Event) error {
	if !event.ShouldNotify() {
		return nil
	}

	subject, body := Format(certName, event)

	if err := n.transport.Send(ctx, Message{
		From:    n.conf.Sender,
		To:      n.conf.Recipients,
		Subject: subject,
		Body:    body,
	}); err != nil {
		return &DeliveryError{subject, err}
	}

	return nil
}

// subject and body for an event. NoAction yields empty strings
func Format(certName string, event expirypolicy.Event) (string, string) {
	switch event.Kind {
	case expirypolicy.Expired:
		return "Certificate expired : " + certName,
			fmt.Sprintf("The certificate \"%s\" has expired %d days ago. Regenerate if used.", certName, event.Days)
	case expirypolicy.ExpiringToday:
		return "Certificate will expire today : " + certName,
			fmt.Sprintf("The certificate \"%s\" will expire today. Regenerate if used.", certName)
	case expirypolicy.ExpiringIn:
		return fmt.Sprintf("Certificate expiration in %d : %s", event.Days, certName),
			fmt.Sprintf("The certificate \"%s\" will expire in %d days. Remember to regenerate it.", certName, event.Days)
	default:
		return "", ""
	}
}

type DeliveryError struct {
	Subject string
	Err     error
}

func (d *DeliveryError) Error() string {
	return fmt.Sprintf("deliver \"%s\": %v", d.Subject, d.Err)
}

func (d *DeliveryError) Unwrap() error {
	return d.Err
}
