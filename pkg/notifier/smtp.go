package notifier

import (
	"context"
	"net"
	"net/smtp"
)

// relays through an SMTP server. STARTTLS is used when the server offers it.
// auth is optional: leave username empty for an unauthenticated relay
type SMTP struct {
	addr     string // "host:port"
	username string
	password string
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

var _ Transport = (*SMTP)(nil)

func NewSMTP(addr string, username string, password string) *SMTP {
	return &SMTP{addr, username, password, smtp.SendMail}
}

func (s *SMTP) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if s.username != "" {
		host, _, err := net.SplitHostPort(s.addr)
		if err != nil {
			return err
		}

		auth = smtp.PlainAuth("", s.username, s.password, host)
	}

	return s.sendMail(s.addr, auth, msg.From, msg.To, msg.Render())
}
