package notifier

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

const DefaultSendmailPath = "/usr/sbin/sendmail"

// pipes the message to the local MTA's sendmail binary. recipients are read from
// the headers (-t), and a line with a single dot doesn't end the message (-oi)
type Sendmail struct {
	path string
}

var _ Transport = (*Sendmail)(nil)

func NewSendmail(path string) *Sendmail {
	if path == "" {
		path = DefaultSendmailPath
	}

	return &Sendmail{path}
}

func (s *Sendmail) Send(ctx context.Context, msg Message) error {
	stderr := &bytes.Buffer{}

	cmd := exec.CommandContext(ctx, s.path, "-t", "-oi")
	cmd.Stdin = bytes.NewReader(msg.Render())
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w: %s", s.path, err, strings.TrimSpace(stderr.String()))
	}

	return nil
}
