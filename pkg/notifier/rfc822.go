package notifier

import (
	"bytes"
	"mime"
	"strings"
)

// plaintext message with headers, as sendmail and SMTP servers want it.
// Date and Message-ID are left for the MTA to fill.
func (m Message) Render() []byte {
	buf := &bytes.Buffer{}

	header := func(key string, value string) {
		buf.WriteString(key + ": " + value + "\r\n")
	}

	header("From", m.From)
	header("To", strings.Join(m.To, ", "))
	header("Subject", mime.QEncoding.Encode("utf-8", m.Subject))
	header("MIME-Version", "1.0")
	header("Content-Type", "text/plain; charset=utf-8")
	header("Content-Transfer-Encoding", "8bit")
	buf.WriteString("\r\n")

	buf.WriteString(strings.ReplaceAll(m.Body, "\n", "\r\n"))
	buf.WriteString("\r\n")

	return buf.Bytes()
}
