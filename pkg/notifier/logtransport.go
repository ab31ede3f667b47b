package notifier

import (
	"context"
	"log"
	"strings"

	"github.com/function61/gokit/logex"
)

// only logs what would have been sent. for trying out configuration
type Log struct {
	logl *logex.Leveled
}

var _ Transport = (*Log)(nil)

func NewLog(logger *log.Logger) *Log {
	return &Log{logex.Levels(logger)}
}

func (l *Log) Send(_ context.Context, msg Message) error {
	l.logl.Info.Printf("to=%s subject=%q body=%q", strings.Join(msg.To, ","), msg.Subject, msg.Body)

	return nil
}
