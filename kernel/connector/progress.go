package connector

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// Progress is a write-only sink for human-readable status lines emitted during
// provisioning and teardown. Lines are for the user's tailed log, not for
// machine parsing.
type Progress interface {
	Printf(format string, args ...interface{})
}

type writerProgress struct {
	w io.Writer
}

// NewWriterProgress reports progress as lines on w.
func NewWriterProgress(w io.Writer) Progress {
	return &writerProgress{w: w}
}

func (p *writerProgress) Printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(p.w, format+"\n", args...)
}

type logrusProgress struct {
	entry *logrus.Entry
}

// NewLogrusProgress reports progress through the process log.
func NewLogrusProgress(entry *logrus.Entry) Progress {
	return &logrusProgress{entry: entry}
}

func (p *logrusProgress) Printf(format string, args ...interface{}) {
	p.entry.Infof(format, args...)
}
