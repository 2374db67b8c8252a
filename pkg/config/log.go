package config

import (
	"fmt"
	"io"
	"os"
	"path"
	"runtime"

	"github.com/sirupsen/logrus"
)

// NamedLogger creates a package logger writing to stderr. Every message is
// prefixed with the package name and the calling file:line.
func NamedLogger(name string) *logrus.Logger {
	return &logrus.Logger{
		Out: os.Stderr,
		Formatter: &CallerTextFormatter{
			Name: name,
			TextFormatter: logrus.TextFormatter{
				DisableTimestamp: true,
			},
		},
		Hooks: make(logrus.LevelHooks),
		Level: logrus.InfoLevel,
	}
}

// ConfigureLogger applies the verbosity setting and output to a logger.
func ConfigureLogger(log *logrus.Logger, verbose bool, out io.Writer) {
	if out != nil {
		log.SetOutput(out)
	}
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.InfoLevel)
	}
}

// CallerTextFormatter prefixes each message with the logger name and call site.
type CallerTextFormatter struct {
	logrus.TextFormatter
	Name string
}

// Format renders a single log entry
func (f *CallerTextFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	if entry.HasCaller() {
		entry.Message = fmt.Sprintf("[%s %s:%03d] %s", f.Name, path.Base(entry.Caller.File), entry.Caller.Line, entry.Message)
	} else if _, file, no, ok := runtime.Caller(7); ok {
		entry.Message = fmt.Sprintf("[%s %s:%03d] %s", f.Name, path.Base(file), no, entry.Message)
	} else {
		entry.Message = fmt.Sprintf("[%s] %s", f.Name, entry.Message)
	}
	return f.TextFormatter.Format(entry)
}
