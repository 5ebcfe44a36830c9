package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// New builds the process logger. Development environments get human-readable
// text output; everything else logs JSON.
func New(level, format string, development bool) *logrus.Logger {
	return NewWithOutput(os.Stdout, level, format, development)
}

func NewWithOutput(out io.Writer, level, format string, development bool) *logrus.Logger {
	log := logrus.New()
	log.Out = out

	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	case "text":
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		if development || lvl >= logrus.DebugLevel {
			log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		} else {
			log.SetFormatter(&logrus.JSONFormatter{})
		}
	}

	return log
}

// Discard returns a logger that drops everything; handy for tests.
func Discard() *logrus.Logger {
	log := logrus.New()
	log.Out = io.Discard
	return log
}
