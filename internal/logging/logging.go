// Package logging centralizes the structured logger every component pulls
// a scoped *logrus.Entry from, the same way the teacher's backends each
// hold a named logger rather than calling a package-level log function
// directly.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

var root = newRoot()

func newRoot() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// SetLevel adjusts the root logger's verbosity, typically from a --verbose
// or --debug flag in cmd/ultrasearchd.
func SetLevel(level logrus.Level) {
	root.SetLevel(level)
}

// For returns a logger scoped to a component, e.g. For("usn-tailer").
func For(component string) *logrus.Entry {
	return root.WithField("component", component)
}
