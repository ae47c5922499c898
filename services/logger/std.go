package logsvc

import (
	"log"

	"github.com/MuhammadFarhanWebDeveloper/attendence-app/core"
)

// StdLogger only writes to a std logger. Used by the CLI and tests.
type StdLogger struct {
	std *log.Logger
}

var _ core.Logger = (*StdLogger)(nil)

func NewStdLogger(std *log.Logger) *StdLogger {
	return &StdLogger{std: std}
}

func printStd(std *log.Logger, level, msg string, args []interface{}) {
	std.Printf("%s: %s", level, msg)
	for _, arg := range args {
		std.Printf("\t%+v", arg)
	}
}

func (l StdLogger) Debug(msg string, args ...interface{}) { printStd(l.std, "DEBUG", msg, args) }
func (l StdLogger) Info(msg string, args ...interface{})  { printStd(l.std, "INFO", msg, args) }
func (l StdLogger) Warn(msg string, args ...interface{})  { printStd(l.std, "WARN", msg, args) }
func (l StdLogger) Error(msg string, args ...interface{}) { printStd(l.std, "ERROR", msg, args) }

func (l StdLogger) Fatal(msg string, args ...interface{}) {
	printStd(l.std, "FATAL", msg, args)
	l.std.Fatal(msg)
}
