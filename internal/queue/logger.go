package queue

import (
	"fmt"
	"log/slog"
	"os"
)

// Logger routes asynq's internal logging through slog.
type Logger struct {
	l *slog.Logger
}

func NewLogger(l *slog.Logger) *Logger {
	return &Logger{l: l.With("component", "asynq")}
}

func (l *Logger) Debug(args ...any) { l.l.Debug(fmt.Sprint(args...)) }
func (l *Logger) Info(args ...any)  { l.l.Info(fmt.Sprint(args...)) }
func (l *Logger) Warn(args ...any)  { l.l.Warn(fmt.Sprint(args...)) }
func (l *Logger) Error(args ...any) { l.l.Error(fmt.Sprint(args...)) }

func (l *Logger) Fatal(args ...any) {
	l.l.Error(fmt.Sprint(args...))
	os.Exit(1)
}
