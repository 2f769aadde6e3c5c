// Package boundary isolates panics in render paths and background jobs so
// one bad item or response cannot take the whole client down.
package boundary

import (
	"fmt"
	"runtime/debug"

	"github.com/naveenspark/haven/internal/logger"
)

// PanicError is a recovered panic.
type PanicError struct {
	Name  string
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("%s: panic: %v", e.Name, e.Value)
}

// Run calls fn and returns its error, or a *PanicError if it panicked.
func Run(name string, log logger.Logger, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			pe := &PanicError{Name: name, Value: r, Stack: debug.Stack()}
			if log != nil {
				log.Error("recovered panic",
					logger.String("op", name),
					logger.String("panic", fmt.Sprint(r)),
					logger.String("stack", string(pe.Stack)))
			}
			err = pe
		}
	}()
	return fn()
}

// Render calls fn and returns its output. If fn panics, fallback is called
// with the recovered error and its output is returned instead.
func Render(name string, log logger.Logger, fn func() string, fallback func(error) string) string {
	var out string
	err := Run(name, log, func() error {
		out = fn()
		return nil
	})
	if err != nil {
		return fallback(err)
	}
	return out
}
