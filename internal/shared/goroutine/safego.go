// Package goroutine launches background work that must never take the
// process down with it.
package goroutine

import (
	"fmt"
	"runtime/debug"

	"atrium/internal/shared/logger"
)

// SafeGo runs fn on its own goroutine and converts a panic into an error log
// with the stack attached. name identifies the task in the log line.
func SafeGo(log logger.Interface, name string, fn func()) {
	if log == nil {
		log = logger.NewLogger()
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Errorw("background task panicked",
					"task", name,
					"panic", fmt.Sprintf("%v", r),
					"stack", string(debug.Stack()),
				)
			}
		}()
		fn()
	}()
}
