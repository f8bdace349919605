package logger

import (
	"strings"
	"sync/atomic"
)

// AlertFunc receives a formatted ERROR line together with its component name.
// Implementations must not block; the call happens on the logging goroutine.
type AlertFunc func(component string, line []byte)

var alertHook atomic.Pointer[AlertFunc]

// alertSkipPrefixes lists components whose errors are never forwarded.
// The alert sink itself logs under these names.
var alertSkipPrefixes = []string{"tg.sender", "tg.alert"}

// SetAlertHook installs fn as the receiver for ERROR records. Passing nil disables forwarding.
func SetAlertHook(fn AlertFunc) {
	if fn == nil {
		alertHook.Store(nil)
		return
	}
	alertHook.Store(&fn)
}

func forwardAlert(component string, line []byte) {
	hook := alertHook.Load()
	if hook == nil {
		return
	}
	for _, p := range alertSkipPrefixes {
		if strings.HasPrefix(component, p) {
			return
		}
	}
	cp := make([]byte, len(line))
	copy(cp, line)
	(*hook)(component, cp)
}
