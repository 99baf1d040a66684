package board

import (
	"fmt"

	"github.com/golang/glog"
)

// Logging convention in the `board` package:
// Info:
//     essential events for abnormal behavior. This level should be silent on normal operation,
//     with the exception of one time (infrequent) initialization data that is useful for monitoring
//     this includes:
//     - transport connectivity failures and reconnects
//     - rejected mutations
// Error:
//     unrecoverable crash details
//     this includes:
//     - unexpected panics even if handled and suppressed for partial operation
// V(2):
//     key events for trace debugging
//     this includes:
//     - key system events with tags that can be used to filter,
//       e.g. [t] transport, [c] cache, [m] mutation, [auth]

type LogFunction func(string, ...any)

// a verbose logger that prefixes every line with a filterable tag
func LogFn(tag string) LogFunction {
	return func(format string, a ...any) {
		if glog.V(2) {
			m := fmt.Sprintf(format, a...)
			glog.Infof("[%s]%s\n", tag, m)
		}
	}
}

func SubLogFn(log LogFunction, tag string) LogFunction {
	return func(format string, a ...any) {
		m := fmt.Sprintf(format, a...)
		log("[%s]%s", tag, m)
	}
}
