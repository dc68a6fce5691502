package sim

import (
	"fmt"
	"log"
	"strings"
)

// LogHookBase is embedded by hooks that write one line per hooked
// occurrence. Every line starts with the simulated time in microseconds.
type LogHookBase struct {
	Logger    *log.Logger
	Separator string
}

// NewLogHookBase creates a LogHookBase that separates fields with sep.
func NewLogHookBase(logger *log.Logger, sep string) LogHookBase {
	return LogHookBase{Logger: logger, Separator: sep}
}

// LogAt writes the fields as one line stamped with now.
func (h LogHookBase) LogAt(now VTimeInUs, fields ...any) {
	var b strings.Builder

	fmt.Fprintf(&b, "%.6f", float64(now))
	for _, f := range fields {
		b.WriteString(h.Separator)
		fmt.Fprint(&b, f)
	}

	h.Logger.Println(b.String())
}
