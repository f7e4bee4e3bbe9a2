package sink

import (
	"fmt"
	"strings"
)

// UnsupportedTargetError is returned when a target name matches no store,
// or the store for the kind was not linked in.
type UnsupportedTargetError struct {
	Target string
}

func (e *UnsupportedTargetError) Error() string {
	return fmt.Sprintf("unsupported database type: %q", e.Target)
}

// ConfigError lists the settings a store needs but did not get. It is
// returned before any connection is attempted.
type ConfigError struct {
	Kind   Kind
	Fields []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s target is missing configuration: %s", e.Kind, strings.Join(e.Fields, ", "))
}

// SinkError wraps a failure reported by the store itself.
type SinkError struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *SinkError) Unwrap() error { return e.Err }

// Required returns a ConfigError naming every pair whose value is empty, or
// nil when all are set. Pairs are (name, value).
func Required(kind Kind, pairs ...string) error {
	var missing []string
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			missing = append(missing, pairs[i])
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &ConfigError{Kind: kind, Fields: missing}
}
