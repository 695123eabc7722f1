package recurrence

import "github.com/gtn1024/puratodo-sub001/pkg/errutil"

// Scope selects which occurrences a recurrence edit reaches.
type Scope string

const (
	ScopeSingle Scope = "single"
	ScopeFuture Scope = "future"
)

// ParseScope validates a recurrence_update_scope value taken from a request
// body. Callers pass it only when the key is present.
func ParseScope(v any) (Scope, error) {
	if s, ok := v.(string); ok {
		switch Scope(s) {
		case ScopeSingle, ScopeFuture:
			return Scope(s), nil
		}
	}
	return "", errutil.BadRequest("recurrence_update_scope must be one of: single, future", nil)
}
