package fault

import "strings"

// Classify determines the kind of an arbitrary error. Declared kinds win;
// errors arriving from less-structured boundaries (drivers, collaborators)
// are matched on message text. The substring table is the single place this
// fallback lives.
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	if kind, ok := KindOf(err); ok {
		return kind
	}

	msg := strings.ToLower(err.Error())

	switch {
	case containsAny(msg, "network", "timeout", "timed out", "connection", "unreachable", "temporarily unavailable"):
		return KindNetwork
	case containsAny(msg, "permission", "unauthorized", "forbidden", "access denied"):
		return KindPermission
	case containsAny(msg, "required", "invalid", "malformed", "must be", "out of range"):
		return KindValidation
	case containsAny(msg, "not found", "no such", "does not exist", "missing"):
		return KindData
	case containsAny(msg, "sync", "conflict", "stale"):
		return KindSync
	default:
		return KindUnknown
	}
}

// Retryable reports the default retry policy for a kind: transient kinds
// retry, terminal kinds do not.
func Retryable(kind Kind) bool {
	switch kind {
	case KindNetwork, KindSync, KindUnknown:
		return true
	default:
		return false
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
