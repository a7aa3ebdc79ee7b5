// Package quota decides whether a team may start a job and keeps the
// subscription counters that back that decision.
package quota

// Unlimited marks a limit that is never enforced.
const Unlimited = -1

// Mode selects how entitlements are resolved. It is fixed at startup.
type Mode int

const (
	// ModeUnmetered grants every team unlimited entitlements.
	ModeUnmetered Mode = iota
	// ModeMetered derives entitlements from the team's active subscription.
	ModeMetered
)

// ModeFromEnterprise maps the enterprise flag to a metering mode. Enterprise
// deployments sell plans, so they are metered.
func ModeFromEnterprise(enterprise bool) Mode {
	if enterprise {
		return ModeMetered
	}
	return ModeUnmetered
}

func (m Mode) Metered() bool {
	return m == ModeMetered
}

func (m Mode) String() string {
	switch m {
	case ModeUnmetered:
		return "unmetered"
	case ModeMetered:
		return "metered"
	}
	return "unknown"
}
