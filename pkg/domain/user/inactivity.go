package user

import "time"

// Inactivity is the retention bucket of a user who has not logged in for a while.
type Inactivity int

const (
	// Active users need no action.
	Active Inactivity = iota
	// Reminder is sent after a year without login.
	Reminder
	// Warning is sent after eighteen months and announces the deletion date.
	Warning
	// Expired users have been inactive for two years and are deleted.
	Expired
)

// RetentionDays is how long an inactive account is kept before deletion.
const RetentionDays = 730

func (i Inactivity) String() string {
	switch i {
	case Reminder:
		return "reminder"
	case Warning:
		return "warning"
	case Expired:
		return "delete"
	default:
		return "active"
	}
}

// InactivityOf buckets a user by last login. The owner and users that never
// logged in are always Active.
func InactivityOf(role Role, lastLogin *time.Time, now time.Time) Inactivity {
	if role == RoleOwner || lastLogin == nil {
		return Active
	}
	switch {
	case lastLogin.Before(now.AddDate(-2, 0, 0)):
		return Expired
	case lastLogin.Before(now.AddDate(0, -18, 0)):
		return Warning
	case lastLogin.Before(now.AddDate(-1, 0, 0)):
		return Reminder
	default:
		return Active
	}
}

// DaysInactive is the number of whole days since lastLogin.
func DaysInactive(lastLogin, now time.Time) int {
	return int(now.Sub(lastLogin).Hours() / 24)
}
