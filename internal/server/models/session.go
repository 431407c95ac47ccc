package models

import "time"

// Session is the single login slot of a user at a site.
type Session struct {
	ID         string
	SiteName   string
	Username   string
	Timezone   int
	ValidUntil time.Time
}

// AliveAt reports whether the session is still valid at now.
func (s Session) AliveAt(now time.Time) bool {
	return s.ValidUntil.After(now)
}
