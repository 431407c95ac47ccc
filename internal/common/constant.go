package common

import "time"

// Domain bounds shared by the host, the sites and the repositories.
const (
	MinSiteName     = 1
	MaxSiteName     = 128
	MinUserName     = 3
	MaxUserName     = 64
	MinUserPassword = 4
	MinTimeZone     = -12
	MaxTimeZone     = 12
)

// DefaultSweepInterval is how often a loaded site purges expired sessions.
const DefaultSweepInterval = 300000 * time.Millisecond
