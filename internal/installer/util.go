package installer

import "time"

func nowISO8601() string {
	return time.Now().UTC().Format(time.RFC3339)
}
