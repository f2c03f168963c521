// Package notify delivers ranking updates to subscribed clients and announces
// leader changes on a connectionless broadcast channel.
package notify

import "fmt"

// Update is pushed to every subscriber of City when its ranking changes.
type Update struct {
	City   string   `json:"city"`
	Hotels []string `json:"hotels"`
}

// LeaderChange is announced whenever the first-ranked hotel of a city changes.
type LeaderChange struct {
	City string `json:"city"`
	Old  string `json:"old"`
	New  string `json:"new"`
}

// Message renders the announcement payload sent on the broadcast channel.
func (lc LeaderChange) Message() string {
	return fmt.Sprintf("Notifica evento: aggiornamento prima posizione a %s\n%s -> %s (NEW)", lc.City, lc.Old, lc.New)
}
