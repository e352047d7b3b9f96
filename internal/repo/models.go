// Package repo persists the bot's editable state: the info/contact settings
// shown to users and the list of groups the bot posts to.
package repo

import "time"

// Interval bounds, in minutes, accepted for global and per-group posting.
const (
	MinIntervalMinutes     = 1
	MaxIntervalMinutes     = 1440
	DefaultIntervalMinutes = 5
)

// BotSettings is the single settings record edited from the admin panel.
type BotSettings struct {
	InfoName          string    `json:"info_name,omitempty"`
	InfoChannel       string    `json:"info_channel,omitempty"`
	InfoGroup         string    `json:"info_group,omitempty"`
	WelcomeMessage    string    `json:"welcome_message,omitempty"`
	Contact           string    `json:"contact,omitempty"`
	GlobalIntervalMin int       `json:"global_interval_min"`
	UpdatedAt         time.Time `json:"updated_at,omitzero"`
}

// Group is a chat the bot posts to. ChatID is either a numeric chat id or an
// @username.
type Group struct {
	ChatID             string    `json:"-"`
	Username           string    `json:"username,omitempty"`
	Name               string    `json:"name,omitempty"`
	CustomIntervalMin  *int      `json:"custom_interval_min"`
	ExcludedFromGlobal bool      `json:"excluded_from_global"`
	CreatedAt          time.Time `json:"created_at,omitzero"`
	UpdatedAt          time.Time `json:"updated_at,omitzero"`
}

// Interval returns the group's posting interval in minutes, falling back to global.
func (g Group) Interval(global int) int {
	if g.CustomIntervalMin != nil {
		return *g.CustomIntervalMin
	}
	return global
}

func validInterval(minutes int) bool {
	return minutes >= MinIntervalMinutes && minutes <= MaxIntervalMinutes
}
