package model

// Channel is a sending channel (a connected device/number) the user can
// broadcast from. Score is the channel's trust score in [0,100]; the daily
// send quota is derived from it.
type Channel struct {
	ID    string  `db:"id" json:"id"`
	Label string  `db:"label" json:"label"`
	Type  string  `db:"type" json:"type"`
	Score float64 `db:"score" json:"score"`
}
