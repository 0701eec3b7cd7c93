package recommend

import "fmt"

// Features are the standardized skill dimensions compared between players,
// in vector order. Passing is derived; every other feature is read from the
// attribute snapshot.
var Features = [...]string{ //nolint:gochecknoglobals // fixed feature layout
	"overall_rating", "potential", "crossing", "finishing", "heading_accuracy",
	"short_passing", "volleys", "dribbling", "curve", "free_kick_accuracy",
	"long_passing", "ball_control", "acceleration", "sprint_speed",
	"agility", "reactions", "balance", "shot_power", "jumping",
	"stamina", "strength", "long_shots", "aggression", "interceptions",
	"positioning", "passing", "vision", "penalties", "marking",
	"standing_tackle", "sliding_tackle",
}

// Derived feature inputs.
const (
	FeaturePassing      = "passing"
	FeatureShortPassing = "short_passing"
	FeatureLongPassing  = "long_passing"
)

// Player is a row of the identity table.
type Player struct {
	ID   int64
	Name string
}

// Label is the searchable "<name> - <id>" form of a player.
func (p Player) Label() string {
	return fmt.Sprintf("%s - %d", p.Name, p.ID)
}

// Snapshot is one dated attribute record. Skills absent from the map, or
// NaN, are missing.
type Snapshot struct {
	PlayerID      int64
	Date          string
	PreferredFoot string
	Skills        map[string]float64
}

// Recommendation is one ranked similar player.
type Recommendation struct {
	PlayerID      int64   `json:"player_id"`
	Name          string  `json:"name"`
	OverallRating float64 `json:"overall_rating"`
	Potential     float64 `json:"potential"`
	PreferredFoot string  `json:"preferred_foot"`
	Score         float64 `json:"score"`
}
