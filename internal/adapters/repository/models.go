package repository

import (
	"github.com/okian/scoutlab/internal/domain/recommend"
)

// playerRow maps the identity table.
type playerRow struct {
	ID          int64  `gorm:"column:id;primaryKey"`
	PlayerAPIID int64  `gorm:"column:player_api_id;index"`
	PlayerName  string `gorm:"column:player_name"`
}

func (playerRow) TableName() string { return "Player" }

// attributeRow maps one dated attribute snapshot. Every skill is nullable.
type attributeRow struct {
	ID               int64    `gorm:"column:id;primaryKey"`
	PlayerAPIID      int64    `gorm:"column:player_api_id;index"`
	Date             string   `gorm:"column:date"`
	PreferredFoot    *string  `gorm:"column:preferred_foot"`
	OverallRating    *float64 `gorm:"column:overall_rating"`
	Potential        *float64 `gorm:"column:potential"`
	Crossing         *float64 `gorm:"column:crossing"`
	Finishing        *float64 `gorm:"column:finishing"`
	HeadingAccuracy  *float64 `gorm:"column:heading_accuracy"`
	ShortPassing     *float64 `gorm:"column:short_passing"`
	Volleys          *float64 `gorm:"column:volleys"`
	Dribbling        *float64 `gorm:"column:dribbling"`
	Curve            *float64 `gorm:"column:curve"`
	FreeKickAccuracy *float64 `gorm:"column:free_kick_accuracy"`
	LongPassing      *float64 `gorm:"column:long_passing"`
	BallControl      *float64 `gorm:"column:ball_control"`
	Acceleration     *float64 `gorm:"column:acceleration"`
	SprintSpeed      *float64 `gorm:"column:sprint_speed"`
	Agility          *float64 `gorm:"column:agility"`
	Reactions        *float64 `gorm:"column:reactions"`
	Balance          *float64 `gorm:"column:balance"`
	ShotPower        *float64 `gorm:"column:shot_power"`
	Jumping          *float64 `gorm:"column:jumping"`
	Stamina          *float64 `gorm:"column:stamina"`
	Strength         *float64 `gorm:"column:strength"`
	LongShots        *float64 `gorm:"column:long_shots"`
	Aggression       *float64 `gorm:"column:aggression"`
	Interceptions    *float64 `gorm:"column:interceptions"`
	Positioning      *float64 `gorm:"column:positioning"`
	Vision           *float64 `gorm:"column:vision"`
	Penalties        *float64 `gorm:"column:penalties"`
	Marking          *float64 `gorm:"column:marking"`
	StandingTackle   *float64 `gorm:"column:standing_tackle"`
	SlidingTackle    *float64 `gorm:"column:sliding_tackle"`
}

func (attributeRow) TableName() string { return "Player_Attributes" }

func (r *playerRow) toPlayer() recommend.Player {
	return recommend.Player{ID: r.PlayerAPIID, Name: r.PlayerName}
}

func (r *attributeRow) toSnapshot() recommend.Snapshot {
	s := recommend.Snapshot{
		PlayerID: r.PlayerAPIID,
		Date:     r.Date,
		Skills:   make(map[string]float64, len(recommend.Features)),
	}
	if r.PreferredFoot != nil {
		s.PreferredFoot = *r.PreferredFoot
	}
	for name, v := range map[string]*float64{
		"overall_rating":     r.OverallRating,
		"potential":          r.Potential,
		"crossing":           r.Crossing,
		"finishing":          r.Finishing,
		"heading_accuracy":   r.HeadingAccuracy,
		"short_passing":      r.ShortPassing,
		"volleys":            r.Volleys,
		"dribbling":          r.Dribbling,
		"curve":              r.Curve,
		"free_kick_accuracy": r.FreeKickAccuracy,
		"long_passing":       r.LongPassing,
		"ball_control":       r.BallControl,
		"acceleration":       r.Acceleration,
		"sprint_speed":       r.SprintSpeed,
		"agility":            r.Agility,
		"reactions":          r.Reactions,
		"balance":            r.Balance,
		"shot_power":         r.ShotPower,
		"jumping":            r.Jumping,
		"stamina":            r.Stamina,
		"strength":           r.Strength,
		"long_shots":         r.LongShots,
		"aggression":         r.Aggression,
		"interceptions":      r.Interceptions,
		"positioning":        r.Positioning,
		"vision":             r.Vision,
		"penalties":          r.Penalties,
		"marking":            r.Marking,
		"standing_tackle":    r.StandingTackle,
		"sliding_tackle":     r.SlidingTackle,
	} {
		if v != nil {
			s.Skills[name] = *v
		}
	}
	return s
}
