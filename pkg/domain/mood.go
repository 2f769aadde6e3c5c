package domain

import "time"

// Valid mood labels, best to worst.
var Moods = []string{"great", "good", "okay", "low", "bad"}

// MoodEntry is one logged mood check-in.
type MoodEntry struct {
	ID        ID        `json:"id,omitempty"`
	Mood      string    `json:"mood" validate:"required,oneof=great good okay low bad"`
	Score     int       `json:"score" validate:"required,min=1,max=10"`
	Note      string    `json:"note,omitempty" validate:"max=500"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// DefaultMoodScore maps a mood label onto the 1..10 score scale.
func DefaultMoodScore(mood string) int {
	switch mood {
	case "great":
		return 9
	case "good":
		return 7
	case "okay":
		return 5
	case "low":
		return 3
	case "bad":
		return 1
	}
	return 0
}
