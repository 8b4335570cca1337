package models

import "time"

type Difficulty int

const (
	Beginner Difficulty = iota
	Intermediate
	Advanced
	Expert
)

// DifficultyLevels lists all tiers in label order. The classifier's output
// index maps directly into this slice.
var DifficultyLevels = []Difficulty{Beginner, Intermediate, Advanced, Expert}

func (d Difficulty) String() string {
	switch d {
	case Beginner:
		return "beginner"
	case Intermediate:
		return "intermediate"
	case Advanced:
		return "advanced"
	case Expert:
		return "expert"
	default:
		return "unknown"
	}
}

// MarshalJSON converts Difficulty to JSON string
func (d Difficulty) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON converts JSON string to Difficulty
func (d *Difficulty) UnmarshalJSON(data []byte) error {
	// Remove quotes from JSON string
	str := string(data)
	if len(str) >= 2 && str[0] == '"' && str[len(str)-1] == '"' {
		str = str[1 : len(str)-1]
	}

	switch str {
	case "beginner":
		*d = Beginner
	case "intermediate":
		*d = Intermediate
	case "advanced":
		*d = Advanced
	case "expert":
		*d = Expert
	default:
		*d = Beginner // Default to Beginner for unknown values
	}
	return nil
}

type Issue struct {
	Id          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Difficulty  Difficulty `json:"difficulty"`
	Labels      []string   `json:"labels,omitempty"`
	CreatedAt   time.Time  `json:"created_at,omitempty"`
}

// DifficultyPrediction is the result of one classification call
type DifficultyPrediction struct {
	Tier        Difficulty `json:"difficulty"`
	Confidence  float64    `json:"confidence"` // softmax probability, 0-1
	ModelStatus string     `json:"model_status"`
}
