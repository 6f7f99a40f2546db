package domain

// Level is a course difficulty.
type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
)

// Valid reports whether l is a known level.
func (l Level) Valid() bool {
	switch l {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
		return true
	}
	return false
}

// Course is static learning content identified by ModuleID.
type Course struct {
	ID                   string   `json:"id"`
	ModuleID             string   `json:"moduleId"`
	Title                string   `json:"title"`
	Description          string   `json:"description"`
	Level                Level    `json:"level"`
	EstimatedTimeMinutes int      `json:"estimatedTimeMinutes"`
	Objectives           []string `json:"objectives"`
	Content              string   `json:"content"`
	Tags                 []string `json:"tags"`
}
