package model

import "time"

// Section kinds of a generated plan, in the order they render.
const (
	SectionOverview  = "overview"
	SectionFeatures  = "features"
	SectionTechStack = "tech_stack"
	SectionTasks     = "tasks"
	SectionDiagrams  = "diagrams"
	SectionDocs      = "docs"
)

func SectionKinds() []string {
	return []string{
		SectionOverview,
		SectionFeatures,
		SectionTechStack,
		SectionTasks,
		SectionDiagrams,
		SectionDocs,
	}
}

// PlanRecord is a planning project owned by one user. Version points at the
// latest generated PlanVersion; regeneration bumps it.
type PlanRecord struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Brief     string    `json:"brief"`
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PlanVersion holds one generation run. Section content is stored as the raw
// generated text; consumers decode it leniently and fall back to the literal
// text when it is not valid JSON.
type PlanVersion struct {
	PlanID    string            `json:"plan_id"`
	Version   int               `json:"version"`
	Sections  map[string]string `json:"sections"`
	CreatedAt time.Time         `json:"created_at"`
}

type PresenceUser struct {
	UserID   string `json:"userId"`
	FullName string `json:"fullName,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
}
