package event

type Type string

const (
	TypePlanCreated      Type = "plan.created"
	TypePlanRegenerated  Type = "plan.regenerated"
	TypePlanDeleted      Type = "plan.deleted"
	TypeThinkingStatus   Type = "ai.thinking"
	TypeGenerationFailed Type = "ai.failed"
)

type Event struct {
	ID        string      `json:"id"`
	Type      Type        `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp string      `json:"timestamp"`
	ActorID   string      `json:"actor_id,omitempty"` // Who triggered the event
}

type Bus interface {
	Publish(e Event)
	Subscribe() (<-chan Event, func()) // Returns channel and unsubscribe function
}
