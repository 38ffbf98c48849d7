package hermes

import "time"

// Conversation lifecycle subjects.
const (
	SubjectConversationStarted  = "procstop.conversation.started"
	SubjectConversationTurn     = "procstop.conversation.turn"
	SubjectRecommendationReady  = "procstop.conversation.recommendation_ready"
	SubjectConversationEnded    = "procstop.conversation.ended"
	SubjectConversationWildcard = "procstop.conversation.>"
)

// ConversationEvent is the payload of every conversation subject. Turn
// fields are zero on started and ended events.
type ConversationEvent struct {
	ConversationID string    `json:"conversation_id"`
	UserID         string    `json:"user_id"`
	Timestamp      time.Time `json:"timestamp"`
	Mode           string    `json:"mode,omitempty"`
	Turn           int       `json:"turn,omitempty"`
	Emotions       []string  `json:"emotions,omitempty"`
	Sentiment      string    `json:"sentiment,omitempty"`
	// Reason is set on ended events: "ended" or "idle".
	Reason string `json:"reason,omitempty"`
}
