package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"tourney/internal/core"
)

// Action is the kind of write a mutation event reports.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// RoutingAll binds a queue to every mutation event.
const RoutingAll = "mutation.#"

// RoutingKey returns the topic routing key for writes to entity.
func RoutingKey(entity core.EntityType) string {
	return "mutation." + string(entity)
}

// MutationMessage announces a committed write. Record carries the entity as
// written (absent for deletes) so consumers need not read it back.
type MutationMessage struct {
	ID           string          `json:"id"`
	Entity       core.EntityType `json:"entity"`
	Action       Action          `json:"action"`
	EntityID     string          `json:"entity_id"`
	TournamentID string          `json:"tournament_id,omitempty"`
	Origin       string          `json:"origin"`
	Timestamp    time.Time       `json:"timestamp"`
	Record       json.RawMessage `json:"record,omitempty"`
}

// NewMutationMessage builds an event for a write made by origin.
func NewMutationMessage(origin string, entity core.EntityType, action Action, entityID, tournamentID string, record any) (*MutationMessage, error) {
	msg := &MutationMessage{
		ID:           uuid.NewString(),
		Entity:       entity,
		Action:       action,
		EntityID:     entityID,
		TournamentID: tournamentID,
		Origin:       origin,
		Timestamp:    time.Now().UTC(),
	}
	if record != nil && action != ActionDeleted {
		raw, err := json.Marshal(record)
		if err != nil {
			return nil, err
		}
		msg.Record = raw
	}
	return msg, nil
}

// ToJSON converts the message to JSON bytes
func (m *MutationMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// DecodeRecord unmarshals the carried record into v.
func (m *MutationMessage) DecodeRecord(v any) error {
	return json.Unmarshal(m.Record, v)
}

// MutationMessageFromJSON creates a message from JSON bytes
func MutationMessageFromJSON(data []byte) (*MutationMessage, error) {
	var msg MutationMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
