// Package participation defines the participation (voting and staking)
// event types the wallet caches per account.
package participation

import (
	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
)

// EventID identifies a participation event.
type EventID types.Hash

func (id EventID) String() string { return types.Hash(id).String() }

// MarshalText implements encoding.TextMarshaler.
func (id EventID) MarshalText() ([]byte, error) { return types.Hash(id).MarshalText() }

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *EventID) UnmarshalText(text []byte) error {
	return types.DecodeHexInto("eventId", string(text), id[:])
}

// ParseEventID parses a 0x-hex event ID.
func ParseEventID(s string) (EventID, error) {
	var id EventID
	err := id.UnmarshalText([]byte(s))
	return id, err
}

// Payload kinds.
const (
	PayloadBallot  = 0
	PayloadStaking = 1
)

// Answer is one option of a ballot question.
type Answer struct {
	Value          byte   `json:"value"`
	Text           string `json:"text"`
	AdditionalInfo string `json:"additionalInfo"`
}

// Question is a ballot question.
type Question struct {
	Text           string   `json:"text"`
	Answers        []Answer `json:"answers"`
	AdditionalInfo string   `json:"additionalInfo"`
}

// EventPayload is either a ballot or a staking payload, selected by Type.
type EventPayload struct {
	Type                   int        `json:"type"`
	Questions              []Question `json:"questions,omitempty"`
	Text                   string     `json:"text,omitempty"`
	Symbol                 string     `json:"symbol,omitempty"`
	Numerator              uint64     `json:"numerator,omitempty"`
	Denominator            uint64     `json:"denominator,omitempty"`
	RequiredMinimumRewards uint64     `json:"requiredMinimumRewards,omitempty"`
	AdditionalInfo         string     `json:"additionalInfo,omitempty"`
}

// EventData describes a participation event.
type EventData struct {
	Name                   string       `json:"name"`
	MilestoneIndexCommence uint32       `json:"milestoneIndexCommence"`
	MilestoneIndexStart    uint32       `json:"milestoneIndexStart"`
	MilestoneIndexEnd      uint32       `json:"milestoneIndexEnd"`
	Payload                EventPayload `json:"payload"`
	AdditionalInfo         string       `json:"additionalInfo"`
}

// Event is a participation event.
type Event struct {
	ID   EventID   `json:"id"`
	Data EventData `json:"data"`
}

// Node is a node that tracks an event.
type Node struct {
	URL      string `json:"url"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
}

// EventWithNodes is an event together with the nodes registered to track it.
type EventWithNodes struct {
	ID    EventID   `json:"id"`
	Data  EventData `json:"data"`
	Nodes []Node    `json:"nodes"`
}

// TrackedParticipation is one output's participation in one event.
type TrackedParticipation struct {
	BlockID             types.BlockID `json:"blockId"`
	Amount              uint64        `json:"amount"`
	StartMilestoneIndex uint32        `json:"startMilestoneIndex"`
	EndMilestoneIndex   uint32        `json:"endMilestoneIndex"`
	Answers             []byte        `json:"answers,omitempty"`
}

// OutputStatusResponse is a node's participation status for one output.
type OutputStatusResponse struct {
	Participations map[EventID]TrackedParticipation `json:"participations"`
}
