package policy

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/pthm-cable/penguin/agent"
)

// Message types exchanged with a remote trainer.
const (
	TypeHello      = "HELLO"
	TypeWelcome    = "WELCOME"
	TypeObs        = "OBS"
	TypeAct        = "ACT"
	TypeEpisodeEnd = "EPISODE_END"
)

// BaseMessage lets us route incoming JSON messages by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

// HelloMsg opens a session.
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	RunID           string `json:"run_id"`
	Arena           int    `json:"arena"`
	ObservationSize int    `json:"observation_size"`
	ActionSize      int    `json:"action_size"`
	DecisionPeriod  int    `json:"decision_period"`
	MaxSteps        int    `json:"max_steps"`
}

// WelcomeMsg accepts a session and may set initial environment parameters.
type WelcomeMsg struct {
	Type            string             `json:"type"`
	ProtocolVersion string             `json:"protocol_version"`
	Parameters      map[string]float64 `json:"parameters,omitempty"`
}

// ObsMsg requests a decision.
type ObsMsg struct {
	Type            string    `json:"type"`
	ProtocolVersion string    `json:"protocol_version"`
	Episode         int       `json:"episode"`
	Step            int       `json:"step"`
	Observation     []float64 `json:"observation"`
	Reward          float64   `json:"reward"`
}

// ActMsg answers an ObsMsg. Parameters take effect at the next episode start.
type ActMsg struct {
	Type            string             `json:"type"`
	ProtocolVersion string             `json:"protocol_version"`
	Episode         int                `json:"episode"`
	Step            int                `json:"step"`
	Action          []float64          `json:"action"`
	Parameters      map[string]float64 `json:"parameters,omitempty"`
}

// EpisodeEndMsg reports a finished episode.
type EpisodeEndMsg struct {
	Type            string  `json:"type"`
	ProtocolVersion string  `json:"protocol_version"`
	Episode         int     `json:"episode"`
	Steps           int     `json:"steps"`
	Reward          float64 `json:"reward"`
	Reason          string  `json:"reason"`
	FishEaten       int     `json:"fish_eaten"`
	FishRemaining   int     `json:"fish_remaining"`
}

// DecodeBase reads only the routing fields of a message.
func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}

//go:embed schemas/act.schema.json
var actSchemaJSON string

var (
	actSchemaOnce sync.Once
	actSchema     *jsonschema.Schema
	actSchemaErr  error
)

func compiledActSchema() (*jsonschema.Schema, error) {
	actSchemaOnce.Do(func() {
		actSchema, actSchemaErr = jsonschema.CompileString("act.schema.json", actSchemaJSON)
	})
	return actSchema, actSchemaErr
}

// DecodeAct validates an ACT message against its schema and converts its action.
func DecodeAct(b []byte) (ActMsg, agent.Action, error) {
	schema, err := compiledActSchema()
	if err != nil {
		return ActMsg{}, agent.Action{}, fmt.Errorf("compile act schema: %w", err)
	}

	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return ActMsg{}, agent.Action{}, fmt.Errorf("decode act: %w", err)
	}
	if err := schema.Validate(raw); err != nil {
		return ActMsg{}, agent.Action{}, fmt.Errorf("invalid act: %w", err)
	}

	var msg ActMsg
	if err := json.Unmarshal(b, &msg); err != nil {
		return ActMsg{}, agent.Action{}, fmt.Errorf("decode act: %w", err)
	}
	act, err := agent.ParseAction(msg.Action)
	if err != nil {
		return ActMsg{}, agent.Action{}, err
	}
	return msg, act, nil
}
