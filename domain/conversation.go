package domain

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/hashicorp/go-multierror"
)

var (
	ErrEmptyPrompt       = errors.New("prompt is empty")
	ErrClearNotRequested = errors.New("clear history was not requested")
	ErrTurnNotFound      = errors.New("turn not found")
)

// ErrorPrefix marks a response slot filled by a failed model call.
const ErrorPrefix = "Error: "

// Turn is one user submission plus the responses it produced.
type Turn struct {
	ID        string          `json:"id"`
	Content   string          `json:"content"`
	Responses []ModelResponse `json:"responses"`
}

type ModelResponse struct {
	Model   string `json:"model"`
	Label   string `json:"label"`
	Content string `json:"content"`
	Failed  bool   `json:"failed"`
}

// Response looks up the response stored for a model id.
func (t Turn) Response(modelID string) (ModelResponse, bool) {
	for _, r := range t.Responses {
		if r.Model == modelID {
			return r, true
		}
	}
	return ModelResponse{}, false
}

func (t Turn) Clone() Turn {
	c := t
	c.Responses = append([]ModelResponse(nil), t.Responses...)
	return c
}

// FailedResponse formats a failed model call for display.
func FailedResponse(m Model, err error) ModelResponse {
	return ModelResponse{
		Model:   m.ID,
		Label:   m.Label(),
		Content: ErrorPrefix + err.Error(),
		Failed:  true,
	}
}

// ConversationStore holds the turns of the running session.
type ConversationStore interface {
	Append(turn Turn)
	// SetResponse adds or replaces the response of a model on a turn.
	SetResponse(turnID string, resp ModelResponse) error
	Turns() []Turn
	Len() int
	Clear()
}

const (
	DefaultTemperature   = 0.75
	DefaultSystemMessage = "Respond in Pirate English."
	TemperatureStep      = 0.01
	MinTemperature       = 0.0
	MaxTemperature       = 1.0
)

type Settings struct {
	Temperature   float64 `json:"temperature"`
	SystemMessage string  `json:"system_message"`
}

func DefaultSettings() Settings {
	return Settings{
		Temperature:   DefaultTemperature,
		SystemMessage: DefaultSystemMessage,
	}
}

func (s Settings) Validate() error {
	var result *multierror.Error
	if math.IsNaN(s.Temperature) || s.Temperature < MinTemperature || s.Temperature > MaxTemperature {
		result = multierror.Append(result, fmt.Errorf("temperature %v out of range [%v, %v]", s.Temperature, MinTemperature, MaxTemperature))
	} else if steps := s.Temperature / TemperatureStep; math.Abs(steps-math.Round(steps)) > 1e-6 {
		result = multierror.Append(result, fmt.Errorf("temperature %v is not a multiple of %v", s.Temperature, TemperatureStep))
	}
	if strings.ContainsRune(s.SystemMessage, 0) {
		result = multierror.Append(result, errors.New("system message contains a NUL byte"))
	}
	return result.ErrorOrNil()
}

// SessionState is what the render pass draws.
type SessionState struct {
	Turns        []Turn   `json:"turns"`
	Settings     Settings `json:"settings"`
	Models       []Model  `json:"models"`
	ClearPending bool     `json:"clear_pending"`
}
