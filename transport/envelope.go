// Package transport carries actions in and prompts out. The wire format is
// a JSON envelope; it is decoded and validated exactly once here, and
// handlers downstream only ever see typed domain.Action values.
package transport

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"

	"floorlink/domain"
	"floorlink/errors"
)

// Envelope is the wire form of one inbound participant action. Token
// authenticates the sender; any ids in the payload only ever name OTHER
// participants (selection targets, pending initiators).
type Envelope struct {
	ID         string `json:"id"`
	Token      string `json:"token" validate:"required"`
	Type       string `json:"type" validate:"required,oneof=start_search select_target cancel_selection confirm_initiator cancel_initiator confirm_responder decline_responder pause resume end_session chat_text"`
	Identifier string `json:"identifier,omitempty"`
	Owner      string `json:"owner,omitempty"`
	Initiator  string `json:"initiator,omitempty"`
	Text       string `json:"text,omitempty"`
}

var validate = validator.New()

// DecodeEnvelope parses and validates the raw wire payload. Anything that
// fails here is a MalformedAction; nothing downstream re-parses.
func DecodeEnvelope(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", errors.ErrMalformedAction, err)
	}
	if err := validate.Struct(env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", errors.ErrMalformedAction, err)
	}
	return env, nil
}

// DecodeAction turns a validated envelope into its action variant,
// enforcing the per-type required fields.
func DecodeAction(env Envelope) (domain.Action, error) {
	switch env.Type {
	case "start_search":
		return domain.StartSearch{Identifier: env.Identifier}, nil
	case "select_target":
		if env.Owner == "" {
			return nil, fmt.Errorf("%w: select_target without owner", errors.ErrMalformedAction)
		}
		return domain.SelectTarget{Owner: domain.ParticipantID(env.Owner)}, nil
	case "cancel_selection":
		return domain.CancelSelection{}, nil
	case "confirm_initiator":
		return domain.ConfirmInitiator{}, nil
	case "cancel_initiator":
		return domain.CancelInitiator{}, nil
	case "confirm_responder":
		if env.Initiator == "" {
			return nil, fmt.Errorf("%w: confirm_responder without initiator", errors.ErrMalformedAction)
		}
		return domain.ConfirmResponder{Initiator: domain.ParticipantID(env.Initiator)}, nil
	case "decline_responder":
		if env.Initiator == "" {
			return nil, fmt.Errorf("%w: decline_responder without initiator", errors.ErrMalformedAction)
		}
		return domain.DeclineResponder{Initiator: domain.ParticipantID(env.Initiator)}, nil
	case "pause":
		return domain.Pause{}, nil
	case "resume":
		return domain.Resume{}, nil
	case "end_session":
		return domain.EndSession{}, nil
	case "chat_text":
		if env.Text == "" {
			return nil, fmt.Errorf("%w: chat_text without text", errors.ErrMalformedAction)
		}
		return domain.ChatText{Text: env.Text}, nil
	default:
		return nil, fmt.Errorf("%w: unknown type %q", errors.ErrMalformedAction, env.Type)
	}
}
