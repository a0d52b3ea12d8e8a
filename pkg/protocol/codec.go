package protocol

import (
	"encoding/json"
	"fmt"
)

// DecodeError reports an inbound payload that could not be turned into a
// typed event: malformed JSON, or a missing or unrecognized discriminator.
// Callers log and discard; a decode failure never touches session state.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode event: %s: %v", e.Reason, e.Err)
	}

	return "decode event: " + e.Reason
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

type envelope struct {
	Type EventType `json:"type"`
}

// Decode parses a raw inbound payload into a typed event. It is
// deterministic and total over the documented event catalogue; anything else
// yields a *DecodeError.
func Decode(raw []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, &DecodeError{Reason: "malformed payload", Err: err}
	}

	if env.Type == "" {
		return nil, &DecodeError{Reason: "missing type discriminator"}
	}

	var event Event

	switch env.Type {
	case EventExecutionStarted:
		event = &ExecutionStarted{}
	case EventNodeStart:
		event = &NodeStart{}
	case EventNodeComplete:
		event = &NodeComplete{}
	case EventScreenshot:
		event = &Screenshot{}
	case EventUserInputRequired:
		event = &UserInputRequired{}
	case EventLog:
		event = &Log{}
	case EventExecutionComplete:
		event = &ExecutionComplete{}
	case EventError:
		event = &ErrorEvent{}
	case EventRequireManualLogin:
		event = &RequireManualLogin{}
	case EventStorageStateUpdate:
		event = &StorageStateUpdate{}
	default:
		return nil, &DecodeError{Reason: "unknown event type " + string(env.Type)}
	}

	if err := json.Unmarshal(raw, event); err != nil {
		return nil, &DecodeError{Reason: "malformed " + string(env.Type) + " payload", Err: err}
	}

	return event, nil
}

// Encode serializes an outbound command into its wire envelope, injecting the
// type discriminator. All command shapes are representable; Encode only fails
// if a command carries a value the JSON encoder rejects.
func Encode(cmd Command) ([]byte, error) {
	body, err := json.Marshal(cmd)
	if err != nil {
		return nil, fmt.Errorf("encode %s command: %w", cmd.GetType(), err)
	}

	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("encode %s command: %w", cmd.GetType(), err)
	}

	typeJSON, err := json.Marshal(cmd.GetType())
	if err != nil {
		return nil, fmt.Errorf("encode %s command: %w", cmd.GetType(), err)
	}

	fields["type"] = typeJSON

	return json.Marshal(fields)
}
