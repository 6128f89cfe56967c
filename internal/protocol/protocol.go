package protocol

import (
	"encoding/json"
	"fmt"
)

// Version of the message format. Envelopes with another version are
// rejected.
const Version = 1

// Names a request or response.
type Command string

const (
	CmdBuild    Command = "build"    // Run recipes; payload [BuildRequest], result [BuildResult].
	CmdStatus   Command = "status"   // Query the daemon; result [StatusResult].
	CmdShutdown Command = "shutdown" // Stop the daemon; no result.
	CmdOK       Command = "ok"       // Successful response.
	CmdError    Command = "error"    // Failed response; payload [ErrorResult].
)

// Wire wrapper around every message.
type Envelope struct {
	Version int             `json:"version"`
	Command Command         `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Encodes a message. A nil payload is omitted.
//
// The result does not include the trailing newline.
func Encode(cmd Command, payload any) ([]byte, error) {
	env := Envelope{Version: Version, Command: cmd}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		env.Payload = data
	}
	return json.Marshal(env)
}

// Decodes an envelope and returns it with its raw payload.
func Decode(data []byte) (*Envelope, json.RawMessage, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if env.Version != Version {
		return nil, nil, fmt.Errorf("%w: %d", ErrVersion, env.Version)
	}
	if env.Command == "" {
		return nil, nil, fmt.Errorf("%w: missing command", ErrDecode)
	}
	return &env, env.Payload, nil
}

// Decodes a payload into a value of type T.
//
// An empty payload decodes to the zero value.
func DecodePayload[T any](payload json.RawMessage) (*T, error) {
	var v T
	if len(payload) == 0 {
		return &v, nil
	}
	if err := json.Unmarshal(payload, &v); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return &v, nil
}
