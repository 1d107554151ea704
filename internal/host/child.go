package host

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roach88/factory/internal/ir"
)

// ChildEnv is what the environment tells a child about its instantiation.
type ChildEnv struct {
	Address ir.Address // assigned by the environment
	Creator ir.Address
	Label   string
	Funds   []ir.Coin
	Height  uint64
}

// ChildProgram is the code behind a stored code id.
//
// Instantiate runs the child's initialization and returns its
// registration payload (an encoded ir.InstantiateReplyData). A returned
// error is reported to the factory as a failed outcome.
type ChildProgram interface {
	Instantiate(ctx context.Context, env ChildEnv, msg json.RawMessage) ([]byte, error)
}

// ChildFunc adapts a function to ChildProgram.
type ChildFunc func(ctx context.Context, env ChildEnv, msg json.RawMessage) ([]byte, error)

// Instantiate implements ChildProgram.
func (fn ChildFunc) Instantiate(ctx context.Context, env ChildEnv, msg json.RawMessage) ([]byte, error) {
	return fn(ctx, env, msg)
}

// EchoChild is the built-in child program.
//
// It registers under its assigned address and reports the "extra" field
// of its instantiate msg as extra data. A few msg fields steer it, which
// makes it usable for exercising the factory's error paths:
//
//	"fail":    "<reason>"  instantiation fails with reason
//	"address": "<addr>"    report addr instead of the assigned address
//	"reply":   "<raw>"     return raw as the registration payload verbatim
type EchoChild struct{}

type echoMsg struct {
	Extra   json.RawMessage `json:"extra,omitempty"`
	Fail    string          `json:"fail,omitempty"`
	Address ir.Address      `json:"address,omitempty"`
	Reply   *string         `json:"reply,omitempty"`
}

// Instantiate implements ChildProgram.
func (EchoChild) Instantiate(_ context.Context, env ChildEnv, msg json.RawMessage) ([]byte, error) {
	var m echoMsg
	if err := json.Unmarshal(msg, &m); err != nil {
		return nil, fmt.Errorf("echo child: decode msg: %w", err)
	}
	if m.Fail != "" {
		return nil, errors.New(m.Fail)
	}
	if m.Reply != nil {
		return []byte(*m.Reply), nil
	}

	addr := env.Address
	if m.Address != "" {
		addr = m.Address
	}
	data, err := json.Marshal(ir.InstantiateReplyData{Address: addr, Extra: m.Extra})
	if err != nil {
		return nil, fmt.Errorf("echo child: encode reply: %w", err)
	}
	return data, nil
}
