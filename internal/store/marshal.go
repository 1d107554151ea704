package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/factory/internal/ir"
)

// marshalExtra converts an instance's extra data to canonical JSON TEXT.
// Uses RFC 8785 canonical JSON so identical payloads store identical bytes.
func marshalExtra(extra ir.IRObject) (string, error) {
	if extra == nil {
		extra = ir.IRObject{}
	}
	data, err := ir.MarshalCanonical(extra)
	if err != nil {
		return "", fmt.Errorf("marshal extra: %w", err)
	}
	return string(data), nil
}

// unmarshalExtra parses canonical JSON TEXT to IRObject.
// IRObject.UnmarshalJSON keeps integers as int64 via json.Number.
func unmarshalExtra(data string) (ir.IRObject, error) {
	if data == "" || data == "{}" {
		return ir.IRObject{}, nil
	}
	var obj ir.IRObject
	if err := json.Unmarshal([]byte(data), &obj); err != nil {
		return nil, fmt.Errorf("unmarshal extra: %w", err)
	}
	return obj, nil
}
