package ir

import (
	"encoding/json"
	"fmt"
)

// InstantiateMsg constructs a factory.
// Admin defaults to the deployer; AuthMode defaults to AuthAdminOnly.
type InstantiateMsg struct {
	Admin    *Address `json:"admin,omitempty"`
	Code     CodeRef  `json:"code"`
	AuthMode AuthMode `json:"auth_mode,omitempty"`
}

// CreateInstance requests a new child instance.
// Msg is forwarded verbatim to the child's initialization.
type CreateInstance struct {
	Msg   json.RawMessage `json:"msg"`
	Funds []Coin          `json:"funds,omitempty"`
}

// UpdateCode replaces the child-code reference.
type UpdateCode struct {
	Code CodeRef `json:"code"`
}

// RotateAdmin hands administration to a new identity.
type RotateAdmin struct {
	NewAdmin Address `json:"new_admin"`
}

// SetStatus moves the factory to a lifecycle status.
type SetStatus struct {
	Status Status `json:"status"`
}

// ExecuteMsg is the command surface. Exactly one field is set.
type ExecuteMsg struct {
	CreateInstance *CreateInstance `json:"create_instance,omitempty"`
	UpdateCode     *UpdateCode     `json:"update_code,omitempty"`
	RotateAdmin    *RotateAdmin    `json:"rotate_admin,omitempty"`
	SetStatus      *SetStatus      `json:"set_status,omitempty"`
}

// Kind returns the snake_case name of the set variant, or "" if the
// message does not have exactly one variant set.
func (m ExecuteMsg) Kind() string {
	kinds := make([]string, 0, 1)
	if m.CreateInstance != nil {
		kinds = append(kinds, "create_instance")
	}
	if m.UpdateCode != nil {
		kinds = append(kinds, "update_code")
	}
	if m.RotateAdmin != nil {
		kinds = append(kinds, "rotate_admin")
	}
	if m.SetStatus != nil {
		kinds = append(kinds, "set_status")
	}
	if len(kinds) != 1 {
		return ""
	}
	return kinds[0]
}

// GetInstance looks up one registry entry.
type GetInstance struct {
	Address Address `json:"address"`
}

// ListInstances pages through the registry.
// Cursor is the sequence of the last entry already seen; nil starts from the beginning.
type ListInstances struct {
	Cursor *uint64 `json:"cursor,omitempty"`
	Limit  uint32  `json:"limit"`
}

// QueryMsg is the query surface. At most one field is set; an empty
// message with GetConfig false is invalid.
type QueryMsg struct {
	GetInstance   *GetInstance   `json:"get_instance,omitempty"`
	ListInstances *ListInstances `json:"list_instances,omitempty"`
	GetConfig     bool           `json:"get_config,omitempty"`
}

// Kind returns the snake_case name of the set variant, or "".
func (m QueryMsg) Kind() string {
	n := 0
	kind := ""
	if m.GetInstance != nil {
		n++
		kind = "get_instance"
	}
	if m.ListInstances != nil {
		n++
		kind = "list_instances"
	}
	if m.GetConfig {
		n++
		kind = "get_config"
	}
	if n != 1 {
		return ""
	}
	return kind
}

// SubMsg is a deferred child-instantiation request emitted by the factory.
// The environment must deliver exactly one Outcome tagged with Token.
type SubMsg struct {
	Token    uint64          `json:"token"`
	CodeID   uint64          `json:"code_id"`
	CodeHash string          `json:"code_hash"`
	Msg      json.RawMessage `json:"msg"`
	Funds    []Coin          `json:"funds,omitempty"`
	Label    string          `json:"label"`
}

// Response is what a command step returns to the environment.
type Response struct {
	SubMsgs    []SubMsg          `json:"sub_msgs,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Outcome is the result of a deferred sub-operation.
// Err is non-empty iff the child instantiation failed; Data carries the
// child's registration payload on success.
type Outcome struct {
	Data []byte `json:"data,omitempty"`
	Err  string `json:"error,omitempty"`
}

// Succeeded reports whether the sub-operation succeeded.
func (o Outcome) Succeeded() bool {
	return o.Err == ""
}

// InstantiateReplyData is the registration payload a child attaches to
// the result of its initialization.
type InstantiateReplyData struct {
	Address Address         `json:"address"`
	Extra   json.RawMessage `json:"extra,omitempty"`
}

// ParseReplyData decodes a child's registration payload.
// Missing address or a non-object extra is an error; absent extra is {}.
func ParseReplyData(data []byte) (Address, IRObject, error) {
	if len(data) == 0 {
		return "", nil, fmt.Errorf("empty registration payload")
	}
	var reply InstantiateReplyData
	if err := json.Unmarshal(data, &reply); err != nil {
		return "", nil, fmt.Errorf("decode registration payload: %w", err)
	}
	if reply.Address == "" {
		return "", nil, fmt.Errorf("registration payload is missing address")
	}
	if len(reply.Extra) == 0 || string(reply.Extra) == "null" {
		return reply.Address, IRObject{}, nil
	}
	v, err := UnmarshalIRValue(reply.Extra)
	if err != nil {
		return "", nil, fmt.Errorf("extra: %w", err)
	}
	extra, ok := v.(IRObject)
	if !ok {
		return "", nil, fmt.Errorf("extra must be an object, got %T", v)
	}
	return reply.Address, extra, nil
}
