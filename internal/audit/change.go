package audit

import (
	"encoding/json"
	"fmt"
)

// ChangeKind tells which JSON shape a Change takes.
type ChangeKind int

const (
	// ValueChange is {"from": ..., "to": ...}.
	ValueChange ChangeKind = iota
	// KeysChange is {"added": [...], "deleted": [...]}, empty lists omitted.
	KeysChange
	// Created is {"created": null} under the synthetic "basemodel" key.
	Created
)

// Change is one entry of a history's changes map.
type Change struct {
	Kind    ChangeKind
	From    any
	To      any
	Added   []string
	Deleted []string
}

func (c Change) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case Created:
		return []byte(`{"created":null}`), nil
	case KeysChange:
		out := map[string][]string{}
		if len(c.Added) > 0 {
			out["added"] = c.Added
		}
		if len(c.Deleted) > 0 {
			out["deleted"] = c.Deleted
		}
		return json.Marshal(out)
	case ValueChange:
		return json.Marshal(map[string]any{"from": c.From, "to": c.To})
	default:
		return nil, fmt.Errorf("unknown change kind %d", c.Kind)
	}
}

func (c *Change) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if _, ok := raw["created"]; ok {
		*c = Change{Kind: Created}
		return nil
	}
	_, hasAdded := raw["added"]
	_, hasDeleted := raw["deleted"]
	_, hasFrom := raw["from"]
	_, hasTo := raw["to"]
	if (hasAdded || hasDeleted) || (!hasFrom && !hasTo && len(raw) == 0) {
		out := Change{Kind: KeysChange}
		if hasAdded {
			if err := json.Unmarshal(raw["added"], &out.Added); err != nil {
				return err
			}
		}
		if hasDeleted {
			if err := json.Unmarshal(raw["deleted"], &out.Deleted); err != nil {
				return err
			}
		}
		*c = out
		return nil
	}
	out := Change{Kind: ValueChange}
	if hasFrom {
		if err := json.Unmarshal(raw["from"], &out.From); err != nil {
			return err
		}
	}
	if hasTo {
		if err := json.Unmarshal(raw["to"], &out.To); err != nil {
			return err
		}
	}
	*c = out
	return nil
}
