package catalog

import (
	"encoding/json"
	"fmt"
)

// MarshalJSON serializes the item flat: typed fields and Extra properties
// side by side, with a "kind" discriminant. Typed fields win over colliding
// Extra keys.
func (i *Item) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(i.Extra)+5)
	for key, value := range i.Extra {
		out[key] = value
	}
	out["kind"] = KindItem
	out["name"] = i.Name
	if i.ID != "" {
		out["id"] = i.ID
	}
	if i.URL != "" {
		out["url"] = i.URL
	}
	if i.Description != "" {
		out["description"] = i.Description
	}
	return json.Marshal(out)
}

// UnmarshalJSON is the inverse of MarshalJSON: known keys populate the typed
// fields, everything else lands in Extra.
func (i *Item) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	delete(raw, "kind")
	i.ApplyOverrides(raw)
	return nil
}

type groupJSON struct {
	Kind        Kind     `json:"kind"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Members     []Member `json:"members"`
}

// MarshalJSON serializes the group with its members in insertion order.
// An empty group serializes with an empty members array, not null.
func (g *Group) MarshalJSON() ([]byte, error) {
	members := g.Members
	if members == nil {
		members = []Member{}
	}
	return json.Marshal(groupJSON{
		Kind:        KindGroup,
		Name:        g.Name,
		Description: g.Description,
		Members:     members,
	})
}

// UnmarshalJSON rebuilds the group, re-indexing nested groups through Add so
// FindOrCreateChild works on decoded trees.
func (g *Group) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name        string            `json:"name"`
		Description string            `json:"description"`
		Members     []json.RawMessage `json:"members"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	g.Name = raw.Name
	g.Description = raw.Description
	g.Members = nil
	g.childGroups = nil
	for _, rawMember := range raw.Members {
		member, err := decodeMember(rawMember)
		if err != nil {
			return err
		}
		g.Add(member)
	}
	return nil
}

// DecodeMembers decodes a JSON array of members, resolving each element's
// kind individually.
func DecodeMembers(data []byte) ([]Member, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, err
	}
	members := make([]Member, 0, len(raws))
	for i, raw := range raws {
		member, err := decodeMember(raw)
		if err != nil {
			return nil, fmt.Errorf("member %d: %w", i, err)
		}
		members = append(members, member)
	}
	return members, nil
}

// decodeMember resolves the member kind before decoding. Documents written by
// this server always carry the kind discriminant; hand-written fragments may
// omit it, in which case the presence of a members array marks a group.
func decodeMember(data []byte) (Member, error) {
	var probe struct {
		Kind    Kind            `json:"kind"`
		Members json.RawMessage `json:"members"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, err
	}
	kind := probe.Kind
	if kind == "" {
		if probe.Members != nil {
			kind = KindGroup
		} else {
			kind = KindItem
		}
	}

	switch kind {
	case KindItem:
		item := &Item{}
		if err := json.Unmarshal(data, item); err != nil {
			return nil, err
		}
		return item, nil
	case KindGroup:
		group := &Group{}
		if err := json.Unmarshal(data, group); err != nil {
			return nil, err
		}
		return group, nil
	default:
		return nil, fmt.Errorf("unknown member kind %q", kind)
	}
}
