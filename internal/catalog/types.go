package catalog

import (
	"time"
)

// Kind discriminates the two member types in a catalog tree.
type Kind string

const (
	// KindItem identifies a leaf member.
	KindItem Kind = "item"

	// KindGroup identifies a nested group member.
	KindGroup Kind = "group"
)

// Member is a node in a catalog tree, either an *Item or a *Group.
type Member interface {
	// MemberName returns the display name of the member.
	MemberName() string

	// MemberKind returns the member's kind discriminant.
	MemberKind() Kind
}

// Item is a leaf catalog entry pointing at a single displayable layer.
type Item struct {
	// ID is an optional stable identifier, typically the upstream feature id.
	ID string

	// Name is the display name. It may be empty when the source data carried
	// no value for the configured name attribute; no fallback is synthesized.
	Name string

	// URL is where the client fetches the layer's data.
	URL string

	// Description is optional display text.
	Description string

	// Extra holds open-ended presentation properties attached by item
	// defaults or fragment documents.
	Extra map[string]any
}

// NewItem creates an item with the derived name and URL set.
func NewItem(name, url string) *Item {
	return &Item{Name: name, URL: url}
}

// MemberName implements Member.
func (i *Item) MemberName() string { return i.Name }

// MemberKind implements Member.
func (*Item) MemberKind() Kind { return KindItem }

// ApplyOverrides shallow-merges overrides onto the item. The keys "name",
// "url", "id" and "description" replace the corresponding fields, including
// values derived before the merge; every other key is copied into Extra.
// Overrides are applied after construction, so colliding keys win over
// derived values.
func (i *Item) ApplyOverrides(overrides map[string]any) {
	for key, value := range overrides {
		switch key {
		case "name":
			i.Name = stringValue(value)
		case "url":
			i.URL = stringValue(value)
		case "id":
			i.ID = stringValue(value)
		case "description":
			i.Description = stringValue(value)
		default:
			if i.Extra == nil {
				i.Extra = make(map[string]any)
			}
			i.Extra[key] = value
		}
	}
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}

// Group is a catalog tree node holding an ordered list of members.
type Group struct {
	// Name is the display name of the group.
	Name string

	// Description is optional display text. For groups loaded from a WFS
	// source this carries the custodian description verbatim; it is never
	// interpreted by the server.
	Description string

	// Members holds the group's children in insertion order.
	Members []Member

	// childGroups indexes nested groups by name for find-or-create lookups.
	// Lazily built; nil for groups that never nest.
	childGroups map[string]*Group
}

// NewGroup creates an empty group.
func NewGroup(name string) *Group {
	return &Group{Name: name}
}

// MemberName implements Member.
func (g *Group) MemberName() string { return g.Name }

// MemberKind implements Member.
func (*Group) MemberKind() Kind { return KindGroup }

// Add appends a member, preserving insertion order.
func (g *Group) Add(m Member) {
	g.Members = append(g.Members, m)
	if child, ok := m.(*Group); ok {
		if g.childGroups == nil {
			g.childGroups = make(map[string]*Group)
		}
		g.childGroups[child.Name] = child
	}
}

// FindOrCreateChild returns the nested group with the given name, creating
// and appending it on first use. Creation order therefore fixes the group's
// position among the members: first-seen wins.
func (g *Group) FindOrCreateChild(name string) *Group {
	if child, ok := g.childGroups[name]; ok {
		return child
	}
	child := NewGroup(name)
	g.Add(child)
	return child
}

// ChildGroup returns the nested group with the given name, if present.
func (g *Group) ChildGroup(name string) (*Group, bool) {
	child, ok := g.childGroups[name]
	return child, ok
}

// ItemCount returns the number of items in the group,
// including items nested in child groups.
func (g *Group) ItemCount() int {
	count := 0
	for _, m := range g.Members {
		switch member := m.(type) {
		case *Item:
			count++
		case *Group:
			count += member.ItemCount()
		}
	}
	return count
}

// Catalog is the root document served by the API and persisted in snapshots.
type Catalog struct {
	// Name is the catalog's display name.
	Name string `json:"name"`

	// LastUpdated is when any group was last replaced.
	LastUpdated time.Time `json:"lastUpdated"`

	// Groups holds the top-level groups in configuration order.
	Groups []*Group `json:"groups"`
}

// NewCatalog creates an empty catalog.
func NewCatalog(name string) *Catalog {
	return &Catalog{Name: name}
}

// Group returns the top-level group with the given name, if present.
func (c *Catalog) Group(name string) (*Group, bool) {
	for _, g := range c.Groups {
		if g.Name == name {
			return g, true
		}
	}
	return nil, false
}

// ReplaceGroup swaps in a freshly loaded group subtree, keeping the group's
// position in the catalog. A group not seen before is appended. The previous
// subtree is discarded as a whole: members are never merged across loads.
func (c *Catalog) ReplaceGroup(group *Group) {
	for i, g := range c.Groups {
		if g.Name == group.Name {
			c.Groups[i] = group
			c.LastUpdated = time.Now().UTC()
			return
		}
	}
	c.Groups = append(c.Groups, group)
	c.LastUpdated = time.Now().UTC()
}
