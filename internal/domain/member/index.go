package member

import "sort"

// MatchPriority reports which key resolved a legacy identity.
type MatchPriority int

const (
	PriorityNone MatchPriority = iota
	PriorityLegacyID
	PriorityUserID
	PriorityName
)

func (p MatchPriority) String() string {
	switch p {
	case PriorityLegacyID:
		return "legacy_id"
	case PriorityUserID:
		return "user_id"
	case PriorityName:
		return "name"
	default:
		return "none"
	}
}

// Index is an in-memory, priority-ordered lookup over the canonical members of one group.
// When several members share a key the one with the smallest id wins.
type Index struct {
	byLegacyID map[string]Member
	byUserID   map[string]Member
	byName     map[string]Member
}

func NewIndex(items []Member) *Index {
	sorted := append([]Member(nil), items...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	idx := &Index{
		byLegacyID: make(map[string]Member),
		byUserID:   make(map[string]Member),
		byName:     make(map[string]Member),
	}
	for _, item := range sorted {
		idx.Add(item)
	}
	return idx
}

// Add registers item under every key it carries without displacing an existing holder.
func (x *Index) Add(item Member) {
	for _, legacyID := range item.LegacyIDs {
		if legacyID == "" {
			continue
		}
		if _, ok := x.byLegacyID[legacyID]; !ok {
			x.byLegacyID[legacyID] = item
		}
	}
	if item.IsLinked() {
		if _, ok := x.byUserID[item.UserID]; !ok {
			x.byUserID[item.UserID] = item
		}
	}
	if name := NormalizeName(item.DisplayName); name != "" {
		if _, ok := x.byName[name]; !ok {
			x.byName[name] = item
		}
	}
}

// AttachLegacyID makes legacyID resolve to memberID at the highest priority.
func (x *Index) AttachLegacyID(item Member, legacyID string) {
	if legacyID == "" {
		return
	}
	x.byLegacyID[legacyID] = item
}

// Resolve looks up a legacy identity: legacy id first, then linked user id, then normalized name.
func (x *Index) Resolve(legacyID, userID, displayName string) (Member, MatchPriority, bool) {
	if item, ok := x.byLegacyID[legacyID]; ok && legacyID != "" {
		return item, PriorityLegacyID, true
	}
	if userID != "" {
		if item, ok := x.byUserID[userID]; ok {
			return item, PriorityUserID, true
		}
	}
	if name := NormalizeName(displayName); name != "" {
		if item, ok := x.byName[name]; ok {
			return item, PriorityName, true
		}
	}
	return Member{}, PriorityNone, false
}

// LookupLegacyID resolves only at the legacy-id priority.
func (x *Index) LookupLegacyID(legacyID string) (Member, bool) {
	item, ok := x.byLegacyID[legacyID]
	return item, ok
}
