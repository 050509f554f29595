package booking

import (
	"sort"
	"strings"
)

// RecipientSet holds the unique cleaner IDs assigned to a booking.
type RecipientSet map[string]struct{}

// NewRecipientSet merges the single assignedCleanerId field with the
// assignedCleanerIds list. Blank IDs are dropped.
func NewRecipientSet(single string, many ...string) RecipientSet {
	set := make(RecipientSet, len(many)+1)
	set.Add(single)
	for _, id := range many {
		set.Add(id)
	}
	return set
}

// Add inserts id unless it is blank.
func (s RecipientSet) Add(id string) {
	id = strings.TrimSpace(id)
	if id == "" {
		return
	}
	s[id] = struct{}{}
}

func (s RecipientSet) Len() int {
	return len(s)
}

// IDs returns the members in ascending order so that dispatch order is stable.
func (s RecipientSet) IDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
