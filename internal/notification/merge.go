package notification

import "sort"

// Merge unions the two channels by id. When both carry an id the push copy
// wins. The result is ordered newest first, ties broken by id.
func Merge(push, pull []Notification) []Notification {
	byID := make(map[string]Notification, len(push)+len(pull))
	for _, n := range pull {
		byID[n.ID] = n
	}
	for _, n := range push {
		byID[n.ID] = n
	}

	out := make([]Notification, 0, len(byID))
	for _, n := range byID {
		out = append(out, n)
	}
	sortFeed(out)
	return out
}

func sortFeed(items []Notification) {
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].ID < items[j].ID
	})
}

// UnreadCount counts unread items; it is always derived, never stored.
func UnreadCount(items []Notification) int {
	n := 0
	for _, it := range items {
		if !it.Read {
			n++
		}
	}
	return n
}
