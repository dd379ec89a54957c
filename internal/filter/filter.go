// Package filter derives the visible subset of a fetched collection without
// re-fetching. All functions are pure and operate on in-memory slices.
package filter

import (
	"errors"
	"strings"
	"time"

	"github.com/rasencioDatabrain/ChatManager/internal/models"
)

// Coarse status filter values for the conversation list.
const (
	StatusAll    = "all"
	StatusActive = "active" // active group: {active, manual, automatico}
	StatusClosed = "closed"
)

// Mode filter values, meaningful only inside the active group.
const (
	ModeAll       = "all"
	ModeManual    = "manual"
	ModeAutomatic = "automatico"
)

// ErrEmptyQuery is returned when a history search carries no criteria at all.
var ErrEmptyQuery = errors.New("filter: history query has no criteria")

// ConversationFilter is the two-stage conversation list predicate.
type ConversationFilter struct {
	Status string
	Mode   string
}

// Normalize resets the mode filter to "all" whenever the coarse filter is
// not the active group, so a closed/all listing can never carry a stale
// manual/automatico narrowing.
func (f ConversationFilter) Normalize() ConversationFilter {
	if f.Status == "" {
		f.Status = StatusAll
	}
	if f.Mode == "" || f.Status != StatusActive {
		f.Mode = ModeAll
	}
	return f
}

func (f ConversationFilter) matches(c models.Conversation) bool {
	switch f.Status {
	case StatusActive:
		switch c.Status {
		case models.ConversationActive, models.ConversationManual, models.ConversationAutomatic:
		default:
			return false
		}
	case StatusClosed:
		if c.Status != models.ConversationClosed {
			return false
		}
	}
	if f.Status == StatusActive && f.Mode != ModeAll {
		return c.Status == f.Mode
	}
	return true
}

// Conversations applies the normalized filter preserving input order.
func Conversations(list []models.Conversation, f ConversationFilter) []models.Conversation {
	f = f.Normalize()
	out := make([]models.Conversation, 0, len(list))
	for _, c := range list {
		if f.matches(c) {
			out = append(out, c)
		}
	}
	return out
}

// HistoryQuery is the conjunctive conversation history search. From and To
// bound the conversation start timestamp inclusively; zero values are
// unset. Name matching is case-insensitive substring, phone is plain
// substring.
type HistoryQuery struct {
	Name  string
	Phone string
	From  time.Time
	To    time.Time
}

// Empty reports whether no criterion is set.
func (q HistoryQuery) Empty() bool {
	return q.Name == "" && q.Phone == "" && q.From.IsZero() && q.To.IsZero()
}

// History narrows the list by the query. An entirely empty query is rejected
// so the caller prompts the user instead of silently returning everything.
func History(list []models.Conversation, q HistoryQuery) ([]models.Conversation, error) {
	if q.Empty() {
		return nil, ErrEmptyQuery
	}
	name := strings.ToLower(q.Name)
	out := make([]models.Conversation, 0, len(list))
	for _, c := range list {
		if name != "" && !strings.Contains(strings.ToLower(c.CustomerName), name) {
			continue
		}
		if q.Phone != "" && !strings.Contains(c.CustomerPhone, q.Phone) {
			continue
		}
		if !q.From.IsZero() && c.StartedAt.Before(q.From) {
			continue
		}
		if !q.To.IsZero() && c.StartedAt.After(q.To) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// MembershipDiff computes the reconciliation between the stored member set
// and the edited one: added = next − prev, removed = prev − next. The two
// results are disjoint and their union is the symmetric difference.
func MembershipDiff(prev, next []uint) (added, removed []uint) {
	prevSet := make(map[uint]bool, len(prev))
	for _, id := range prev {
		prevSet[id] = true
	}
	nextSet := make(map[uint]bool, len(next))
	for _, id := range next {
		nextSet[id] = true
	}
	for _, id := range next {
		if !prevSet[id] {
			added = append(added, id)
			prevSet[id] = true // dedupe repeated ids in next
		}
	}
	seen := make(map[uint]bool, len(prev))
	for _, id := range prev {
		if !nextSet[id] && !seen[id] {
			removed = append(removed, id)
			seen[id] = true
		}
	}
	return added, removed
}

// Candidates returns the clients available to add to a group: all clients
// minus current members, optionally narrowed by a name/phone substring.
func Candidates(clients []models.Client, memberIDs []uint, query string) []models.Client {
	members := make(map[uint]bool, len(memberIDs))
	for _, id := range memberIDs {
		members[id] = true
	}
	query = strings.ToLower(query)
	out := make([]models.Client, 0, len(clients))
	for _, cl := range clients {
		if members[cl.ID] {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(cl.Name), query) &&
			!strings.Contains(cl.Phone, query) {
			continue
		}
		out = append(out, cl)
	}
	return out
}
