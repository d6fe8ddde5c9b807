// Package leaderboard turns contribution counts into a ranked, medal-annotated
// list of contributors.
package leaderboard

import (
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const (
	PointsPerSpot   = 100
	PointsPerReview = 10
)

// DefaultDenylist hides staff accounts from the public ranking.
var DefaultDenylist = []string{"admin", "sinu", "moderator"}

var medals = [...]string{"🥇", "🥈", "🥉"}

type Contributor struct {
	UserID      uuid.UUID
	Username    string
	DisplayName string
	AvatarURL   string
	Spots       int
	Reviews     int
}

type Entry struct {
	Rank        int       `json:"rank"`
	Badge       string    `json:"badge"`
	UserID      uuid.UUID `json:"user_id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	Spots       int       `json:"spots"`
	Reviews     int       `json:"reviews"`
	Score       int       `json:"score"`
}

// Score is the experience score of a contributor.
func Score(spots, reviews int) int {
	return spots*PointsPerSpot + reviews*PointsPerReview
}

// Badge returns the medal for the first three ranks and "#n" otherwise.
func Badge(rank int) string {
	if rank >= 1 && rank <= len(medals) {
		return medals[rank-1]
	}
	return "#" + strconv.Itoa(rank)
}

type Ranker struct {
	denylist []string
}

// NewRanker builds a ranker hiding every contributor whose username or
// display name contains one of denylist, compared case-insensitively.
// A nil denylist uses DefaultDenylist.
func NewRanker(denylist []string) *Ranker {
	if denylist == nil {
		denylist = DefaultDenylist
	}
	words := make([]string, 0, len(denylist))
	for _, w := range denylist {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			words = append(words, w)
		}
	}
	return &Ranker{denylist: words}
}

func (r *Ranker) hidden(c Contributor) bool {
	username := strings.ToLower(c.Username)
	display := strings.ToLower(c.DisplayName)
	for _, w := range r.denylist {
		if strings.Contains(username, w) || strings.Contains(display, w) {
			return true
		}
	}
	return false
}

// Rank scores, filters and orders contributors. Ties are broken by username
// and then user id, so repeated runs on the same input agree. A limit of zero
// or less returns everyone.
func (r *Ranker) Rank(contributors []Contributor, limit int) []Entry {
	entries := make([]Entry, 0, len(contributors))
	for _, c := range contributors {
		if r.hidden(c) {
			continue
		}
		entries = append(entries, Entry{
			UserID:      c.UserID,
			Username:    c.Username,
			DisplayName: c.DisplayName,
			AvatarURL:   c.AvatarURL,
			Spots:       c.Spots,
			Reviews:     c.Reviews,
			Score:       Score(c.Spots, c.Reviews),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Username != b.Username {
			return a.Username < b.Username
		}
		return a.UserID.String() < b.UserID.String()
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	for i := range entries {
		entries[i].Rank = i + 1
		entries[i].Badge = Badge(i + 1)
	}
	return entries
}
