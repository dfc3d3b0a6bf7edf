// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/danielhkuo/boardvote/models"
)

// ComputeResults projects raw ballots onto the election's slate.
//
// Votes are always recounted from the ballots; nothing is read from a stored
// counter. Candidates are ranked by votes descending, then by user id
// ascending so that exact ties have a deterministic order.
func ComputeResults(e *models.Election, ballots []models.Ballot, now time.Time) models.Results {
	counts := make(map[string]int, len(e.Candidates))
	for _, c := range e.Candidates {
		counts[c.UserID] = 0
	}
	for _, b := range ballots {
		for _, choice := range b.Choices {
			if _, ok := counts[choice]; ok {
				counts[choice]++
			}
		}
	}

	total := len(ballots)
	ranked := make([]models.Candidate, len(e.Candidates))
	copy(ranked, e.Candidates)
	for i := range ranked {
		ranked[i].Votes = counts[ranked[i].UserID]
		ranked[i].Percentage = percentage(ranked[i].Votes, total)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Votes != ranked[j].Votes {
			return ranked[i].Votes > ranked[j].Votes
		}
		return ranked[i].UserID < ranked[j].UserID
	})
	for i := range ranked {
		ranked[i].Rank = i
	}

	notices := []models.TieNotice{}
	if total > 0 {
		notices = TieNotices(ranked)
	}

	return models.Results{
		ElectionID: e.ID,
		ComputedAt: now,
		TotalVotes: total,
		Candidates: ranked,
		Notices:    notices,
	}
}

// percentage rounds votes/total to a whole percent. Each ballot names three
// candidates, so percentages across a slate sum to roughly 300.
func percentage(votes, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(votes) / float64(total) * 100))
}

// TieNotices scans a vote-sorted slate once, splitting it into maximal runs
// of equal vote counts, and reports the runs that touch a role-bearing seat.
func TieNotices(ranked []models.Candidate) []models.TieNotice {
	notices := []models.TieNotice{}
	for start := 0; start < len(ranked) && start < models.RoleSeats; {
		end := start + 1
		for end < len(ranked) && ranked[end].Votes == ranked[start].Votes {
			end++
		}

		group := ranked[start:end]
		names := make([]string, len(group))
		ids := make([]string, len(group))
		for i, c := range group {
			names[i] = displayName(c)
			ids[i] = c.UserID
		}

		if severity, message, ok := tieNotice(start, len(group), names); ok {
			notices = append(notices, models.TieNotice{
				Severity: severity,
				Message:  message,
				Start:    start,
				Size:     len(group),
				UserIDs:  ids,
			})
		}
		start = end
	}
	return notices
}

// tieNotice phrases a tie group that begins at seat start. Seats 0..2 are
// Leader, Admin, Admin. Single candidates and groups starting past seat 2
// produce no notice.
func tieNotice(start, size int, names []string) (severity, message string, ok bool) {
	if size < 2 || start >= models.RoleSeats {
		return "", "", false
	}
	end := start + size
	who := joinNames(names)

	switch start {
	case 0:
		switch {
		case size == 2:
			return models.SeverityWarn, "Leader position tied between " + who, true
		case end <= models.RoleSeats:
			return models.SeverityWarn, fmt.Sprintf("Top %d positions all tied between %s", size, who), true
		default:
			return models.SeverityWarn, "Leader and multiple positions tied between " + who, true
		}
	case 1:
		if end <= models.RoleSeats {
			return models.SeverityInfo, "2nd place (Admin) tied between " + who, true
		}
		return models.SeverityWarn, "2nd and 3rd place (Admin) tied between " + who, true
	default:
		return models.SeverityWarn, "Last Admin spot (3rd place) tied between " + who, true
	}
}

// joinNames renders "A and B" or "A, B and C".
func joinNames(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	case 2:
		return names[0] + " and " + names[1]
	default:
		return strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
	}
}

func displayName(c models.Candidate) string {
	if c.FullName != "" {
		return c.FullName
	}
	return c.UserID
}

// promotionsFor maps the top of a final ranking onto roles: seat 0 leads,
// seats 1 and 2 become admins. Ties do not change the order.
func promotionsFor(ranked []models.Candidate) []models.RolePromotion {
	n := min(len(ranked), models.RoleSeats)
	promotions := make([]models.RolePromotion, 0, n)
	for i := 0; i < n; i++ {
		role := models.RoleAdmin
		if i == 0 {
			role = models.RoleLeader
		}
		promotions = append(promotions, models.RolePromotion{
			UserID:   ranked[i].UserID,
			FullName: ranked[i].FullName,
			Rank:     i,
			Role:     role,
		})
	}
	return promotions
}
