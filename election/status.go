// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import (
	"time"

	"github.com/danielhkuo/boardvote/models"
)

// Status derives the lifecycle state from the voting window [start, end).
func Status(now, start, end time.Time) string {
	switch {
	case now.Before(start):
		return models.StatusUpcoming
	case now.Before(end):
		return models.StatusActive
	default:
		return models.StatusCompleted
	}
}
