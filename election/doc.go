// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package election is the voting and ranking engine.

A Service ties together a Store (elections, slates, ballots, snapshots), a
Directory (who may stand, who gets promoted) and an optional TallyCache.

# Lifecycle

Status is derived from the clock and the voting window [start, end):

	upcoming → active → completed

Before the first ballot an election is fully editable. After it the start
date and slate are frozen. Finalized elections accept no edits.

# Ranking

Candidate votes are recounted from ballots on every live read. Ties are
ordered by user id, and tie groups touching the three role seats produce
notices. Finalize stores the ranking as a snapshot and promotes seat 0 to
Leader and seats 1 and 2 to Admin.
*/
package election
