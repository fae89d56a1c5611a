// Package cycle computes the rotation state of a savings group as a pure
// function of its immutable parameters and a point in time. Nothing here
// touches the network; the ledger snapshot and the clock are explicit inputs,
// which keeps every derivation unit-testable.
package cycle

import (
	"fmt"
	"time"

	"github.com/Armolas/ajo-savings/pkg/models"
)

// ErrInvalidGroup is returned when a group violates the invariants the engine
// depends on (non-empty member list, positive cycle period).
var ErrInvalidGroup = models.ErrInvalidGroup

func check(g *models.Group) error {
	if len(g.Members) == 0 {
		return fmt.Errorf("%w: no members", ErrInvalidGroup)
	}
	if g.CyclePeriod <= 0 {
		return fmt.Errorf("%w: non-positive cycle period", ErrInvalidGroup)
	}
	return nil
}

// CurrentIndex returns the cycle index at the given time:
// floor((now - startTime) / cyclePeriod), clamped to 0 when now precedes the
// group's start. The index is monotonically non-decreasing with real time.
func CurrentIndex(g *models.Group, now time.Time) (uint64, error) {
	if err := check(g); err != nil {
		return 0, err
	}
	if now.Before(g.StartTime) {
		return 0, nil
	}
	elapsed := now.Sub(g.StartTime)
	return uint64(elapsed / g.CyclePeriod), nil
}

// Recipient returns the member entitled to claim the pool for a cycle:
// members[index mod len(members)]. The rotation is strict round-robin and a
// new full pass begins every len(members) cycles.
func Recipient(g *models.Group, index uint64) (string, error) {
	if err := check(g); err != nil {
		return "", err
	}
	return g.Members[index%uint64(len(g.Members))], nil
}

// Window returns the half-open time window [start, end) of a cycle.
func Window(g *models.Group, index uint64) (start, end time.Time, err error) {
	if err := check(g); err != nil {
		return time.Time{}, time.Time{}, err
	}
	start = g.StartTime.Add(time.Duration(index) * g.CyclePeriod)
	end = start.Add(g.CyclePeriod)
	return start, end, nil
}

// TimeProgress returns how far the given time is through a cycle's window as a
// percentage: 0 before the window opens, 100 at or past its end, linear in
// between. The result is clamped to [0, 100] and non-decreasing in now.
func TimeProgress(g *models.Group, index uint64, now time.Time) (float64, error) {
	start, end, err := Window(g, index)
	if err != nil {
		return 0, err
	}
	if !now.After(start) {
		return 0, nil
	}
	if !now.Before(end) {
		return 100, nil
	}
	elapsed := now.Sub(start)
	total := end.Sub(start)
	return 100 * float64(elapsed) / float64(total), nil
}

// Status bundles the full derived cycle state of a group at a point in time.
func Status(g *models.Group, now time.Time) (*models.CycleStatus, error) {
	index, err := CurrentIndex(g, now)
	if err != nil {
		return nil, err
	}
	recipient, err := Recipient(g, index)
	if err != nil {
		return nil, err
	}
	start, end, err := Window(g, index)
	if err != nil {
		return nil, err
	}
	progress, err := TimeProgress(g, index, now)
	if err != nil {
		return nil, err
	}
	return &models.CycleStatus{
		Index:        index,
		Recipient:    recipient,
		WindowStart:  start,
		WindowEnd:    end,
		TimeProgress: progress,
	}, nil
}
