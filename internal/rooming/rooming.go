// Package rooming derives hotel occupancy and cost figures from room and
// coach travel records.
package rooming

import (
	"sort"

	"tourney/internal/core"
)

// UnknownName is shown for occupant ids that do not resolve to a coach.
const UnknownName = "Unknown"

// OccupancyReport describes who is housed for a tournament.
type OccupancyReport struct {
	// Occupied holds every coach id assigned to at least one room.
	Occupied map[string]struct{} `json:"-"`
	// UnassignedWithPreference lists coaches who left rooming notes but have
	// no room yet, sorted by id.
	UnassignedWithPreference []core.CoachTravel `json:"unassigned_with_preference"`
	Housed                   int                `json:"housed"`
	Unhoused                 int                `json:"unhoused"`
}

// IsOccupied reports whether the coach has a room.
func (r OccupancyReport) IsOccupied(coachID string) bool {
	_, ok := r.Occupied[coachID]
	return ok
}

// ComputeOccupancy is independent of the order of rooms and coaches.
func ComputeOccupancy(rooms []core.Room, coaches []core.CoachTravel) OccupancyReport {
	report := OccupancyReport{Occupied: make(map[string]struct{})}
	for _, room := range rooms {
		for _, id := range room.Occupants {
			report.Occupied[id] = struct{}{}
		}
	}

	for _, c := range coaches {
		if report.IsOccupied(c.ID) {
			report.Housed++
			continue
		}
		report.Unhoused++
		if c.WantsRoom() {
			report.UnassignedWithPreference = append(report.UnassignedWithPreference, c)
		}
	}
	sort.Slice(report.UnassignedWithPreference, func(i, j int) bool {
		return report.UnassignedWithPreference[i].ID < report.UnassignedWithPreference[j].ID
	})
	return report
}

// TotalRoomCost sums cost per night times nights over all rooms.
func TotalRoomCost(rooms []core.Room) core.Money {
	var total core.Money
	for _, r := range rooms {
		total = total.Add(r.TotalCost())
	}
	return total
}

// ResolveOccupants maps the room's occupant ids to coach names.
func ResolveOccupants(room core.Room, coaches []core.CoachTravel) []string {
	names := make(map[string]string, len(coaches))
	for _, c := range coaches {
		names[c.ID] = c.CoachName
	}
	out := make([]string, 0, len(room.Occupants))
	for _, id := range room.Occupants {
		if name, ok := names[id]; ok {
			out = append(out, name)
			continue
		}
		out = append(out, UnknownName)
	}
	return out
}
