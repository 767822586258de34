package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/iliyamo/meeting-room-reservation/internal/localtime"
	"github.com/iliyamo/meeting-room-reservation/internal/repository"
)

// RoomUsage is the booking volume of one room.
type RoomUsage struct {
	RoomID   string `json:"room_id"`
	RoomName string `json:"room_name"`
	Count    int    `json:"count"`
	Minutes  int64  `json:"minutes"`
}

// HourUsage counts reservations starting in one business-local hour.
type HourUsage struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

type DepartmentUsage struct {
	Department string `json:"department"`
	Count      int    `json:"count"`
}

// Summary aggregates confirmed reservations starting within a range of
// business days.
type Summary struct {
	From         string            `json:"from"`
	To           string            `json:"to"`
	Total        int               `json:"total"`
	TotalMinutes int64             `json:"total_minutes"`
	ByRoom       []RoomUsage       `json:"by_room"`
	ByHour       []HourUsage       `json:"by_hour"`
	ByDepartment []DepartmentUsage `json:"by_department"`
}

// StatsService computes usage statistics for administrators.
type StatsService struct {
	reservations *repository.ReservationRepo
}

func NewStatsService(reservations *repository.ReservationRepo) *StatsService {
	return &StatsService{reservations: reservations}
}

// Summary aggregates reservations starting on business days from..to
// inclusive.  Hours are bucketed in business local time.
func (s *StatsService) Summary(ctx context.Context, from, to string) (*Summary, error) {
	start, end, err := localtime.DayRange(from, to)
	if err != nil {
		return nil, err
	}
	if end.Sub(start) > maxListingSpan {
		return nil, fmt.Errorf("%w: date range too large", ErrInvalidInput)
	}
	rows, err := s.reservations.ListForStats(ctx, start, end)
	if err != nil {
		return nil, err
	}
	sum := Aggregate(rows)
	sum.From = localtime.FromUTC(start).Date()
	sum.To = localtime.FromUTC(end.AddDate(0, 0, -1)).Date()
	return sum, nil
}

// Aggregate folds rows into a Summary.  ByHour always has 24 entries;
// rooms and departments are sorted by count, then name.
func Aggregate(rows []repository.StatRow) *Summary {
	sum := &Summary{ByHour: make([]HourUsage, 24)}
	for h := range sum.ByHour {
		sum.ByHour[h].Hour = h
	}
	rooms := map[string]*RoomUsage{}
	depts := map[string]int{}

	for _, r := range rows {
		minutes := int64(r.EndTime.Sub(r.StartTime).Minutes())
		sum.Total++
		sum.TotalMinutes += minutes

		ru, ok := rooms[r.RoomID]
		if !ok {
			ru = &RoomUsage{RoomID: r.RoomID, RoomName: r.RoomName}
			rooms[r.RoomID] = ru
		}
		ru.Count++
		ru.Minutes += minutes

		sum.ByHour[localtime.FromUTC(r.StartTime).Hour].Count++
		depts[r.Department]++
	}

	sum.ByRoom = make([]RoomUsage, 0, len(rooms))
	for _, ru := range rooms {
		sum.ByRoom = append(sum.ByRoom, *ru)
	}
	sort.Slice(sum.ByRoom, func(i, j int) bool {
		if sum.ByRoom[i].Count != sum.ByRoom[j].Count {
			return sum.ByRoom[i].Count > sum.ByRoom[j].Count
		}
		return sum.ByRoom[i].RoomName < sum.ByRoom[j].RoomName
	})

	sum.ByDepartment = make([]DepartmentUsage, 0, len(depts))
	for d, n := range depts {
		sum.ByDepartment = append(sum.ByDepartment, DepartmentUsage{Department: d, Count: n})
	}
	sort.Slice(sum.ByDepartment, func(i, j int) bool {
		if sum.ByDepartment[i].Count != sum.ByDepartment[j].Count {
			return sum.ByDepartment[i].Count > sum.ByDepartment[j].Count
		}
		return sum.ByDepartment[i].Department < sum.ByDepartment[j].Department
	})
	return sum
}
