package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/meeting-room-reservation/internal/config"
	"github.com/iliyamo/meeting-room-reservation/internal/logger"
	"github.com/iliyamo/meeting-room-reservation/internal/model"
	"github.com/iliyamo/meeting-room-reservation/internal/repository"
)

// RoomService manages the bookable rooms.
type RoomService struct {
	rooms *repository.RoomRepo
	log   *logger.Logger
	newID func() string
}

func NewRoomService(rooms *repository.RoomRepo, log *logger.Logger) *RoomService {
	return &RoomService{rooms: rooms, log: log, newID: func() string { return uuid.NewString() }}
}

// RoomInput carries the editable room fields.  On update, nil fields are
// left unchanged.
type RoomInput struct {
	Name        *string
	Description *string
	Capacity    *uint32
	Location    *string
	Amenities   map[string]bool
	IsActive    *bool
}

// RoomFilter narrows the public room listing.
type RoomFilter = repository.RoomFilter

func (s *RoomService) ListActive(ctx context.Context, f RoomFilter) ([]*model.Room, error) {
	return s.rooms.ListActive(ctx, f)
}

func (s *RoomService) ListAll(ctx context.Context) ([]*model.Room, error) {
	return s.rooms.ListAll(ctx)
}

func (s *RoomService) Get(ctx context.Context, id string) (*model.Room, error) {
	rm, err := s.rooms.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	return rm, nil
}

// Create adds a new active room.  Name and a positive capacity are required.
func (s *RoomService) Create(ctx context.Context, in RoomInput) (*model.Room, error) {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" || in.Capacity == nil || *in.Capacity == 0 {
		return nil, ErrInvalidInput
	}
	rm := &model.Room{
		ID:          s.newID(),
		Name:        strings.TrimSpace(*in.Name),
		Description: trimmed(in.Description),
		Capacity:    *in.Capacity,
		Location:    trimmed(in.Location),
		Amenities:   in.Amenities,
		IsActive:    true,
	}
	if err := s.rooms.Create(ctx, rm); err != nil {
		return nil, mapRepoErr(err)
	}
	s.log.Info("room created", logger.Action("room_create"), logger.Room(rm.ID), logger.F("NAME", rm.Name))
	return rm, nil
}

// Update applies the non-nil fields of in to the room.
func (s *RoomService) Update(ctx context.Context, id string, in RoomInput) (*model.Room, error) {
	rm, err := s.rooms.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	if in.Name != nil {
		if rm.Name = strings.TrimSpace(*in.Name); rm.Name == "" {
			return nil, ErrInvalidInput
		}
	}
	if in.Capacity != nil {
		if *in.Capacity == 0 {
			return nil, ErrInvalidInput
		}
		rm.Capacity = *in.Capacity
	}
	if in.Description != nil {
		rm.Description = trimmed(in.Description)
	}
	if in.Location != nil {
		rm.Location = trimmed(in.Location)
	}
	if in.Amenities != nil {
		rm.Amenities = in.Amenities
	}
	if in.IsActive != nil {
		rm.IsActive = *in.IsActive
	}
	if err := s.rooms.Update(ctx, rm); err != nil {
		return nil, mapRepoErr(err)
	}
	s.log.Info("room updated", logger.Action("room_update"), logger.Room(rm.ID))
	return rm, nil
}

// Deactivate stops new bookings for a room.  Existing reservations stay.
func (s *RoomService) Deactivate(ctx context.Context, id string) (*model.Room, error) {
	inactive := false
	return s.Update(ctx, id, RoomInput{IsActive: &inactive})
}

// Seed creates the configured rooms that do not exist yet and returns how
// many were created.  Existing rooms are left untouched.
func (s *RoomService) Seed(ctx context.Context, seeds []config.RoomSeed) (int, error) {
	created := 0
	for _, seed := range seeds {
		if _, err := s.rooms.GetByName(ctx, seed.Name); err == nil {
			continue
		} else if !errors.Is(err, repository.ErrRoomNotFound) {
			return created, err
		}
		amenities := make(map[string]bool, len(seed.Amenities))
		for _, a := range seed.Amenities {
			amenities[a] = true
		}
		name, desc, loc, capacity := seed.Name, seed.Description, seed.Location, seed.Capacity
		if _, err := s.Create(ctx, RoomInput{Name: &name, Description: &desc, Location: &loc, Capacity: &capacity, Amenities: amenities}); err != nil {
			if errors.Is(err, ErrNameTaken) {
				continue
			}
			return created, err
		}
		created++
	}
	if created > 0 {
		s.log.Info("rooms seeded", logger.Action("room_seed"), logger.Count(created))
	}
	return created, nil
}
