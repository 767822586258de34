package model

import "time"

// Room represents a bookable meeting room.  Rooms are never removed while
// reservations reference them; deactivating a room takes it out of booking
// flows but keeps its history readable.
//
// Fields:
//  ID          – UUID primary key.
//  Name        – unique display name.
//  Description – optional free text.
//  Capacity    – number of seats.
//  Location    – optional floor/building label.
//  Amenities   – equipment flags such as projector or whiteboard.
//  IsActive    – whether the room accepts new reservations.
type Room struct {
    ID          string          `json:"id"`                    // rooms.id
    Name        string          `json:"name"`                  // rooms.name
    Description *string         `json:"description,omitempty"` // rooms.description (nullable)
    Capacity    uint32          `json:"capacity"`              // rooms.capacity
    Location    *string         `json:"location,omitempty"`    // rooms.location (nullable)
    Amenities   map[string]bool `json:"amenities"`             // rooms.amenities (JSON)
    IsActive    bool            `json:"is_active"`             // rooms.is_active
    CreatedAt   time.Time       `json:"created_at"`            // rooms.created_at
    UpdatedAt   time.Time       `json:"updated_at"`            // rooms.updated_at
}
