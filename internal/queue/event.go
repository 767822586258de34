// Package queue defines message payloads exchanged over the message broker
// and the RabbitMQ publisher and consumer that carry them.
package queue

import (
    "time"

    "github.com/iliyamo/meeting-room-reservation/internal/localtime"
    "github.com/iliyamo/meeting-room-reservation/internal/model"
)

// QueueName is the durable queue carrying reservation lifecycle events.
const QueueName = "reservation.events"

// Event kinds.
const (
    EventCreated   = "reservation.created"
    EventUpdated   = "reservation.updated"
    EventCancelled = "reservation.cancelled"
    EventDeleted   = "reservation.deleted"
)

// ReservationEvent is published after a reservation write commits.  It
// carries enough for downstream consumers to log or notify without
// querying the primary database.
type ReservationEvent struct {
    Kind          string  `json:"kind"`
    ReservationID string  `json:"reservation_id"`
    RoomID        string  `json:"room_id"`
    RoomName      string  `json:"room_name,omitempty"`
    UserID        uint64  `json:"user_id"`
    ActorID       uint64  `json:"actor_id"`
    Title         string  `json:"title,omitempty"`
    StartsAt      string  `json:"starts_at"`
    EndsAt        string  `json:"ends_at"`
    LocalDate     string  `json:"local_date"`
    LocalStart    string  `json:"local_start"`
    LocalEnd      string  `json:"local_end"`
    Reason        *string `json:"reason,omitempty"`
    OccurredAt    string  `json:"occurred_at"`
}

// NewReservationEvent fills an event from a reservation snapshot.
func NewReservationEvent(kind string, r *model.Reservation, roomName string, actorID uint64, at time.Time) ReservationEvent {
    start := localtime.FromUTC(r.StartTime)
    return ReservationEvent{
        Kind:          kind,
        ReservationID: r.ID,
        RoomID:        r.RoomID,
        RoomName:      roomName,
        UserID:        r.UserID,
        ActorID:       actorID,
        Title:         r.Title,
        StartsAt:      r.StartTime.UTC().Format(time.RFC3339),
        EndsAt:        r.EndTime.UTC().Format(time.RFC3339),
        LocalDate:     start.Date(),
        LocalStart:    start.Clock(),
        LocalEnd:      localtime.FromUTC(r.EndTime).Clock(),
        Reason:        r.CancellationReason,
        OccurredAt:    at.UTC().Format(time.RFC3339),
    }
}
