package model

import "time"

// Reservation statuses.  Cancelled is terminal.
const (
    StatusConfirmed = "confirmed"
    StatusCancelled = "cancelled"
)

// Reservation books a room for a half-open interval [StartTime, EndTime).
// Times are UTC instants; the API renders them in business local time.
//
// Fields:
//  ID                 – UUID primary key.
//  RoomID             – booked room.
//  UserID             – employee who made the booking.
//  Title              – meeting title.
//  Purpose            – optional free text.
//  StartTime, EndTime – UTC instants, EndTime after StartTime.
//  Status             – confirmed or cancelled.
//  CancellationReason – set only when the reservation is cancelled.
type Reservation struct {
    ID                 string    `json:"id"`                            // reservations.id
    RoomID             string    `json:"room_id"`                       // reservations.room_id
    UserID             uint64    `json:"user_id"`                       // reservations.user_id
    Title              string    `json:"title"`                         // reservations.title
    Purpose            *string   `json:"purpose,omitempty"`             // reservations.purpose (nullable)
    StartTime          time.Time `json:"start_time"`                    // reservations.start_time
    EndTime            time.Time `json:"end_time"`                      // reservations.end_time
    Status             string    `json:"status"`                        // reservations.status
    CancellationReason *string   `json:"cancellation_reason,omitempty"` // reservations.cancellation_reason (nullable)
    CreatedAt          time.Time `json:"created_at"`                    // reservations.created_at
    UpdatedAt          time.Time `json:"updated_at"`                    // reservations.updated_at
}

// IsCancelled reports whether the reservation reached its terminal state.
func (r *Reservation) IsCancelled() bool { return r.Status == StatusCancelled }

// ReservationView is a reservation joined with the room and booker names,
// used by listings.
type ReservationView struct {
    Reservation
    RoomName   string `json:"room_name"`
    UserName   string `json:"user_name"`
    Department string `json:"department"`
}
