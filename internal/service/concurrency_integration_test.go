package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/meeting-room-reservation/internal/config"
	"github.com/iliyamo/meeting-room-reservation/internal/conflict"
	"github.com/iliyamo/meeting-room-reservation/internal/database"
	"github.com/iliyamo/meeting-room-reservation/internal/logger"
	"github.com/iliyamo/meeting-room-reservation/internal/model"
	"github.com/iliyamo/meeting-room-reservation/internal/repository"
)

// TestConcurrentCreateSingleWinner needs a disposable MySQL database, e.g.
// TEST_MYSQL_DSN="root:pw@tcp(127.0.0.1:3306)/rooms_test?parseTime=true&loc=UTC&multiStatements=true".
func TestConcurrentCreateSingleWinner(t *testing.T) {
	dsn := os.Getenv("TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("TEST_MYSQL_DSN not set")
	}
	ctx := context.Background()
	db, err := database.OpenDSN(dsn)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, database.Migrate(ctx, db))

	suffix := uuid.NewString()[:8]
	user := &model.User{EmployeeID: "it-" + suffix, Name: "Load Tester", Department: "QA"}
	require.NoError(t, repository.NewUserRepo(db).Create(ctx, user, 4))

	rooms := repository.NewRoomRepo(db)
	roomSvc := NewRoomService(rooms, logger.Nop())
	name, capacity := "it-room-"+suffix, uint32(4)
	room, err := roomSvc.Create(ctx, RoomInput{Name: &name, Capacity: &capacity})
	require.NoError(t, err)

	svc := NewReservationService(db, repository.NewReservationRepo(db), rooms,
		conflict.NewEngine(5*time.Second), config.DefaultPolicy(), nil, logger.Nop())

	const writers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		wins      int
		conflicts int
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// Every writer overlaps 10:00-11:00 by at least 30 minutes.
			start := fmt.Sprintf("%02d:%02d", 9+(i%2), 30*(i%2))
			_, err := svc.Create(ctx, CreateInput{
				RoomID: room.ID, UserID: user.ID, Title: fmt.Sprintf("writer %d", i),
				Date: "2031-03-14", StartTime: start, EndTime: "11:00",
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, conflict.ErrConflictDetected):
				conflicts++
			default:
				t.Errorf("writer %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, writers-1, conflicts)

	list, err := svc.ListPublic(ctx, "2031-03-14", "2031-03-14")
	require.NoError(t, err)
	n := 0
	for _, v := range list {
		if v.RoomID == room.ID {
			n++
		}
	}
	assert.Equal(t, 1, n)
}
