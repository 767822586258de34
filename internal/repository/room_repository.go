package repository // repository holds data access logic for domain entities

import (
	"context"       // context is used to manage deadlines and cancellation
	"database/sql"  // sql provides DB primitives
	"encoding/json" // amenities are stored in a JSON column
	"strings"

	"github.com/iliyamo/meeting-room-reservation/internal/model"
)

const roomColumns = `id, name, description, capacity, location, amenities, is_active, created_at, updated_at`

// RoomRepo provides methods to create, lock and retrieve rooms.
type RoomRepo struct {
	db *sql.DB // db is the underlying database connection
}

// NewRoomRepo constructs a RoomRepo with the given DB handle.
func NewRoomRepo(db *sql.DB) *RoomRepo {
	return &RoomRepo{db: db}
}

func scanRoom(s rowScanner) (*model.Room, error) {
	var (
		rm        model.Room
		desc, loc sql.NullString
		amenities []byte
	)
	if err := s.Scan(&rm.ID, &rm.Name, &desc, &rm.Capacity, &loc, &amenities, &rm.IsActive, &rm.CreatedAt, &rm.UpdatedAt); err != nil {
		return nil, err
	}
	rm.Description = stringPtr(desc)
	rm.Location = stringPtr(loc)
	rm.Amenities = map[string]bool{}
	if len(amenities) > 0 {
		if err := json.Unmarshal(amenities, &rm.Amenities); err != nil {
			return nil, err
		}
	}
	return &rm, nil
}

func getRoom(ctx context.Context, q querier, query string, args ...any) (*model.Room, error) {
	rm, err := scanRoom(q.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, notFound(err, ErrRoomNotFound)
	}
	return rm, nil
}

func amenitiesJSON(m map[string]bool) ([]byte, error) {
	if m == nil {
		m = map[string]bool{}
	}
	return json.Marshal(m)
}

// Create inserts a new room.  The caller assigns ID.  The row is read back
// so is_active and the timestamps reflect the database defaults.
func (r *RoomRepo) Create(ctx context.Context, rm *model.Room) error {
	am, err := amenitiesJSON(rm.Amenities)
	if err != nil {
		return err
	}
	const qInsert = `INSERT INTO rooms (id, name, description, capacity, location, amenities)
	                 VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, qInsert, rm.ID, rm.Name, nullString(rm.Description), rm.Capacity, nullString(rm.Location), am); err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	fresh, err := r.GetByID(ctx, rm.ID)
	if err != nil {
		return err
	}
	*rm = *fresh
	return nil
}

// GetByID retrieves a room regardless of its active flag.  It returns
// ErrRoomNotFound when no row is found.
func (r *RoomRepo) GetByID(ctx context.Context, id string) (*model.Room, error) {
	return getRoom(ctx, r.db, `SELECT `+roomColumns+` FROM rooms WHERE id = ?`, id)
}

// GetByName retrieves a room by its unique name.
func (r *RoomRepo) GetByName(ctx context.Context, name string) (*model.Room, error) {
	return getRoom(ctx, r.db, `SELECT `+roomColumns+` FROM rooms WHERE name = ?`, name)
}

// LockTx reads the room with an exclusive row lock held until tx ends.
// Every reservation write takes this lock first, so check-then-write runs
// for at most one writer per room at a time.
func (r *RoomRepo) LockTx(ctx context.Context, tx *sql.Tx, id string) (*model.Room, error) {
	return getRoom(ctx, tx, `SELECT `+roomColumns+` FROM rooms WHERE id = ? FOR UPDATE`, id)
}

// RoomFilter narrows the active room listing.  Query matches name or
// location case-insensitively; MinCapacity of 0 means any size.
type RoomFilter struct {
	Query       string
	MinCapacity uint32
}

// ListActive returns the rooms open for booking that match f, ordered by
// name, or by capacity then name when MinCapacity is set.
func (r *RoomRepo) ListActive(ctx context.Context, f RoomFilter) ([]*model.Room, error) {
	where := []string{"is_active = 1"}
	args := []any{}
	if q := strings.TrimSpace(f.Query); q != "" {
		where = append(where, "(LOWER(name) LIKE ? OR LOWER(location) LIKE ?)")
		pattern := "%" + likeEscaper.Replace(strings.ToLower(q)) + "%"
		args = append(args, pattern, pattern)
	}
	order := "name"
	if f.MinCapacity > 0 {
		where = append(where, "capacity >= ?")
		args = append(args, f.MinCapacity)
		order = "capacity, name"
	}
	return r.list(ctx, `SELECT `+roomColumns+` FROM rooms WHERE `+strings.Join(where, " AND ")+` ORDER BY `+order, args...)
}

// likeEscaper makes user text literal inside a LIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ListAll returns every room, active first.
func (r *RoomRepo) ListAll(ctx context.Context) ([]*model.Room, error) {
	return r.list(ctx, `SELECT `+roomColumns+` FROM rooms ORDER BY is_active DESC, name`)
}

func (r *RoomRepo) list(ctx context.Context, q string, args ...any) ([]*model.Room, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*model.Room{}
	for rows.Next() {
		rm, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rm)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Update overwrites the editable fields of a room.  Returns ErrRoomNotFound
// when no row has the given ID.
func (r *RoomRepo) Update(ctx context.Context, rm *model.Room) error {
	am, err := amenitiesJSON(rm.Amenities)
	if err != nil {
		return err
	}
	const q = `UPDATE rooms
               SET name = ?, description = ?, capacity = ?, location = ?, amenities = ?, is_active = ?, updated_at = CURRENT_TIMESTAMP(3)
               WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q,
		rm.Name, nullString(rm.Description), rm.Capacity, nullString(rm.Location), am, rm.IsActive, rm.ID,
	)
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrRoomNotFound
	}
	return nil
}
