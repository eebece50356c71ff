package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/aeldardin/internal/dungeon"
	"github.com/cory-johannsen/aeldardin/internal/stats"
)

// ErrDungeonNotFound is returned when a dungeon lookup yields no results.
var ErrDungeonNotFound = errors.New("dungeon not found")

// ErrDungeonExists is returned when a dungeon ID is already archived.
var ErrDungeonExists = errors.New("dungeon already exists")

// Record is one archived dungeon.
type Record struct {
	ID        uuid.UUID
	Title     string
	RoomCount int
	Stats     *stats.Tree
	CreatedAt time.Time
}

// RoomRecord is one archived room, in dungeon room order.
type RoomRecord struct {
	Key        dungeon.Key
	Position   int
	Name       string
	RegionPath []string
	Types      dungeon.TypeSet
}

// DungeonRepository archives dungeons and their statistics.
type DungeonRepository struct {
	db *pgxpool.Pool
}

// NewDungeonRepository creates a DungeonRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewDungeonRepository(db *pgxpool.Pool) *DungeonRepository {
	return &DungeonRepository{db: db}
}

// Save archives root together with its statistics tree and room list in a
// single transaction.
//
// Precondition: root must be non-nil.
// Postcondition: Returns the created Record, a *dungeon.DuplicateKeyError when
// the room index cannot be built, or a database error. Nothing is written on error.
func (r *DungeonRepository) Save(ctx context.Context, root *dungeon.Node) (Record, error) {
	if _, err := root.RoomsByKey(); err != nil {
		return Record{}, err
	}

	rec := Record{
		ID:        uuid.New(),
		Title:     root.Title(),
		RoomCount: root.RoomCount(),
		Stats:     stats.Compute(root),
	}
	statsJSON, err := json.Marshal(rec.Stats)
	if err != nil {
		return Record{}, fmt.Errorf("encoding stats: %w", err)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return Record{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	err = tx.QueryRow(ctx,
		`INSERT INTO dungeons (id, title, room_count, stats)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at`,
		rec.ID, rec.Title, rec.RoomCount, statsJSON,
	).Scan(&rec.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return Record{}, ErrDungeonExists
		}
		return Record{}, fmt.Errorf("inserting dungeon: %w", err)
	}

	batch := &pgx.Batch{}
	for i, room := range root.Rooms() {
		batch.Queue(
			`INSERT INTO dungeon_rooms (dungeon_id, room_key, position, name, region_path, types)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			rec.ID, room.Key().String(), i, room.Name(), room.RegionPath(), room.Types().String(),
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return Record{}, fmt.Errorf("inserting rooms: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Record{}, fmt.Errorf("committing dungeon: %w", err)
	}
	return rec, nil
}

// Get retrieves an archived dungeon by ID.
//
// Postcondition: Returns the Record with Stats decoded, or ErrDungeonNotFound.
func (r *DungeonRepository) Get(ctx context.Context, id uuid.UUID) (Record, error) {
	var (
		rec       Record
		statsJSON []byte
	)
	err := r.db.QueryRow(ctx,
		`SELECT id, title, room_count, stats, created_at
		 FROM dungeons WHERE id = $1`,
		id,
	).Scan(&rec.ID, &rec.Title, &rec.RoomCount, &statsJSON, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrDungeonNotFound
		}
		return Record{}, fmt.Errorf("querying dungeon: %w", err)
	}

	rec.Stats = &stats.Tree{}
	if err := json.Unmarshal(statsJSON, rec.Stats); err != nil {
		return Record{}, fmt.Errorf("decoding stats for dungeon %s: %w", id, err)
	}
	return rec, nil
}

// List returns every archived dungeon, newest first, without statistics.
func (r *DungeonRepository) List(ctx context.Context) ([]Record, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, title, room_count, created_at
		 FROM dungeons ORDER BY created_at DESC, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing dungeons: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.Title, &rec.RoomCount, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning dungeon: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating dungeons: %w", err)
	}
	return out, nil
}

// Rooms returns the archived rooms of a dungeon in their original order.
//
// Postcondition: Returns the rooms (possibly empty), or ErrDungeonNotFound
// when no dungeon has the given ID.
func (r *DungeonRepository) Rooms(ctx context.Context, id uuid.UUID) ([]RoomRecord, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM dungeons WHERE id = $1)`, id).Scan(&exists); err != nil {
		return nil, fmt.Errorf("checking dungeon: %w", err)
	}
	if !exists {
		return nil, ErrDungeonNotFound
	}

	rows, err := r.db.Query(ctx,
		`SELECT room_key, position, name, region_path, types
		 FROM dungeon_rooms WHERE dungeon_id = $1 ORDER BY position`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("querying rooms: %w", err)
	}
	defer rows.Close()

	var out []RoomRecord
	for rows.Next() {
		var (
			rr    RoomRecord
			key   string
			types string
		)
		if err := rows.Scan(&key, &rr.Position, &rr.Name, &rr.RegionPath, &types); err != nil {
			return nil, fmt.Errorf("scanning room: %w", err)
		}
		rr.Key = dungeon.Key(key)
		if rr.Types, err = dungeon.ParseTypeSet(types); err != nil {
			return nil, fmt.Errorf("room %s: %w", key, err)
		}
		out = append(out, rr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rooms: %w", err)
	}
	return out, nil
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	// pgx wraps PostgreSQL errors; check for SQLSTATE 23505 (unique_violation)
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}
