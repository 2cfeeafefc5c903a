package store

import (
	"context"
	"database/sql"
	"fmt"

	"gitea.kood.tech/petrkubec/campus-compass/backend/compass"
	"github.com/lib/pq"
)

// Schema creates the two catalog tables. Row order is kept in position.
const Schema = `
CREATE TABLE IF NOT EXISTS roommates (
	id              SERIAL PRIMARY KEY,
	position        INT NOT NULL,
	name            TEXT NOT NULL UNIQUE,
	cleanliness     SMALLINT NOT NULL CHECK (cleanliness BETWEEN 1 AND 5),
	noise_tolerance SMALLINT NOT NULL CHECK (noise_tolerance BETWEEN 1 AND 5),
	sleep_schedule  SMALLINT NOT NULL CHECK (sleep_schedule BETWEEN 1 AND 5),
	food_preference TEXT NOT NULL CHECK (food_preference IN ('Veg', 'Non-Veg')),
	budget          DOUBLE PRECISION NOT NULL CHECK (budget > 0),
	note            TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS housing_listings (
	id             SERIAL PRIMARY KEY,
	position       INT NOT NULL,
	name           TEXT NOT NULL UNIQUE,
	rent           DOUBLE PRECISION NOT NULL CHECK (rent > 0),
	type           TEXT NOT NULL CHECK (type IN ('Shared', 'Private')),
	distance_miles DOUBLE PRECISION NOT NULL CHECK (distance_miles > 0),
	note           TEXT NOT NULL DEFAULT ''
);
`

// CreateSchema makes sure the catalog tables exist.
func CreateSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// PostgresStore reads the catalog tables.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const (
	roommateColumns = `name, cleanliness, noise_tolerance, sleep_schedule, food_preference, budget, note`
	listingColumns  = `name, rent, type, distance_miles, note`
)

func (s *PostgresStore) Catalog(ctx context.Context) (compass.Catalog, error) {
	var c compass.Catalog

	rows, err := s.db.QueryContext(ctx, `SELECT `+roommateColumns+` FROM roommates ORDER BY position, id`)
	if err != nil {
		return c, fmt.Errorf("query roommates: %w", err)
	}
	c.Roommates, err = scanRoommates(rows)
	if err != nil {
		return c, err
	}

	rows, err = s.db.QueryContext(ctx, `SELECT `+listingColumns+` FROM housing_listings ORDER BY position, id`)
	if err != nil {
		return c, fmt.Errorf("query housing: %w", err)
	}
	c.Housing, err = scanListings(rows)
	if err != nil {
		return c, err
	}

	if err := c.Validate(); err != nil {
		return compass.Catalog{}, err
	}
	return c, nil
}

func (s *PostgresStore) RoommatesByName(ctx context.Context, names []string) (map[string]compass.RoommateProfile, error) {
	out := make(map[string]compass.RoommateProfile, len(names))
	if len(names) == 0 {
		return out, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+roommateColumns+` FROM roommates WHERE lower(name) = ANY($1)`,
		pq.Array(nameKeys(names)))
	if err != nil {
		return nil, fmt.Errorf("query roommates by name: %w", err)
	}
	found, err := scanRoommates(rows)
	if err != nil {
		return nil, err
	}
	for _, r := range found {
		out[NameKey(r.Name)] = r
	}
	return out, nil
}

func (s *PostgresStore) ListingsByName(ctx context.Context, names []string) (map[string]compass.HousingListing, error) {
	out := make(map[string]compass.HousingListing, len(names))
	if len(names) == 0 {
		return out, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+listingColumns+` FROM housing_listings WHERE lower(name) = ANY($1)`,
		pq.Array(nameKeys(names)))
	if err != nil {
		return nil, fmt.Errorf("query housing by name: %w", err)
	}
	found, err := scanListings(rows)
	if err != nil {
		return nil, err
	}
	for _, h := range found {
		out[NameKey(h.Name)] = h
	}
	return out, nil
}

func scanRoommates(rows *sql.Rows) ([]compass.RoommateProfile, error) {
	defer rows.Close()
	var out []compass.RoommateProfile
	for rows.Next() {
		var r compass.RoommateProfile
		var food string
		if err := rows.Scan(&r.Name, &r.Cleanliness, &r.NoiseTolerance, &r.SleepSchedule, &food, &r.Budget, &r.Note); err != nil {
			return nil, fmt.Errorf("scan roommate: %w", err)
		}
		f, err := compass.ParseFoodPreference(food)
		if err != nil {
			return nil, fmt.Errorf("roommate %q: %w", r.Name, err)
		}
		r.FoodPreference = f
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanListings(rows *sql.Rows) ([]compass.HousingListing, error) {
	defer rows.Close()
	var out []compass.HousingListing
	for rows.Next() {
		var h compass.HousingListing
		var typ string
		if err := rows.Scan(&h.Name, &h.Rent, &typ, &h.DistanceMiles, &h.Note); err != nil {
			return nil, fmt.Errorf("scan listing: %w", err)
		}
		t, err := compass.ParseHousingType(typ)
		if err != nil {
			return nil, fmt.Errorf("listing %q: %w", h.Name, err)
		}
		h.Type = t
		out = append(out, h)
	}
	return out, rows.Err()
}

func nameKeys(names []string) []string {
	keys := make([]string, len(names))
	for i, n := range names {
		keys[i] = NameKey(n)
	}
	return keys
}

// Seed writes c into the catalog tables inside one transaction. Existing rows
// with the same name are updated in place; truncate clears both tables first.
func Seed(ctx context.Context, db *sql.DB, c compass.Catalog, truncate bool) error {
	if err := c.Validate(); err != nil {
		return err
	}
	return withTx(ctx, db, func(tx *sql.Tx) error {
		if truncate {
			if _, err := tx.ExecContext(ctx, `TRUNCATE roommates, housing_listings RESTART IDENTITY`); err != nil {
				return fmt.Errorf("truncate: %w", err)
			}
		}
		for i, r := range c.Roommates {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO roommates (position, `+roommateColumns+`)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
				ON CONFLICT (name) DO UPDATE SET
					position = EXCLUDED.position,
					cleanliness = EXCLUDED.cleanliness,
					noise_tolerance = EXCLUDED.noise_tolerance,
					sleep_schedule = EXCLUDED.sleep_schedule,
					food_preference = EXCLUDED.food_preference,
					budget = EXCLUDED.budget,
					note = EXCLUDED.note
			`, i, r.Name, r.Cleanliness, r.NoiseTolerance, r.SleepSchedule, r.FoodPreference.String(), r.Budget, r.Note)
			if err != nil {
				return fmt.Errorf("insert roommate %q: %w", r.Name, err)
			}
		}
		for i, h := range c.Housing {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO housing_listings (position, `+listingColumns+`)
				VALUES ($1, $2, $3, $4, $5, $6)
				ON CONFLICT (name) DO UPDATE SET
					position = EXCLUDED.position,
					rent = EXCLUDED.rent,
					type = EXCLUDED.type,
					distance_miles = EXCLUDED.distance_miles,
					note = EXCLUDED.note
			`, i, h.Name, h.Rent, string(h.Type), h.DistanceMiles, h.Note)
			if err != nil {
				return fmt.Errorf("insert listing %q: %w", h.Name, err)
			}
		}
		return nil
	})
}

// withTx commits on success and rolls back on error or panic.
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
