// SPDX-License-Identifier: MIT
package preset

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Table is the table SQLiteSource reads from. The schema is owned by the
// application that edits presets:
//
//	CREATE TABLE visualizer_presets (
//	    name TEXT PRIMARY KEY,
//	    type TEXT NOT NULL,
//	    grid_size INTEGER NOT NULL,
//	    color_primary TEXT NOT NULL,
//	    color_secondary TEXT NOT NULL,
//	    color_accent TEXT NOT NULL,
//	    rotation INTEGER NOT NULL,
//	    scaling INTEGER NOT NULL,
//	    pulsing INTEGER NOT NULL,
//	    particles INTEGER NOT NULL,
//	    sensitivity_bass REAL NOT NULL,
//	    sensitivity_mid REAL NOT NULL,
//	    sensitivity_treble REAL NOT NULL
//	);
const Table = "visualizer_presets"

const selectPresets = `
	SELECT name, type, grid_size, color_primary, color_secondary, color_accent,
	       rotation, scaling, pulsing, particles,
	       sensitivity_bass, sensitivity_mid, sensitivity_treble
	FROM ` + Table

// SQLiteSource reads presets from a SQLite database opened read-only.
type SQLiteSource struct {
	db *sql.DB
}

// OpenSQLite opens the database at path read-only.
func OpenSQLite(path string) (*SQLiteSource, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("error opening preset database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error opening preset database: %w", err)
	}
	return &SQLiteSource{db: db}, nil
}

func (s *SQLiteSource) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteSource) List(ctx context.Context) ([]Preset, error) {
	rows, err := s.db.QueryContext(ctx, selectPresets+" ORDER BY name COLLATE NOCASE")
	if err != nil {
		return nil, fmt.Errorf("error querying presets: %w", err)
	}
	defer rows.Close()

	var presets []Preset
	for rows.Next() {
		p, err := scanPreset(rows)
		if err != nil {
			return nil, err
		}
		presets = append(presets, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading presets: %w", err)
	}
	return presets, nil
}

func (s *SQLiteSource) Get(ctx context.Context, name string) (Preset, error) {
	row := s.db.QueryRowContext(ctx, selectPresets+" WHERE name = ? COLLATE NOCASE", name)
	p, err := scanPreset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Preset{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return p, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPreset(row scanner) (Preset, error) {
	var (
		p                          Preset
		geometry                   string
		primary, secondary, accent string
	)
	err := row.Scan(&p.Name, &geometry, &p.GridSize, &primary, &secondary, &accent,
		&p.Effects.Rotation, &p.Effects.Scaling, &p.Effects.Pulsing, &p.Effects.Particles,
		&p.Sensitivity.Bass, &p.Sensitivity.Mid, &p.Sensitivity.Treble)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Preset{}, err
		}
		return Preset{}, fmt.Errorf("error scanning preset: %w", err)
	}

	if p.Geometry, err = ParseGeometry(geometry); err != nil {
		return Preset{}, fmt.Errorf("preset %q: %w", p.Name, err)
	}
	for _, c := range []struct {
		dst *Color
		hex string
	}{{&p.Colors.Primary, primary}, {&p.Colors.Secondary, secondary}, {&p.Colors.Accent, accent}} {
		if *c.dst, err = ParseColor(c.hex); err != nil {
			return Preset{}, fmt.Errorf("preset %q: %w", p.Name, err)
		}
	}
	valid, err := New(p)
	if err != nil {
		return Preset{}, fmt.Errorf("preset %q: %w", p.Name, err)
	}
	return valid, nil
}
