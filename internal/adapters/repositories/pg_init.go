package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Initialize the mirror schema.
func InitSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createVehiclesQuery := `
	CREATE TABLE IF NOT EXISTS vehicles (
		device_id TEXT PRIMARY KEY,
		organization_id TEXT NOT NULL,
		plate_number TEXT,
		status TEXT
	);
	`

	createPickupPointsQuery := `
	CREATE TABLE IF NOT EXISTS pickup_points (
		id TEXT PRIMARY KEY,
		organization_id TEXT NOT NULL,
		name TEXT,
		email TEXT,
		phone TEXT,
		owner_user_id TEXT,
		device_id TEXT,
		latitude DOUBLE PRECISION NOT NULL,
		longitude DOUBLE PRECISION NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT FALSE
	);
	`

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_pickup_points_org_active
	ON pickup_points(organization_id, is_active);
	`

	statements := []string{
		createVehiclesQuery,
		createPickupPointsQuery,
		createIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

type PickupPointSeed struct {
	ID             string  `json:"id"`
	OrganizationID string  `json:"organization_id"`
	Name           string  `json:"name"`
	Email          string  `json:"email"`
	Phone          string  `json:"phone"`
	OwnerUserID    string  `json:"owner_user_id"`
	DeviceID       string  `json:"device_id"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	IsActive       bool    `json:"is_active"`
}

// Populate the mirror with pickup points from a JSON file, for local runs
// without a live backend.
func SeedFromJSON(db *sql.DB, jsonPath string) error {
	raw, err := os.ReadFile(jsonPath)
	if err != nil {
		return fmt.Errorf("seed pickup points: read %q: %w", jsonPath, err)
	}

	var data []PickupPointSeed
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("seed pickup points: parse json: %w", err)
	}

	for i, item := range data {
		if strings.TrimSpace(item.ID) == "" {
			return fmt.Errorf("seed pickup points: empty id at index %d", i)
		}
		if strings.TrimSpace(item.OrganizationID) == "" {
			return fmt.Errorf("seed pickup points: empty organization_id at index %d", i)
		}
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed pickup points: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
	INSERT INTO pickup_points (
		id, organization_id, name, email, phone,
		owner_user_id, device_id, latitude, longitude, is_active
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (id) DO UPDATE
	SET organization_id = EXCLUDED.organization_id,
		name = EXCLUDED.name,
		email = EXCLUDED.email,
		phone = EXCLUDED.phone,
		owner_user_id = EXCLUDED.owner_user_id,
		device_id = EXCLUDED.device_id,
		latitude = EXCLUDED.latitude,
		longitude = EXCLUDED.longitude,
		is_active = EXCLUDED.is_active;
	`
	stmt, err := tx.Prepare(query)
	if err != nil {
		return fmt.Errorf("seed pickup points: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range data {
		_, err := stmt.Exec(
			p.ID, p.OrganizationID, p.Name, p.Email, p.Phone,
			p.OwnerUserID, p.DeviceID, p.Latitude, p.Longitude, p.IsActive,
		)
		if err != nil {
			return fmt.Errorf("seed pickup points: insert id=%q: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed pickup points: commit tx: %w", err)
	}

	return nil
}
