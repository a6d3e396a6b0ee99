package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fleet-dashboard-service/internal/domain"
	"fleet-dashboard-service/internal/platform/obs"
)

// Postgres-backed implementation of the PickupPointRepository port. The
// realtime feed keeps the in-memory mirror current; this repository only
// serves the initial snapshot and the owning vehicle record.
type PgPickupRepository struct {
	DB             *sql.DB
	OrganizationID string
}

func NewPgPickupRepository(db *sql.DB, organizationID string) *PgPickupRepository {
	return &PgPickupRepository{DB: db, OrganizationID: organizationID}
}

// Return all pickup points for the organization, active or not. Filtering
// by is_active stays with the caller, which re-filters on every use.
func (r *PgPickupRepository) ListPickupPoints(ctx context.Context) (_ []*domain.PickupPoint, err error) {
	defer obs.Time(ctx, "repo.ListPickupPoints")(&err)

	if r.DB == nil {
		return nil, errors.New("pickup repository: DB is nil")
	}

	query := `
	SELECT
		id,
		name,
		email,
		phone,
		owner_user_id,
		device_id,
		latitude,
		longitude,
		is_active
	FROM pickup_points
	WHERE organization_id = $1
	ORDER BY id;
	`
	rows, err := r.DB.QueryContext(ctx, query, r.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("list pickup points: query pickup_points table: %w", err)
	}
	defer rows.Close()

	points := make([]*domain.PickupPoint, 0, 64)
	for rows.Next() {
		var p domain.PickupPoint
		var name, email, phone, ownerUserID, deviceID sql.NullString
		err := rows.Scan(&p.ID, &name, &email, &phone, &ownerUserID, &deviceID, &p.Lat, &p.Lon, &p.IsActive)
		if err != nil {
			return nil, fmt.Errorf("list pickup points: scan row: %w", err)
		}
		p.Name = name.String
		p.Email = email.String
		p.Phone = phone.String
		p.OwnerUserID = ownerUserID.String
		p.DeviceID = deviceID.String
		points = append(points, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list pickup points: row iteration: %w", err)
	}

	return points, nil
}

// Return the vehicle record owning this dashboard.
func (r *PgPickupRepository) GetVehicle(ctx context.Context, deviceID string) (*domain.Vehicle, error) {
	if r.DB == nil {
		return nil, errors.New("pickup repository: DB is nil")
	}

	query := `
	SELECT
		device_id,
		organization_id,
		plate_number,
		status
	FROM vehicles
	WHERE device_id = $1;
	`
	var v domain.Vehicle
	var plate, status sql.NullString
	err := r.DB.QueryRowContext(ctx, query, deviceID).Scan(&v.DeviceID, &v.OrganizationID, &plate, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get vehicle: device_id=%q not found", deviceID)
	}
	if err != nil {
		return nil, fmt.Errorf("get vehicle: query vehicles table: %w", err)
	}
	v.PlateNumber = plate.String
	v.Status = status.String

	return &v, nil
}
