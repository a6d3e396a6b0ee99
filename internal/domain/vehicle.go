package domain

// Vehicle record mirrored from the external feed. The dashboard shows a
// single vehicle; its position arrives on a separate location stream and
// is tracked independently of this record.
type Vehicle struct {
	DeviceID       string
	OrganizationID string
	PlateNumber    string
	Status         string
}
