package domain

import "time"

// Vehicle is the rate-card read model for an electric vehicle. The
// booking core reads pricing fields and writes only the availability
// flag; all other vehicle metadata is owned by the directory.
type Vehicle struct {
	ID           string
	Name         string
	PlateNumber  string
	StationID    string
	PricePerHour int64 // whole VND
	PricePerDay  int64 // whole VND
	Deposit      int64 // whole VND, duration-independent
	Available    bool
	CreatedAt    time.Time
}

// Station is a pickup/return location read model.
type Station struct {
	ID        string
	Name      string
	Address   string
	CreatedAt time.Time
}
