package domain

import "time"

// InspectionKind distinguishes the handover snapshot from the return
// snapshot.
type InspectionKind string

const (
	InspectionKindHandover InspectionKind = "HANDOVER"
	InspectionKindReturn   InspectionKind = "RETURN"
)

// Inspection is a condition snapshot recorded by staff at handover or
// return. Photo references point at externally stored images.
type Inspection struct {
	Kind           InspectionKind
	OdometerKm     int64
	BatteryPercent int
	Condition      string
	PhotoRefs      []string
	InspectedBy    string
	InspectedAt    time.Time
}
