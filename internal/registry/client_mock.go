package registry

import (
	"context"
	"time"

	"loadvoice/internal/carrier"
)

// MockClient serves deterministic snapshots with a configurable latency to
// mimic real registry calls in development and demos. Lookups whose number
// starts with "999" are reported not found.
type MockClient struct {
	Latency time.Duration
}

func (c MockClient) Fetch(_ context.Context, q Lookup) (*carrier.RegistrySnapshot, error) {
	time.Sleep(c.Latency)

	number := q.MCNumber
	if number == "" {
		number = q.DOTNumber
	}
	if len(number) >= 3 && number[:3] == "999" {
		return nil, ErrCarrierNotFound
	}

	required := 1000000.0
	onFile := 1000000.0
	vehicleOOS := 5.0
	driverOOS := 2.0
	nationalVehicle := 20.7
	nationalDriver := 5.5
	zero := 0
	granted := time.Now().AddDate(-3, 0, 0)
	age := int(time.Since(granted).Hours() / 24)

	return &carrier.RegistrySnapshot{
		LegalName:             "Sample Carrier Inc",
		OperatingStatus:       carrier.StatusAuthorized,
		SafetyRating:          carrier.RatingSatisfactory,
		AuthorityGrantedAt:    &granted,
		AuthorityAgeDays:      &age,
		Liability:             carrier.Insurance{RequiredUSD: &required, OnFileUSD: &onFile},
		Cargo:                 carrier.Insurance{RequiredUSD: &required, OnFileUSD: &onFile},
		VehicleOOSRate:        &vehicleOOS,
		DriverOOSRate:         &driverOOS,
		NationalAvgVehicleOOS: &nationalVehicle,
		NationalAvgDriverOOS:  &nationalDriver,
		Crashes:               carrier.CrashHistory{Fatal: &zero, Injury: &zero, Tow: &zero, Total: &zero},
		FetchedAt:             time.Now(),
	}, nil
}
