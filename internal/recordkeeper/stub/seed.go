package stub

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/leetrental/fleetboard/internal/recordkeeper"
	"github.com/leetrental/fleetboard/internal/recordkeeper/memory"
)

// SeedDemoFleet loads a small fleet spread across the lifecycle so a fresh
// board has something to show.
func SeedDemoFleet(store *memory.Store) {
	for _, rec := range []recordkeeper.VehicleRecord{
		{ID: "VEH-00001", State: "Available", LicensePlate: "B 1034 KX", Model: "Corolla Cross", ModelYear: 2024, Color: "White", Odometer: 18230},
		{ID: "VEH-00002", State: "Available", LicensePlate: "B 2210 NV", Model: "Avanza", ModelYear: 2023, Color: "Silver", Odometer: 40119},
		{ID: "VEH-00003", State: "Reserved", LicensePlate: "B 7781 QD", Model: "Innova Zenix", ModelYear: 2025, Color: "Black", Odometer: 5204},
		{ID: "VEH-00004", State: "Rented Out", LicensePlate: "B 9044 TR", Model: "HR-V", ModelYear: 2024, Color: "Red", Odometer: 22871, Agreement: "AGR-00012"},
		{ID: "VEH-00005", State: "Due for Return", LicensePlate: "B 5520 AB", Model: "Xpander", ModelYear: 2022, Color: "Grey", Odometer: 61490, Agreement: "AGR-00009"},
		{ID: "VEH-00006", State: "Returned (Inspection)", LicensePlate: "B 3317 LM", Model: "Almaz RS", ModelYear: 2023, Color: "Blue", Odometer: 33012},
		{ID: "VEH-00007", State: "At Garage", LicensePlate: "B 8402 PJ", Model: "Ertiga", ModelYear: 2021, Color: "White", Odometer: 78855},
		{ID: "VEH-00008", State: "Under Maintenance", LicensePlate: "B 6138 WS", Model: "Terios", ModelYear: 2022, Color: "Black", Odometer: 54302},
		{ID: "VEH-00009", State: "Accident/Repair", LicensePlate: "B 1957 HC", Model: "Rush", ModelYear: 2023, Color: "Maroon", Odometer: 29940},
		{ID: "VEH-00010", State: "Deactivated", LicensePlate: "B 0042 ZZ", Model: "APV", ModelYear: 2015, Color: "Green", Odometer: 212034},
	} {
		store.AddVehicle(rec)
	}
}

// SeedFromFile loads vehicle records from a JSON file (an array of records in
// the list-vehicles wire format).
func SeedFromFile(store *memory.Store, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}
	var records []recordkeeper.VehicleRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("parse seed file: %w", err)
	}
	for _, rec := range records {
		store.AddVehicle(rec)
	}
	return nil
}
