package commands

// Write-side inputs keep raw text so validation can report per field.
type CreateBookingParams struct {
	Name        string
	Email       string
	Phone       string
	Timezone    string
	Date        string
	StartTime   string
	EndTime     string
	Quantity    int
	VariationID *int64
	ServiceID   *int64
	EmployeeID  *int64
	LocationID  *int64
	Notes       string
}

type RescheduleParams struct {
	Date      string
	StartTime string
	EndTime   string
	// Quantity 0 keeps the current quantity.
	Quantity int
}

type BlackoutParams struct {
	Title       string
	StartDate   string
	EndDate     string
	LocationIDs []int64
	EmployeeIDs []int64
}
