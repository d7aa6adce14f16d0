package integration

import (
	"fmt"
	"time"
)

// TestUser generates unique test user credentials using a timestamp
func TestUser(suffix string) (email, password string) {
	ts := time.Now().UnixNano()
	email = fmt.Sprintf("test-%d-%s@example.com", ts, suffix)
	password = "TestPassword123!"
	return
}

// TestLeadBody returns a valid lead submission payload. The URL is unique
// per call so duplicate detection does not trip across tests.
func TestLeadBody(suffix string) map[string]interface{} {
	return map[string]interface{}{
		"make":               "Honda",
		"model":              "Civic",
		"year":               2018,
		"mileage":            64000,
		"askingPrice":        8500,
		"estimatedSalePrice": 10500,
		"expensesEstimate":   400,
		"sourceUrl":          fmt.Sprintf("https://www.facebook.com/marketplace/item/%d-%s", time.Now().UnixNano(), suffix),
		"sellerContact":      "555-0100",
		"location":           "Austin, TX",
	}
}
