package models

import "time"

// VA is a virtual assistant who sources leads. A VA may exist without a
// linked user account (legacy records).
type VA struct {
	ID                   string
	UserID               *string
	Name                 string
	CommissionPercentage float64 // decimal fraction, 0..1; 0 means "use global setting"
	Timezone             *string
	Notes                *string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}
