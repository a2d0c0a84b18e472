package domain

import "time"

// Department represents a facilities unit that owns ticket categories.
type Department struct {
	ID          string
	Name        string
	Description string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
