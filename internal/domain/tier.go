package domain

import "time"

// Tier is a priced subscription level offered by an artist. An inactive
// tier never grants access, even when a subscription still references it.
type Tier struct {
	ID           string    `json:"id"`
	ArtistID     string    `json:"artistId"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	MinimumPrice int64     `json:"minimumPrice"` // cents
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// CreateTierRequest is the validated input for creating a tier.
type CreateTierRequest struct {
	Name         string `json:"name" validate:"required,min=1,max=80"`
	Description  string `json:"description" validate:"max=2000"`
	MinimumPrice int64  `json:"minimumPrice" validate:"gte=0"`
}

// UpdateTierRequest patches a tier. Nil fields are left untouched.
type UpdateTierRequest struct {
	Name         *string `json:"name" validate:"omitempty,min=1,max=80"`
	Description  *string `json:"description" validate:"omitempty,max=2000"`
	MinimumPrice *int64  `json:"minimumPrice" validate:"omitempty,gte=0"`
	IsActive     *bool   `json:"isActive"`
}
