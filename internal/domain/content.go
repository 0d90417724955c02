package domain

import "time"

// Visibility controls which access rule applies to a content item.
type Visibility string

const (
	VisibilityPublic     Visibility = "PUBLIC"
	VisibilityPrivate    Visibility = "PRIVATE"
	VisibilityTierLocked Visibility = "TIER_LOCKED"
)

// Valid reports whether v is a known visibility.
func (v Visibility) Valid() bool {
	switch v {
	case VisibilityPublic, VisibilityPrivate, VisibilityTierLocked:
		return true
	}
	return false
}

// ContentType classifies uploaded media.
type ContentType string

const (
	ContentImage ContentType = "IMAGE"
	ContentVideo ContentType = "VIDEO"
	ContentAudio ContentType = "AUDIO"
	ContentText  ContentType = "TEXT"
	ContentFile  ContentType = "FILE"
)

// Valid reports whether t is a known content type.
func (t ContentType) Valid() bool {
	switch t {
	case ContentImage, ContentVideo, ContentAudio, ContentText, ContentFile:
		return true
	}
	return false
}

// Content is a piece of artist content. Tiers are only consulted when the
// visibility is TIER_LOCKED.
type Content struct {
	ID          string      `json:"id"`
	ArtistID    string      `json:"artistId"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Type        ContentType `json:"type"`
	Visibility  Visibility  `json:"visibility"`
	Tiers       []Tier      `json:"tiers"`

	// MediaLocation is the encrypted storage location of the asset.
	MediaLocation string    `json:"-"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// TierIDs returns the ids of the associated tiers.
func (c *Content) TierIDs() []string {
	ids := make([]string, 0, len(c.Tiers))
	for _, t := range c.Tiers {
		ids = append(ids, t.ID)
	}
	return ids
}

// HasTier reports whether tierID is one of the content's tiers.
func (c *Content) HasTier(tierID string) bool {
	for _, t := range c.Tiers {
		if t.ID == tierID {
			return true
		}
	}
	return false
}

// ContentFilter selects an artist's content for listing and counting.
//
// A row matches when it belongs to ArtistID, has Type (if set) and either
// All is set, or Public is set and the row is PUBLIC, or the row is
// TIER_LOCKED and lists at least one of TierIDs.
type ContentFilter struct {
	ArtistID string
	Type     ContentType
	All      bool
	Public   bool
	TierIDs  []string
}

// Matches applies the filter to a single item. Repositories must return
// exactly the rows for which Matches is true.
func (f ContentFilter) Matches(c *Content) bool {
	if f.ArtistID != "" && c.ArtistID != f.ArtistID {
		return false
	}
	if f.Type != "" && c.Type != f.Type {
		return false
	}
	if f.All {
		return true
	}
	if f.Public && c.Visibility == VisibilityPublic {
		return true
	}
	if c.Visibility == VisibilityTierLocked {
		for _, id := range f.TierIDs {
			if c.HasTier(id) {
				return true
			}
		}
	}
	return false
}

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// Page is a 1-based page request.
type Page struct {
	Page  int
	Limit int
}

// Normalize clamps the page to sane bounds.
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	return p
}

// Offset converts the page into a row offset.
func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Pagination describes a page of results.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// NewPagination computes totalPages as ceil(total/limit).
func NewPagination(p Page, total int) Pagination {
	pages := 0
	if p.Limit > 0 {
		pages = (total + p.Limit - 1) / p.Limit
	}
	return Pagination{Page: p.Page, Limit: p.Limit, Total: total, TotalPages: pages}
}

// CreateContentRequest is the validated input for publishing content.
type CreateContentRequest struct {
	Title         string   `json:"title" validate:"required,min=1,max=200"`
	Description   string   `json:"description" validate:"max=5000"`
	Type          string   `json:"type" validate:"required,oneof=IMAGE VIDEO AUDIO TEXT FILE"`
	Visibility    string   `json:"visibility" validate:"required,oneof=PUBLIC PRIVATE TIER_LOCKED"`
	TierIDs       []string `json:"tierIds" validate:"omitempty,dive,uuid"`
	MediaLocation string   `json:"mediaLocation" validate:"required,max=2048"`
}

// UpdateContentRequest patches content. Nil fields are left untouched; a
// non-nil TierIDs replaces the tier set.
type UpdateContentRequest struct {
	Title       *string   `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string   `json:"description" validate:"omitempty,max=5000"`
	Visibility  *string   `json:"visibility" validate:"omitempty,oneof=PUBLIC PRIVATE TIER_LOCKED"`
	TierIDs     *[]string `json:"tierIds" validate:"omitempty,dive,uuid"`
}
