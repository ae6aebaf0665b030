package store

import (
	"context"
	"time"
)

// OrderWriter defines persistence for fetched customer orders.
type OrderWriter interface {
	SaveOrder(ctx context.Context, order *OrderRecord) error
}

// OrderReader defines read access to cached orders.
type OrderReader interface {
	GetOrder(ctx context.Context, id string) (*OrderRecord, error)
}

// DesignWriter defines persistence for generated design variations.
type DesignWriter interface {
	SaveDesign(ctx context.Context, design *DesignRecord) error
}

// DesignReader defines read access to generated designs.
type DesignReader interface {
	GetDesign(ctx context.Context, id string) (*DesignRecord, error)
	ListDesigns(ctx context.Context, filter DesignFilter) ([]*DesignRecord, error)
}

// Store defines persistence for orders and generated designs.
type Store interface {
	OrderWriter
	OrderReader
	DesignWriter
	DesignReader
	Close() error
}

// OrderRecord caches one CRM order's note data locally.
type OrderRecord struct {
	ID            string
	FirstName     string
	LastName      string
	Organization  string
	Notes         string
	FirstFileURL  string
	SecondFileURL string
	FetchedAt     time.Time
}

// FileRef records one attached file and its usage mode as sent to the image
// backend. Identifier only; bytes never pass through this system.
type FileRef struct {
	Name  string `json:"name"`
	Usage string `json:"usage"`
}

// DesignRecord stores one generated design variation.
type DesignRecord struct {
	ID         string
	OrderID    string
	TemplateID string
	Theme      string
	Location   string
	Prompt     string
	Files      []FileRef // JSON serialized
	ImageURL   string
	ImageB64   string
	Success    bool
	Error      string
	CreatedAt  time.Time
}

// DesignFilter filters design listings.
type DesignFilter struct {
	OrderID    string
	TemplateID string
	Since      time.Time
	Limit      int
}
