// Package store defines the persistence collaborator: a small
// key-value contract over named JSON records, mirroring the storage
// model the session state is built on.
package store

import (
	"context"
	"errors"
)

// Record keys. Every persisted piece of session state lives under one
// of these names.
const (
	KeyProducts     = "products"
	KeyCart         = "cart"
	KeyOrders       = "orders"
	KeyOrderCounter = "orderCounter"
	KeySettings     = "settings"
	KeySalesHistory = "salesHistory"
	KeyCurrentUser  = "currentUser"
	KeyUsers        = "users"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)

// Store persists named records as JSON. Load reports absence via its
// boolean rather than an error so callers can fall back to defaults.
type Store interface {
	// Load unmarshals the record into v. Returns false if the record
	// does not exist.
	Load(ctx context.Context, key string, v any) (bool, error)
	// Save marshals v and durably writes it under key.
	Save(ctx context.Context, key string, v any) error
	// SaveAll writes every record in one atomic transaction: either
	// all records are durable or none are. Checkout and rollover
	// depend on this.
	SaveAll(ctx context.Context, records map[string]any) error
	// Delete removes the record; deleting an absent key is not an
	// error.
	Delete(ctx context.Context, key string) error
	Close() error
}
