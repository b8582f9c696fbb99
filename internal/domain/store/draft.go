package store

import (
	"context"
	"strings"
)

// ValidationError is a form value the backend would reject.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Draft is the editable part of a store.
type Draft struct {
	Name        string
	Address     string
	Phone       string
	Email       string
	ManagerName string
}

// Validate checks the fields the backend requires.
func (d Draft) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return &ValidationError{Message: "Store name is required"}
	}
	return nil
}

// FlavorDraft is the editable part of a flavor.
type FlavorDraft struct {
	Name        string
	Description string
}

// Validate checks the fields the backend requires.
func (d FlavorDraft) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return &ValidationError{Message: "Flavor name is required"}
	}
	return nil
}

// Editor manages stores and flavors on the backend. Deleting a store or
// flavor that is still referenced deactivates it instead; the returned
// message says which happened.
type Editor interface {
	CreateStore(ctx context.Context, d Draft) (*Store, error)
	UpdateStore(ctx context.Context, id int64, d Draft) (*Store, error)
	DeleteStore(ctx context.Context, id int64) (string, error)
	CreateFlavor(ctx context.Context, d FlavorDraft) (*Flavor, error)
	UpdateFlavor(ctx context.Context, id int64, d FlavorDraft) (*Flavor, error)
	DeleteFlavor(ctx context.Context, id int64) (string, error)
}
