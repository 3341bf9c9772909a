package partner

import (
	"github.com/suppliers/backend/internal/domain/shared"
)

// Event types for the partner context
const (
	EventTypeSupplierCreated = "partner.supplier.created"
	EventTypeSupplierDeleted = "partner.supplier.deleted"
)

// SupplierCreatedEvent is raised when a new supplier is created,
// whether explicitly or lazily by the identity resolution path.
type SupplierCreatedEvent struct {
	shared.BaseDomainEvent
	Name   string `json:"name"`
	CifNif string `json:"cif_nif"`
}

// NewSupplierCreatedEvent creates a new SupplierCreatedEvent
func NewSupplierCreatedEvent(supplier *Supplier) *SupplierCreatedEvent {
	return &SupplierCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(
			EventTypeSupplierCreated, "Supplier", supplier.ID, supplier.EnterpriseID),
		Name:   supplier.Name,
		CifNif: supplier.CifNif,
	}
}

// SupplierDeletedEvent is raised when a supplier is removed
type SupplierDeletedEvent struct {
	shared.BaseDomainEvent
	Name string `json:"name"`
}

// NewSupplierDeletedEvent creates a new SupplierDeletedEvent
func NewSupplierDeletedEvent(supplier *Supplier) *SupplierDeletedEvent {
	return &SupplierDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(
			EventTypeSupplierDeleted, "Supplier", supplier.ID, supplier.EnterpriseID),
		Name: supplier.Name,
	}
}
