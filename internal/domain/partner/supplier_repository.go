package partner

import (
	"context"

	"github.com/google/uuid"
)

// SupplierRepository defines the persistence contract for suppliers.
// The backing store owns the uniqueness constraint on
// (enterprise_id, cif_nif); Save surfaces a constraint violation as
// shared.ErrAlreadyExists so callers can re-fetch instead of failing.
type SupplierRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Supplier, error)
	FindByIDForEnterprise(ctx context.Context, enterpriseID, id uuid.UUID) (*Supplier, error)
	// FindByCifNif finds a supplier by exact tax identifier within an enterprise
	FindByCifNif(ctx context.Context, enterpriseID uuid.UUID, cifNif string) (*Supplier, error)
	// FindByName finds a supplier by case-insensitive name within an enterprise
	FindByName(ctx context.Context, enterpriseID uuid.UUID, name string) (*Supplier, error)
	FindAllForEnterprise(ctx context.Context, enterpriseID uuid.UUID) ([]Supplier, error)
	Save(ctx context.Context, supplier *Supplier) error
	Delete(ctx context.Context, id uuid.UUID) error
	// CountInvoices returns the number of invoices referencing the supplier.
	// Deletion is blocked while dependent invoices exist.
	CountInvoices(ctx context.Context, id uuid.UUID) (int64, error)
}
