package partner

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/suppliers/backend/internal/domain/shared"
)

// Supplier represents a vendor entity in the partner context.
// It is the aggregate root for supplier-related operations.
// A supplier is uniquely identified per enterprise by its CIF/NIF tax
// identifier; the composite unique index lives in the schema migration.
type Supplier struct {
	shared.EnterpriseAggregateRoot
	Name                       string          `gorm:"type:varchar(200);not null"`
	CifNif                     string          `gorm:"type:varchar(50);index"`
	Address                    string          `gorm:"type:text"`
	PhoneNumber                string          `gorm:"type:varchar(50)"`
	CommercialName             string          `gorm:"type:varchar(100)"`
	CommercialPhoneNumber      string          `gorm:"type:varchar(50)"`
	DeliveryDays               string          `gorm:"type:varchar(100)"` // e.g. "mon,wed,fri"
	MinPriceDelivery           decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	SanitaryRegistrationNumber string          `gorm:"type:varchar(100)"`
}

// TableName returns the table name for GORM
func (Supplier) TableName() string {
	return "suppliers"
}

// NewSupplier creates a new supplier with required fields.
// A supplier is never created without a name; the tax identifier may be
// empty when the extraction stage could not read it.
func NewSupplier(enterpriseID uuid.UUID, name, cifNif string) (*Supplier, error) {
	if err := validateSupplierName(name); err != nil {
		return nil, err
	}
	if err := validateCifNif(cifNif); err != nil {
		return nil, err
	}

	supplier := &Supplier{
		EnterpriseAggregateRoot: shared.NewEnterpriseAggregateRoot(enterpriseID),
		Name:                    strings.TrimSpace(name),
		CifNif:                  strings.ToUpper(strings.TrimSpace(cifNif)),
		MinPriceDelivery:        decimal.Zero,
	}

	supplier.AddDomainEvent(NewSupplierCreatedEvent(supplier))

	return supplier, nil
}

// Update updates the supplier's basic information
func (s *Supplier) Update(name string) error {
	if err := validateSupplierName(name); err != nil {
		return err
	}

	s.Name = strings.TrimSpace(name)
	s.UpdatedAt = time.Now()

	return nil
}

// SetContact sets the supplier's contact information
func (s *Supplier) SetContact(address, phoneNumber string) error {
	if address != "" && len(address) > 500 {
		return shared.NewDomainError("INVALID_ADDRESS", "Address cannot exceed 500 characters")
	}
	if phoneNumber != "" && len(phoneNumber) > 50 {
		return shared.NewDomainError("INVALID_PHONE", "Phone number cannot exceed 50 characters")
	}

	s.Address = address
	s.PhoneNumber = phoneNumber
	s.UpdatedAt = time.Now()

	return nil
}

// SetCommercialContact sets the commercial contact details
func (s *Supplier) SetCommercialContact(name, phoneNumber string) error {
	if name != "" && len(name) > 100 {
		return shared.NewDomainError("INVALID_COMMERCIAL_NAME", "Commercial name cannot exceed 100 characters")
	}
	if phoneNumber != "" && len(phoneNumber) > 50 {
		return shared.NewDomainError("INVALID_PHONE", "Phone number cannot exceed 50 characters")
	}

	s.CommercialName = name
	s.CommercialPhoneNumber = phoneNumber
	s.UpdatedAt = time.Now()

	return nil
}

// SetDeliveryTerms sets delivery days and the minimum order price for delivery
func (s *Supplier) SetDeliveryTerms(deliveryDays string, minPriceDelivery decimal.Decimal) error {
	if len(deliveryDays) > 100 {
		return shared.NewDomainError("INVALID_DELIVERY_DAYS", "Delivery days cannot exceed 100 characters")
	}
	if minPriceDelivery.IsNegative() {
		return shared.NewDomainError("INVALID_MIN_PRICE", "Minimum delivery price cannot be negative")
	}

	s.DeliveryDays = deliveryDays
	s.MinPriceDelivery = minPriceDelivery
	s.UpdatedAt = time.Now()

	return nil
}

// SetSanitaryRegistrationNumber sets the sanitary registration number
func (s *Supplier) SetSanitaryRegistrationNumber(number string) error {
	if number != "" && len(number) > 100 {
		return shared.NewDomainError("INVALID_SANITARY_NUMBER", "Sanitary registration number cannot exceed 100 characters")
	}

	s.SanitaryRegistrationNumber = number
	s.UpdatedAt = time.Now()

	return nil
}

// HasTaxID returns true if the supplier carries a tax identifier
func (s *Supplier) HasTaxID() bool {
	return s.CifNif != ""
}

func validateSupplierName(name string) error {
	if strings.TrimSpace(name) == "" {
		return shared.NewDomainError("INVALID_NAME", "Supplier name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Supplier name cannot exceed 200 characters")
	}
	return nil
}

func validateCifNif(cifNif string) error {
	if len(cifNif) > 50 {
		return shared.NewDomainError("INVALID_CIF_NIF", "CIF/NIF cannot exceed 50 characters")
	}
	return nil
}
