package partner

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/suppliers/backend/internal/domain/partner"
)

// CreateSupplierRequest represents a request to create a new supplier
type CreateSupplierRequest struct {
	Name                       string
	CifNif                     string
	Address                    string
	PhoneNumber                string
	CommercialName             string
	CommercialPhoneNumber      string
	DeliveryDays               string
	MinPriceDelivery           *decimal.Decimal
	SanitaryRegistrationNumber string
}

// SupplierResponse represents supplier data returned to callers
type SupplierResponse struct {
	ID                         uuid.UUID       `json:"id"`
	EnterpriseID               uuid.UUID       `json:"enterprise_id"`
	Name                       string          `json:"name"`
	CifNif                     string          `json:"cif_nif"`
	Address                    string          `json:"address,omitempty"`
	PhoneNumber                string          `json:"phone_number,omitempty"`
	CommercialName             string          `json:"commercial_name,omitempty"`
	CommercialPhoneNumber      string          `json:"commercial_phone_number,omitempty"`
	DeliveryDays               string          `json:"delivery_days,omitempty"`
	MinPriceDelivery           decimal.Decimal `json:"min_price_delivery"`
	SanitaryRegistrationNumber string          `json:"sanitary_registration_number,omitempty"`
	CreatedAt                  time.Time       `json:"created_at"`
	UpdatedAt                  time.Time       `json:"updated_at"`
}

// ToSupplierResponse converts a domain supplier to a response DTO
func ToSupplierResponse(s *partner.Supplier) SupplierResponse {
	return SupplierResponse{
		ID:                         s.ID,
		EnterpriseID:               s.EnterpriseID,
		Name:                       s.Name,
		CifNif:                     s.CifNif,
		Address:                    s.Address,
		PhoneNumber:                s.PhoneNumber,
		CommercialName:             s.CommercialName,
		CommercialPhoneNumber:      s.CommercialPhoneNumber,
		DeliveryDays:               s.DeliveryDays,
		MinPriceDelivery:           s.MinPriceDelivery,
		SanitaryRegistrationNumber: s.SanitaryRegistrationNumber,
		CreatedAt:                  s.CreatedAt,
		UpdatedAt:                  s.UpdatedAt,
	}
}
