package dto

type SupplierRequest struct {
	Name        string  `json:"name"         validate:"required,min=1,max=200"`
	ContactName *string `json:"contact_name" validate:"omitempty,max=120"`
	Email       *string `json:"email"        validate:"omitempty,email"`
	Phone       *string `json:"phone"        validate:"omitempty,max=40"`
	Address     *string `json:"address"      validate:"omitempty,max=300"`
	Notes       *string `json:"notes"        validate:"omitempty,max=2000"`
	IsActive    *bool   `json:"is_active"`
}

type SupplierResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	ContactName *string `json:"contact_name"`
	Email       *string `json:"email"`
	Phone       *string `json:"phone"`
	Address     *string `json:"address"`
	Notes       *string `json:"notes"`
	IsActive    bool    `json:"is_active"`
}
