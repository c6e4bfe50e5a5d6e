package domain

import "github.com/google/uuid"

// FieldErrors maps a request field name to a user-facing message.
type FieldErrors map[string]string

// Add records msg for field unless the field already has an error.
func (f FieldErrors) Add(field, msg string) {
	if _, ok := f[field]; !ok {
		f[field] = msg
	}
}

// Err returns f as an error, or nil when empty.
func (f FieldErrors) Err() error {
	if len(f) == 0 {
		return nil
	}
	return &ValidationError{Fields: f}
}

// ValidationError carries field-level messages out of the service layer.
type ValidationError struct {
	Fields FieldErrors
}

func (e *ValidationError) Error() string { return "validation failed" }

// MovementInput is a stock movement before it is written. uuid.Nil stands
// for an empty selection.
type MovementInput struct {
	Type                  MovementType
	ProductID             uuid.UUID
	SourceLocationID      uuid.UUID
	DestinationLocationID uuid.UUID
	Quantity              int
}

// NeedsSource reports whether the movement type takes stock out of a location.
func (t MovementType) NeedsSource() bool {
	return t != MovementIn
}

// NeedsDestination reports whether the movement type puts stock into a
// location.
func (t MovementType) NeedsDestination() bool {
	return t == MovementIn || t == MovementTransfer
}

// ValidateMovement checks the movement against the location rules of its
// type. It returns nil when the movement may be submitted.
func ValidateMovement(in MovementInput) FieldErrors {
	errs := FieldErrors{}
	if in.ProductID == uuid.Nil {
		errs.Add("productId", "Select a product")
	}
	if in.Quantity <= 0 {
		errs.Add("quantity", "Quantity must be greater than 0")
	}
	if in.Type.NeedsSource() && in.SourceLocationID == uuid.Nil {
		errs.Add("sourceLocationId", "Select a source location")
	}
	if in.Type.NeedsDestination() && in.DestinationLocationID == uuid.Nil {
		errs.Add("destinationLocationId", "Select a destination location")
	}
	if in.Type == MovementTransfer &&
		in.SourceLocationID != uuid.Nil &&
		in.SourceLocationID == in.DestinationLocationID {
		errs.Add("destinationLocationId", "Source and destination must differ")
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Normalize clears the location fields that the movement type does not use,
// so only the relevant ones are persisted.
func (in MovementInput) Normalize() MovementInput {
	if !in.Type.NeedsSource() {
		in.SourceLocationID = uuid.Nil
	}
	if !in.Type.NeedsDestination() {
		in.DestinationLocationID = uuid.Nil
	}
	return in
}

// StockDelta is a signed quantity change at one location.
type StockDelta struct {
	LocationID uuid.UUID
	Delta      int
}

// Deltas lists the inventory changes a valid movement applies: in adds to
// the destination; out, adjustment and consumption take from the source;
// transfer does both.
func (in MovementInput) Deltas() []StockDelta {
	var d []StockDelta
	if in.Type.NeedsSource() {
		d = append(d, StockDelta{LocationID: in.SourceLocationID, Delta: -in.Quantity})
	}
	if in.Type.NeedsDestination() {
		d = append(d, StockDelta{LocationID: in.DestinationLocationID, Delta: in.Quantity})
	}
	return d
}
