// Package domain holds the closed enums and pure rules of the stock domain:
// stock-status classification, the order lifecycle, alert aggregation and
// movement validation. Nothing here touches the database or the network.
package domain

import (
	"database/sql/driver"
	"fmt"
)

// ErrUnknownValue is returned by every Parse function for a value outside
// the enum.
type ErrUnknownValue struct {
	Kind  string
	Value string
}

func (e *ErrUnknownValue) Error() string {
	return fmt.Sprintf("unknown %s %q", e.Kind, e.Value)
}

// scanString converts a driver value into a string for Scan implementations.
func scanString(kind string, src any) (string, error) {
	switch v := src.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case nil:
		return "", &ErrUnknownValue{Kind: kind, Value: "<null>"}
	default:
		return "", fmt.Errorf("cannot scan %T into %s", src, kind)
	}
}

// ── Order status ────────────────────────────────────────────────────────────

type OrderStatus string

const (
	OrderDraft             OrderStatus = "draft"
	OrderPending           OrderStatus = "pending"
	OrderOrdered           OrderStatus = "ordered"
	OrderPartiallyReceived OrderStatus = "partially_received"
	OrderReceived          OrderStatus = "received"
	OrderCancelled         OrderStatus = "cancelled"
)

// OrderStatuses lists every valid status in lifecycle order.
var OrderStatuses = []OrderStatus{
	OrderDraft, OrderPending, OrderOrdered, OrderPartiallyReceived, OrderReceived, OrderCancelled,
}

func ParseOrderStatus(s string) (OrderStatus, error) {
	for _, v := range OrderStatuses {
		if string(v) == s {
			return v, nil
		}
	}
	return "", &ErrUnknownValue{Kind: "order status", Value: s}
}

func (s *OrderStatus) Scan(src any) error {
	raw, err := scanString("order status", src)
	if err != nil {
		return err
	}
	v, err := ParseOrderStatus(raw)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

func (s OrderStatus) Value() (driver.Value, error) { return string(s), nil }

// ── Movement type ───────────────────────────────────────────────────────────

type MovementType string

const (
	MovementIn          MovementType = "in"
	MovementOut         MovementType = "out"
	MovementTransfer    MovementType = "transfer"
	MovementAdjustment  MovementType = "adjustment"
	MovementConsumption MovementType = "consumption"
)

var MovementTypes = []MovementType{
	MovementIn, MovementOut, MovementTransfer, MovementAdjustment, MovementConsumption,
}

func ParseMovementType(s string) (MovementType, error) {
	for _, v := range MovementTypes {
		if string(v) == s {
			return v, nil
		}
	}
	return "", &ErrUnknownValue{Kind: "movement type", Value: s}
}

func (t *MovementType) Scan(src any) error {
	raw, err := scanString("movement type", src)
	if err != nil {
		return err
	}
	v, err := ParseMovementType(raw)
	if err != nil {
		return err
	}
	*t = v
	return nil
}

func (t MovementType) Value() (driver.Value, error) { return string(t), nil }

// ── Alert type / severity ───────────────────────────────────────────────────

type AlertType string

const (
	AlertLowStock    AlertType = "low_stock"
	AlertExpiry      AlertType = "expiry"
	AlertOrderUpdate AlertType = "order_update"
	AlertSystem      AlertType = "system"
)

var AlertTypes = []AlertType{AlertLowStock, AlertExpiry, AlertOrderUpdate, AlertSystem}

func ParseAlertType(s string) (AlertType, error) {
	for _, v := range AlertTypes {
		if string(v) == s {
			return v, nil
		}
	}
	return "", &ErrUnknownValue{Kind: "alert type", Value: s}
}

func (t *AlertType) Scan(src any) error {
	raw, err := scanString("alert type", src)
	if err != nil {
		return err
	}
	v, err := ParseAlertType(raw)
	if err != nil {
		return err
	}
	*t = v
	return nil
}

func (t AlertType) Value() (driver.Value, error) { return string(t), nil }

type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

var Severities = []Severity{SeverityInfo, SeverityWarning, SeverityCritical}

// ParseSeverity is an exact match: no case folding, no synonyms.
func ParseSeverity(s string) (Severity, error) {
	for _, v := range Severities {
		if string(v) == s {
			return v, nil
		}
	}
	return "", &ErrUnknownValue{Kind: "severity", Value: s}
}

func (s *Severity) Scan(src any) error {
	raw, err := scanString("severity", src)
	if err != nil {
		return err
	}
	v, err := ParseSeverity(raw)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

func (s Severity) Value() (driver.Value, error) { return string(s), nil }

// ── Role ────────────────────────────────────────────────────────────────────

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleOperator Role = "operator"
)

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleOperator:
		return Role(s), nil
	}
	return "", &ErrUnknownValue{Kind: "role", Value: s}
}

func (r *Role) Scan(src any) error {
	raw, err := scanString("role", src)
	if err != nil {
		return err
	}
	v, err := ParseRole(raw)
	if err != nil {
		return err
	}
	*r = v
	return nil
}

func (r Role) Value() (driver.Value, error) { return string(r), nil }
