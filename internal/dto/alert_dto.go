package dto

type AlertResponse struct {
	ID           string  `json:"id"`
	AlertType    string  `json:"alert_type"`
	Severity     string  `json:"severity"`
	Message      string  `json:"message"`
	IsRead       bool    `json:"is_read"`
	CreatedAt    string  `json:"created_at"`
	ProductID    *string `json:"product_id"`
	ProductName  *string `json:"product_name,omitempty"`
	VariantID    *string `json:"variant_id"`
	BatchID      *string `json:"batch_id"`
	LocationID   *string `json:"location_id"`
	LocationName *string `json:"location_name,omitempty"`
}

// UnreadAlertsResponse is the unread list together with its badge count.
type UnreadAlertsResponse struct {
	Alerts        []AlertResponse `json:"alerts"`
	UnreadCount   int             `json:"unread_count"`
	CriticalCount int             `json:"critical_count"`
}

type MarkAllReadResponse struct {
	Marked int `json:"marked"`
}
