package domain

// StockStatus is the display classification of a quantity against its
// configured thresholds.
type StockStatus string

const (
	StockNeutral  StockStatus = "neutral"
	StockPositive StockStatus = "positive"
	StockWarning  StockStatus = "warning"
	StockCritical StockStatus = "critical"
)

// Thresholds are the two per-product stock levels.
type Thresholds struct {
	Min     int
	Warning int
}

// Classify returns the status of a single quantity. A nil quantity means no
// inventory data and yields neutral. Both comparisons are inclusive and
// critical is checked first, so an inverted configuration (Warning < Min)
// still reports critical for any quantity <= Min.
func Classify(quantity *int, t Thresholds) StockStatus {
	if quantity == nil {
		return StockNeutral
	}
	q := *quantity
	switch {
	case q <= t.Min:
		return StockCritical
	case q <= t.Warning:
		return StockWarning
	default:
		return StockPositive
	}
}

// ClassifyQuantity is Classify for a known quantity.
func ClassifyQuantity(quantity int, t Thresholds) StockStatus {
	return Classify(&quantity, t)
}

// Aggregate reduces member statuses to the worst one: any critical wins, then
// any warning, then positive for a non-empty collection, neutral otherwise.
func Aggregate(statuses []StockStatus) StockStatus {
	if len(statuses) == 0 {
		return StockNeutral
	}
	hasWarning := false
	for _, s := range statuses {
		switch s {
		case StockCritical:
			return StockCritical
		case StockWarning:
			hasWarning = true
		}
	}
	if hasWarning {
		return StockWarning
	}
	return StockPositive
}

// StockLine is one product quantity held somewhere, used by the summary
// counters.
type StockLine struct {
	Quantity   int
	Thresholds Thresholds
}

// Status classifies the line.
func (l StockLine) Status() StockStatus {
	return ClassifyQuantity(l.Quantity, l.Thresholds)
}

// NeedsReorder reports whether the line is at or below its minimum level.
func (l StockLine) NeedsReorder() bool {
	return l.Quantity <= l.Thresholds.Min
}

// AggregateLines classifies every line and reduces the result.
func AggregateLines(lines []StockLine) StockStatus {
	statuses := make([]StockStatus, len(lines))
	for i, l := range lines {
		statuses[i] = l.Status()
	}
	return Aggregate(statuses)
}

// StockTotals are the dashboard counters computed from fetched lines.
type StockTotals struct {
	TotalItems   int
	ItemsToOrder int
}

// Totals sums quantities and counts lines that need reordering.
func Totals(lines []StockLine) StockTotals {
	var t StockTotals
	for _, l := range lines {
		t.TotalItems += l.Quantity
		if l.NeedsReorder() {
			t.ItemsToOrder++
		}
	}
	return t
}

// ValidateThresholds rejects negative levels and a warning level below the
// minimum. Field names follow the product request body.
func ValidateThresholds(t Thresholds) FieldErrors {
	errs := FieldErrors{}
	if t.Min < 0 {
		errs.Add("min_stock_level", "Minimum stock level must be 0 or more")
	}
	if t.Warning < 0 {
		errs.Add("warning_stock_level", "Warning stock level must be 0 or more")
	}
	if t.Warning < t.Min {
		errs.Add("warning_stock_level", "Warning stock level must be at least the minimum stock level")
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}
