package models

// Registry-wide counters.
const (
	CounterTotalProducts   = "total_products"
	CounterAuthorizedCount = "authorized_count"
	CounterTotalUsers      = "total_users"
	CounterTotalScans      = "total_scans"
)

// Counter is a named non-negative tally kept next to the records it counts.
type Counter struct {
	Name  string `gorm:"primaryKey;type:varchar(64)"`
	Value uint64 `gorm:"not null"`
}

// All lists every persisted model, in migration order.
func All() []interface{} {
	return []interface{}{&Product{}, &Authorization{}, &Profile{}, &Scan{}, &Counter{}}
}
