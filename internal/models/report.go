package models

// Report content origins.
const (
	ReportSourceClaude   = "claude"
	ReportSourceExternal = "external"
)

// ReportModel is one dated content unit of a report type. At most one row
// exists per (type, date); the report store enforces this with a
// lookup-then-write upsert rather than a database constraint.
type ReportModel struct {
	Base
	Type    string `json:"type"    gorm:"size:64;not null;index:idx_reports_type_date"`
	Date    string `json:"date"    gorm:"size:10;not null;index:idx_reports_type_date"` // YYYY-MM-DD
	Content string `json:"content" gorm:"type:text"`
	Source  string `json:"source"  gorm:"size:32"`
}

func (ReportModel) TableName() string { return "reports" }
