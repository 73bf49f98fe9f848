package model

// Record is one parsed row of an uploaded dataset, keyed by column name.
// Ingestion (CSV parsing with a header row) happens upstream of this core.
type Record map[string]string

// ColumnType tags the declared type of a dataset column.
type ColumnType string

const (
	ColumnNumeric     ColumnType = "numeric"
	ColumnCategorical ColumnType = "categorical"
	ColumnDatetime    ColumnType = "datetime"
	ColumnText        ColumnType = "text"
	ColumnOther       ColumnType = "other"
)

// ColumnInfo describes a single column of the profiled dataset.
type ColumnInfo struct {
	Name          string     `json:"name"`
	Type          ColumnType `json:"type"`
	UniqueValues  *int       `json:"uniqueValues,omitempty"`
	MissingValues int        `json:"missingValues"`
}

// DatasetProfile is the Profiler stage output. It is created once per
// analysis run and replaced wholesale by a reanalysis, never patched.
type DatasetProfile struct {
	Columns   []ColumnInfo `json:"columns"`
	RowCount  int          `json:"rowCount"`
	Summary   string       `json:"summary"`
	Anomalies []string     `json:"anomalies,omitempty"`
}
