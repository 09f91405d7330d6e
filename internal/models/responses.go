package models

// UploadResponse is returned after successful file upload
type UploadResponse struct {
	Message        string         `json:"message"`
	SessionID      string         `json:"session_id"`
	Rows           int            `json:"rows"`
	Columns        int            `json:"columns"`
	ColumnNames    []string       `json:"column_names"`
	Classification Classification `json:"classification"`
}

// FileStatus represents status of the loaded file
type FileStatus struct {
	Loaded   bool   `json:"loaded"`
	Rows     int    `json:"rows"`
	Columns  int    `json:"columns"`
	Filename string `json:"filename,omitempty"`
	Source   string `json:"source,omitempty"`
}

// StatusResponse is returned by /api/status
type StatusResponse struct {
	SessionID string     `json:"session_id,omitempty"`
	File      FileStatus `json:"file"`
	Selection Selection  `json:"selection"`
}

// KPI represents a key performance indicator for a numeric column
type KPI struct {
	Name   string  `json:"name"`
	Value  float64 `json:"value"`
	Avg    float64 `json:"avg"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Median float64 `json:"median"`
	Count  int     `json:"count"`
	Type   string  `json:"type"`
}

// ColumnInfo describes one column for /api/column-types
type ColumnInfo struct {
	Name     string `json:"name"`
	Declared Kind   `json:"declared"`
	Type     string `json:"type"`
	Missing  int    `json:"missing"`
}

// ColumnProfile holds completeness and diversity metrics for a column, for
// /api/profile
type ColumnProfile struct {
	Name         string  `json:"name"`
	Declared     Kind    `json:"declared"`
	Type         string  `json:"type"`
	TotalRows    int     `json:"total_rows"`
	NonMissing   int     `json:"non_missing"`
	MissingRate  float64 `json:"missing_rate"`
	Distinct     int     `json:"distinct"`
	Uniqueness   float64 `json:"uniqueness"`
	Entropy      float64 `json:"entropy"`
	CandidateKey bool    `json:"candidate_key"`
	QualityScore float64 `json:"quality_score"` // 0-1
}

// ColumnTypesResponse for /api/column-types
type ColumnTypesResponse struct {
	Columns        []ColumnInfo   `json:"columns"`
	Classification Classification `json:"classification"`
}

// ChartsResponse for /api/charts
type ChartsResponse struct {
	Selection Selection      `json:"selection"`
	Charts    []ChartRequest `json:"charts"`
}

// PreviewResponse for /api/preview
type PreviewResponse struct {
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}

// DataSourceConfig holds connection details for /api/db/connect
type DataSourceConfig struct {
	Type     string `json:"type"` // "postgres"
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	SSLMode  string `json:"sslmode"` // "disable", "require"
}
