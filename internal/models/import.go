package models

// ImportResult summarises a bulk spreadsheet import.
type ImportResult struct {
	Total    int `json:"total"`
	Inserted int `json:"insertados"`
	Skipped  int `json:"omitidos"`
}
