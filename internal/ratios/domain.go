package ratios

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Result is one persisted calculated ratio value, unique per
// (company, ratio, year). Benchmark fields are snapshots taken at computation
// time; they are never recomputed retroactively.
type Result struct {
	CompanyID          int64
	RatioID            int64
	Year               int
	Value              float64
	SectorOptimal      *float64
	SectorAverage      *float64
	GlobalAverage      *float64
	AboveOptimal       bool
	AboveSectorAverage bool
	AboveGlobalAverage bool
	ComputedAt         time.Time
	ComputedBy         *int64
	BatchID            uuid.UUID
}

// YearValue is the per-year slice of a ratio outcome returned to callers.
type YearValue struct {
	Value              float64 `json:"value"`
	AboveOptimal       bool    `json:"superior_to_parameter"`
	AboveSectorAverage bool    `json:"superior_to_sector_avg"`
	AboveGlobalAverage bool    `json:"superior_to_general_avg"`
}

// RatioOutcome groups the computed values of one ratio across the requested
// years. Years that could not be computed carry a nil entry.
type RatioOutcome struct {
	RatioID       int64              `json:"ratio_id"`
	Name          string             `json:"name"`
	Category      string             `json:"category"`
	Formula       string             `json:"formula"`
	SectorOptimal *float64           `json:"sector_optimal"`
	SectorAverage *float64           `json:"sector_average"`
	GlobalAverage *float64           `json:"global_average"`
	ValuesByYear  map[int]*YearValue `json:"values_by_year"`
}

// BatchResult is the output of one calculation batch. Error is set for the
// non-fatal "no catalog configured" case, in which case Ratios is empty.
type BatchResult struct {
	BatchID   uuid.UUID      `json:"batch_id"`
	CompanyID int64          `json:"company_id"`
	Years     []int          `json:"years"`
	Ratios    []RatioOutcome `json:"ratios"`
	Error     string         `json:"error,omitempty"`
}

// AverageUpdate reports one ratio's global average refresh.
type AverageUpdate struct {
	RatioID  int64    `json:"ratio_id"`
	Name     string   `json:"name"`
	Previous *float64 `json:"previous"`
	Updated  float64  `json:"updated"`
	Samples  int      `json:"samples"`
}

// Round4 rounds to 4 fractional digits, half away from zero. All ratio values
// and averages carry this precision.
func Round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// Round2 rounds to 2 fractional digits, half away from zero, matching the
// monetary precision of statement line items.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
