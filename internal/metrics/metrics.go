// Package metrics computes scalar KPIs and grouped or time-bucketed
// aggregates over filtered ride views. All functions are pure and total:
// an empty view yields zeroed results, never an error.
package metrics

import (
	"sort"
	"time"

	"github.com/leapstack-labs/rideboard/internal/dataset"
	"github.com/leapstack-labs/rideboard/internal/filter"
)

// DefaultTopK is the default number of entries for top-N aggregates.
const DefaultTopK = 5

// DefaultBins is the default number of buckets for the rating histogram.
const DefaultBins = 10

// KPISet holds the scalar metrics of a view. CancellationRate is only
// meaningful when RateDefined is true; an empty view has no defined rate
// and is displayed as 0%.
type KPISet struct {
	TotalRides       int     `json:"total_rides"`
	CompletedRides   int     `json:"completed_rides"`
	TotalRevenue     float64 `json:"total_revenue"`
	CancellationRate float64 `json:"cancellation_rate"`
	RateDefined      bool    `json:"rate_defined"`
}

// DayCount is one calendar day's ride count.
type DayCount struct {
	Date  time.Time `json:"date"`
	Rides int       `json:"rides"`
}

// MethodRevenue is one payment method's summed revenue.
type MethodRevenue struct {
	Method  string  `json:"method"`
	Revenue float64 `json:"revenue"`
}

// VehicleDistance is one vehicle type's summed distance.
type VehicleDistance struct {
	VehicleType string  `json:"vehicle_type"`
	DistanceKM  float64 `json:"distance_km"`
}

// RatingBucket is one equal-width bucket of the rating histogram.
type RatingBucket struct {
	Low   float64 `json:"low"`
	High  float64 `json:"high"`
	Count int     `json:"count"`
}

// ComputeKPIs derives the scalar KPI set from a view. Missing revenue
// cells contribute zero.
func ComputeKPIs(v *filter.View) KPISet {
	var k KPISet
	k.TotalRides = v.Len()

	completedCol, _ := v.Column(dataset.ColIsCompleted)
	amountCol, _ := v.Column(dataset.ColTotalAmount)

	for i := 0; i < v.Len(); i++ {
		if cellBool(v.Cell(i, completedCol)) {
			k.CompletedRides++
		}
		if c := v.Cell(i, amountCol); c.Valid {
			k.TotalRevenue += c.Num
		}
	}

	if k.TotalRides > 0 {
		k.RateDefined = true
		k.CancellationRate = 1 - float64(k.CompletedRides)/float64(k.TotalRides)
	}
	return k
}

// dateLayouts are tried in order when the ride date column is free-form text.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"02-01-2006",
	"01/02/2006",
}

// DailyVolume buckets rides by calendar day over the full span from the
// earliest to the latest parseable date, one entry per day (days with no
// rides are present with count 0). Rows with unparseable dates are dropped.
func DailyVolume(v *filter.View) []DayCount {
	dateCol, ok := v.Column(dataset.ColRideDate)
	if !ok {
		return nil
	}

	counts := make(map[time.Time]int)
	var minDay, maxDay time.Time
	for i := 0; i < v.Len(); i++ {
		t, ok := cellTime(v.Cell(i, dateCol))
		if !ok {
			continue
		}
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		counts[day]++
		if minDay.IsZero() || day.Before(minDay) {
			minDay = day
		}
		if day.After(maxDay) {
			maxDay = day
		}
	}

	if len(counts) == 0 {
		return nil
	}

	var out []DayCount
	for day := minDay; !day.After(maxDay); day = day.AddDate(0, 0, 1) {
		out = append(out, DayCount{Date: day, Rides: counts[day]})
	}
	return out
}

// RevenueByPaymentMethod sums revenue per payment method, ordered
// ascending by method name for deterministic output.
func RevenueByPaymentMethod(v *filter.View) []MethodRevenue {
	methodCol, _ := v.Column(dataset.ColPaymentMethod)
	amountCol, _ := v.Column(dataset.ColTotalAmount)

	sums := make(map[string]float64)
	for i := 0; i < v.Len(); i++ {
		m := v.Cell(i, methodCol)
		if !m.Valid {
			continue
		}
		if c := v.Cell(i, amountCol); c.Valid {
			sums[m.Str] += c.Num
		} else {
			sums[m.Str] += 0
		}
	}

	out := make([]MethodRevenue, 0, len(sums))
	for m, r := range sums {
		out = append(out, MethodRevenue{Method: m, Revenue: r})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Method < out[j].Method })
	return out
}

// TopVehicleTypesByDistance sums distance per vehicle type and returns the
// top k, descending by distance with ties broken ascending by name.
func TopVehicleTypesByDistance(v *filter.View, k int) []VehicleDistance {
	if k <= 0 {
		k = DefaultTopK
	}

	typeCol, _ := v.Column(dataset.ColVehicleType)
	distCol, _ := v.Column(dataset.ColDistanceKM)

	sums := make(map[string]float64)
	for i := 0; i < v.Len(); i++ {
		t := v.Cell(i, typeCol)
		if !t.Valid {
			continue
		}
		if c := v.Cell(i, distCol); c.Valid {
			sums[t.Str] += c.Num
		} else {
			sums[t.Str] += 0
		}
	}

	out := make([]VehicleDistance, 0, len(sums))
	for t, d := range sums {
		out = append(out, VehicleDistance{VehicleType: t, DistanceKM: d})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DistanceKM != out[j].DistanceKM {
			return out[i].DistanceKM > out[j].DistanceKM
		}
		return out[i].VehicleType < out[j].VehicleType
	})

	if len(out) > k {
		out = out[:k]
	}
	return out
}

// RatingHistogram partitions the observed rating range into bins
// equal-width buckets. Rows with a missing rating are excluded. The
// maximum observed value lands in the last bucket.
func RatingHistogram(v *filter.View, bins int) []RatingBucket {
	if bins <= 0 {
		bins = DefaultBins
	}

	ratingCol, _ := v.Column(dataset.ColCustomerRating)

	var ratings []float64
	for i := 0; i < v.Len(); i++ {
		if c := v.Cell(i, ratingCol); c.Valid {
			ratings = append(ratings, c.Num)
		}
	}
	if len(ratings) == 0 {
		return nil
	}

	low, high := ratings[0], ratings[0]
	for _, r := range ratings[1:] {
		if r < low {
			low = r
		}
		if r > high {
			high = r
		}
	}

	width := (high - low) / float64(bins)
	out := make([]RatingBucket, bins)
	for i := range out {
		out[i] = RatingBucket{
			Low:  low + float64(i)*width,
			High: low + float64(i+1)*width,
		}
	}

	for _, r := range ratings {
		idx := bins - 1
		if width > 0 {
			idx = int((r - low) / width)
			if idx >= bins {
				idx = bins - 1
			}
		}
		out[idx].Count++
	}
	return out
}

// cellBool interprets a completion flag cell. Boolean columns carry the
// flag directly; numeric and textual encodings (1/0, "true") also appear
// in exported datasets.
func cellBool(c dataset.Value) bool {
	if !c.Valid {
		return false
	}
	if c.Bool {
		return true
	}
	if c.Num != 0 {
		return true
	}
	return c.Str == "true" || c.Str == "True" || c.Str == "1"
}

// cellTime extracts a calendar timestamp from a date-like cell, parsing
// free-form text when the column was not typed as a date.
func cellTime(c dataset.Value) (time.Time, bool) {
	if !c.Valid {
		return time.Time{}, false
	}
	if !c.Time.IsZero() {
		return c.Time, true
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, c.Str); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
