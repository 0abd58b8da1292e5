package geolib

import (
	"fmt"

	"github.com/montanaflynn/stats"
)

// FusionStrategy defines how coordinates of several providers are
// combined.
type FusionStrategy string

const (
	// FusionMean is an arithmetic mean of each axis. It is a default.
	FusionMean FusionStrategy = "mean"

	// FusionMedian takes a median of each axis. It is less sensitive
	// to a single provider which is far away from the others.
	FusionMedian FusionStrategy = "median"
)

// minCompleteRecords is a number of providers which have to report
// both coordinates to consider coordinates confirmed.
const minCompleteRecords = 2

// Reconciler merges normalized records of several providers into a
// single result.
//
// Textual metadata (city, country, isp etc) is always taken from the
// first record: records come in registry order, so registry order is a
// tie-break rule if providers disagree on spelling.
type Reconciler struct {
	strategy FusionStrategy
}

// Strategy returns a fusion strategy of reconciler.
func (r Reconciler) Strategy() FusionStrategy {
	return r.strategy
}

// Reconcile merges given records. Records have to be in registry
// order.
func (r Reconciler) Reconcile(records []NormalizedRecord) (ReconciledResult, error) {
	if len(records) == 0 {
		return ReconciledResult{}, ErrNoRecords
	}

	rv := ReconciledResult{
		NormalizedRecord: records[0].clone(),
		Accuracy:         AccuracyMedium,
		Sources:          len(records),
		Details:          make([]NormalizedRecord, 0, len(records)),
	}

	for _, v := range records {
		rv.Details = append(rv.Details, v.clone())
	}

	if len(records) > 1 {
		if lat, lon, ok := r.fuse(records); ok {
			rv.Lat = floatRef(lat)
			rv.Lon = floatRef(lon)
			rv.Accuracy = AccuracyHigh
		}
	}

	if !rv.HasCoordinates() {
		rv.Lat = nil
		rv.Lon = nil
	}

	return rv, nil
}

func (r Reconciler) fuse(records []NormalizedRecord) (float64, float64, bool) {
	lats := make(stats.Float64Data, 0, len(records))
	lons := make(stats.Float64Data, 0, len(records))
	complete := 0

	for i := range records {
		if records[i].Lat != nil {
			lats = append(lats, *records[i].Lat)
		}

		if records[i].Lon != nil {
			lons = append(lons, *records[i].Lon)
		}

		if records[i].HasCoordinates() {
			complete++
		}
	}

	if complete < minCompleteRecords {
		return 0, 0, false
	}

	aggregate := stats.Mean
	if r.strategy == FusionMedian {
		aggregate = stats.Median
	}

	lat, err := aggregate(lats)
	if err != nil {
		return 0, 0, false
	}

	lon, err := aggregate(lons)
	if err != nil {
		return 0, 0, false
	}

	return lat, lon, true
}

// NewReconciler returns a reconciler for a given strategy. Empty
// strategy means FusionMean.
func NewReconciler(strategy FusionStrategy) (Reconciler, error) {
	switch strategy {
	case "":
		strategy = FusionMean
	case FusionMean, FusionMedian:
	default:
		return Reconciler{}, fmt.Errorf("unknown fusion strategy %s", strategy)
	}

	return Reconciler{strategy: strategy}, nil
}
