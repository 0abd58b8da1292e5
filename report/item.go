package report

import (
	"time"

	"github.com/geotrack/geotrack/geolib"
	"github.com/geotrack/geotrack/storage"
)

// Item is a single tracked result to render.
type Item struct {
	Target     string
	TargetType geolib.TargetType
	Timestamp  time.Time
	Result     geolib.ReconciledResult
}

// Country returns a human readable country name.
func (i Item) Country() string {
	return CountryName(i.Result.Country)
}

// FromResults converts in-memory session history. Timestamp is the same
// for all items.
func FromResults(results []geolib.ReconciledResult, timestamp time.Time) []Item {
	items := make([]Item, 0, len(results))

	for _, v := range results {
		items = append(items, Item{
			Target:     v.IP,
			TargetType: geolib.TargetIP,
			Timestamp:  timestamp,
			Result:     v,
		})
	}

	return items
}

// FromEntries converts persisted tracking history. Entries persisted
// without a snapshot are restored from their columns.
func FromEntries(entries []storage.Entry) []Item {
	items := make([]Item, 0, len(entries))

	for _, v := range entries {
		result := v.Result

		if result.IP == "" {
			result = geolib.ReconciledResult{
				NormalizedRecord: geolib.NormalizedRecord{
					IP:      v.Target,
					Source:  v.Source,
					City:    v.City,
					Country: v.Country,
					ISP:     v.ISP,
					Lat:     v.Lat,
					Lon:     v.Lon,
				},
				Accuracy: v.Accuracy,
			}
		}

		target := v.Target
		if target == "" {
			target = result.IP
		}

		items = append(items, Item{
			Target:     target,
			TargetType: v.TargetType,
			Timestamp:  v.Timestamp,
			Result:     result,
		})
	}

	return items
}
