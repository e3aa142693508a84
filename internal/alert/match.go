package alert

import "math"

// matchTolerance is the lat/lon box half-width, in degrees, inside which a
// candidate and a record are considered the same event. Deliberately a flat
// degree comparison, not geodesic distance.
const matchTolerance = 1.0

// Match returns the existing record a candidate refreshes, or nil when the
// candidate describes a new event. The key is same type, same country, and
// both coordinates within the tolerance box. Among multiple records in the
// box the nearest by Euclidean (lat,lon) distance wins; ties go to the
// earliest-created record.
func Match(c *Candidate, records []*Record) *Record {
	var best *Record
	bestDist := math.Inf(1)

	for _, r := range records {
		if r.Type != c.Type || r.Country != c.Country {
			continue
		}
		if math.Abs(r.Lat-c.Lat) > matchTolerance || math.Abs(r.Lon-c.Lon) > matchTolerance {
			continue
		}

		d := math.Hypot(r.Lat-c.Lat, r.Lon-c.Lon)
		switch {
		case d < bestDist:
			best = r
			bestDist = d
		case d == bestDist && best != nil && r.CreatedAt.Before(best.CreatedAt):
			best = r
		}
	}

	return best
}
