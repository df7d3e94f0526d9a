package hijri

// MaxLookahead is the number of consecutive full-moon pairs scanned for a
// blue moon.
const MaxLookahead = 13

// Intercalation is the outcome of a blue-moon lookahead.
type Intercalation struct {
	Placement Placement
	// Position is the 1-based pair at which the blue moon was found, or 0.
	Position int
}

// ResolveIntercalation scans up to MaxLookahead full-moon pairs starting at
// cursor for a blue moon: two consecutive full moons in the same Gregorian
// month (UTC). The scan stops at the first full moon dated after boundYear or
// at the end of the series. A blue moon at a position up to split places the
// intercalary month at the start of the next Hijri year; a later one places
// it at the end.
func ResolveIntercalation(s Series, cursor, boundYear, split int) Intercalation {
	for pos := 1; pos <= MaxLookahead; pos++ {
		j := cursor + pos - 1
		if j < 0 || j+1 >= len(s) {
			return Intercalation{}
		}

		a, b := s[j].Time.UTC(), s[j+1].Time.UTC()
		if a.Year() > boundYear {
			return Intercalation{}
		}

		if a.Year() == b.Year() && a.Month() == b.Month() {
			if pos <= split {
				return Intercalation{Placement: PlacementStart, Position: pos}
			}
			return Intercalation{Placement: PlacementEnd, Position: pos}
		}
	}

	return Intercalation{}
}
