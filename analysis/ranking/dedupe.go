package ranking

// ProximityWindow is the start time distance, in milliseconds, under which
// two records from different reports are considered the same pull.
const ProximityWindow int64 = 60000

// Dedupe merges the lists in order and drops records describing a pull
// that was already kept. The first seen record wins. Records without a
// report reference cannot be matched and are always kept.
func Dedupe(lists ...[]Record) []Record {
	n := 0
	for _, l := range lists {
		n += len(l)
	}

	out := make([]Record, 0, n)
	for _, l := range lists {
		for _, r := range l {
			if !isDuplicate(out, r) {
				out = append(out, r)
			}
		}
	}
	return out
}

func isDuplicate(kept []Record, r Record) bool {
	if !r.Report.Valid() {
		return false
	}

	for _, k := range kept {
		if !k.Report.Valid() {
			continue
		}
		if k.Report == r.Report {
			return true
		}
		if k.Report.Code != r.Report.Code && k.StartTime > 0 && r.StartTime > 0 {
			d := k.StartTime - r.StartTime
			if d < 0 {
				d = -d
			}
			if d < ProximityWindow {
				return true
			}
		}
	}
	return false
}
