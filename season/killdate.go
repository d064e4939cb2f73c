package season

const (
	DayMs  int64 = 24 * 60 * 60 * 1000
	WeekMs int64 = 7 * DayMs

	// weekly reset anchor, 2024-01-04 08:00 KST
	WeekAnchor int64 = 1704322800000
)

type TierColor string

const (
	TierGold   TierColor = "gold"
	TierPink   TierColor = "pink"
	TierOrange TierColor = "orange"
	TierPurple TierColor = "purple"
	TierBlue   TierColor = "blue"
	TierGreen  TierColor = "green"
	TierGray   TierColor = "gray"
)

var tierOrder = []TierColor{TierGold, TierPink, TierOrange, TierPurple, TierBlue, TierGreen}

// KillDate converts a kill timestamp into the week and day of the season,
// both starting at 1. Kills before the season opened have no date.
func (s *Season) KillDate(ts int64) (week, day int, ok bool) {
	if ts <= 0 || s.OpenAt == 0 {
		return 0, 0, false
	}
	diff := ts - int64(s.OpenAt)
	if diff < 0 {
		return 0, 0, false
	}

	days := int(diff / DayMs)
	return days/7 + 1, days%7 + 1, true
}

func (s *Season) TierColor(bossID int, week int) TierColor {
	enc, ok := s.Encounter(bossID)
	if !ok || week < 1 {
		return TierGray
	}
	for i, maxWeek := range enc.KillTiers {
		if i >= len(tierOrder) {
			break
		}
		if week <= maxWeek {
			return tierOrder[i]
		}
	}
	return TierGray
}

// KrDiffWeek is the number of weekly resets between the korean first kill
// of the season and ts.
func (s *Season) KrDiffWeek(ts int64) (int, bool) {
	if ts <= 0 || s.KrFirstKill == 0 {
		return 0, false
	}
	return weekIndex(ts) - weekIndex(int64(s.KrFirstKill)), true
}

func weekIndex(ts int64) int {
	d := ts - WeekAnchor
	q := d / WeekMs
	if d%WeekMs < 0 {
		q--
	}
	return int(q)
}
