package score

import (
	"wow_check/analysis/ranking"
	"wow_check/season"
)

var killWeekScores = map[int]float64{
	1: 100, 2: 99, 3: 98, 4: 97, 5: 96,
	6: 95, 7: 90, 8: 85, 9: 80, 10: 75,
}

// DebuffScore maps an average debuff count to 0..100, 20 points per debuff.
func DebuffScore(avg float64) float64 {
	switch {
	case avg <= 0:
		return 0
	case avg >= 5:
		return 100
	}
	return avg * 20
}

// PhaseDamageScore compares damage against the class threshold. Classes
// without a threshold score 0.
func PhaseDamageScore(p *season.Preset, classID int, spec string, damage float64) float64 {
	high, _, ok := p.PhaseThreshold(classID, spec)
	if !ok || high <= 0 {
		return 0
	}
	if damage >= high {
		return 100
	}
	return damage / high * 100
}

// KillWeekScore scores the week of a kill counted from the korean first kill.
func KillWeekScore(week int) float64 {
	if week < 1 {
		return 0
	}
	if v, ok := killWeekScores[week]; ok {
		return v
	}
	return 50
}

// Auxiliary is the weighted average of the configured cells that hold data.
func Auxiliary(p *season.Preset, s *season.Season, sr *ranking.SeasonResult) float64 {
	if sr.Analysis == nil {
		return 0
	}

	values := make([]Weighted, 0, len(s.Cells))
	for _, c := range s.Cells {
		if c.Score == "" {
			continue
		}

		source := c.Source
		if source == "" {
			source = c.ID
		}
		cell, ok := sr.Analysis.Get(source)
		if !ok || cell == nil {
			continue
		}

		var v float64
		switch c.Score {
		case "debuff":
			v = DebuffScore(cell.Value)
		case "phase_damage":
			v = PhaseDamageScore(p, sr.ClassID, cell.Spec, cell.Value)
		case "kill_week":
			v = KillWeekScore(int(cell.Value) + 1)
		default:
			continue
		}
		values = append(values, Weighted{Score: v, Weight: c.Weight})
	}

	return WeightedAverage(values)
}
