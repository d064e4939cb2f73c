package score

import (
	"wow_check/analysis/ranking"
	"wow_check/season"
	"wow_check/wow"
)

// Weighted is one term of a weighted average.
type Weighted struct {
	Score  float64
	Weight float64
}

// WeightedAverage returns sum(score*weight)/sum(weight), or 0 without weight.
func WeightedAverage(values []Weighted) float64 {
	var sum, total float64
	for _, v := range values {
		sum += v.Score * v.Weight
		total += v.Weight
	}
	if total == 0 {
		return 0
	}
	return sum / total
}

type Scores struct {
	Best      float64 `json:"best"`
	Auxiliary float64 `json:"auxiliary"`
	Final     float64 `json:"final"`

	Tank    bool    `json:"tank"`
	TankDPS float64 `json:"tankDps,omitempty"`
	TankHPS float64 `json:"tankHps,omitempty"`
}

// BossPercent is the display percentile a boss contributes to the best
// percent score.
func BossPercent(sr *ranking.SeasonResult, b *ranking.BossResult) float64 {
	var dps, hps float64
	if a := b.Role(wow.RoleDPS); a != nil {
		dps = ranking.DisplayPercent(a.DPS.Percent)
	}
	if a := b.Role(wow.RoleTank); a != nil {
		if v := ranking.DisplayPercent(a.DPS.Percent); v > dps {
			dps = v
		}
	}
	if a := b.Role(wow.RoleHealer); a != nil {
		hps = ranking.DisplayPercent(a.HPS.Percent)
	}

	damage := sr.IsActive(wow.RoleDPS) || sr.IsActive(wow.RoleTank)
	healer := sr.IsActive(wow.RoleHealer)
	switch {
	case damage && healer:
		if hps > dps {
			return hps
		}
		return dps
	case healer:
		return hps
	default:
		return dps
	}
}

// BestPercent is the weighted best percentile of a season. Bosses without
// a record are left out entirely.
func BestPercent(s *season.Season, sr *ranking.SeasonResult) float64 {
	values := make([]Weighted, 0, len(sr.Bosses))
	for _, b := range sr.Bosses {
		v := BossPercent(sr, b)
		if v <= 0 {
			continue
		}
		values = append(values, Weighted{Score: v, Weight: s.Weight(b.ID)})
	}
	return WeightedAverage(values)
}

// TankAxes are the weighted tank dps and hps percentiles of a season.
func TankAxes(s *season.Season, sr *ranking.SeasonResult) (dps, hps float64) {
	var dv, hv []Weighted
	for _, b := range sr.Bosses {
		a := b.Role(wow.RoleTank)
		if a == nil {
			continue
		}
		w := s.Weight(b.ID)
		if v := ranking.DisplayPercent(a.DPS.Percent); v > 0 {
			dv = append(dv, Weighted{Score: v, Weight: w})
		}
		if v := ranking.DisplayPercent(a.HPS.Percent); v > 0 {
			hv = append(hv, Weighted{Score: v, Weight: w})
		}
	}
	return WeightedAverage(dv), WeightedAverage(hv)
}

// IsTankSeason reports whether the last boss was first killed as a tank,
// strictly before any dps or healer kill of it.
func IsTankSeason(s *season.Season, sr *ranking.SeasonResult) bool {
	b := sr.Boss(s.LastBoss())
	if b == nil {
		return false
	}
	tank := b.Role(wow.RoleTank)
	if tank == nil || tank.FirstKill.Time == 0 {
		return false
	}
	for _, role := range []wow.Role{wow.RoleDPS, wow.RoleHealer} {
		a := b.Role(role)
		if a != nil && a.FirstKill.Time > 0 && a.FirstKill.Time <= tank.FirstKill.Time {
			return false
		}
	}
	return true
}

// Final blends the percentile and auxiliary scores.
func Final(best, aux float64) float64 {
	if aux > 0 {
		return best*0.7 + aux*0.3
	}
	return best
}

// Compute scores a season once every fetcher has settled.
func Compute(p *season.Preset, s *season.Season, sr *ranking.SeasonResult) Scores {
	sc := Scores{
		Best:      BestPercent(s, sr),
		Auxiliary: Auxiliary(p, s, sr),
	}

	if IsTankSeason(s, sr) {
		sc.Tank = true
		sc.TankDPS, sc.TankHPS = TankAxes(s, sr)
		sc.Final = sc.TankDPS*0.7 + sc.TankHPS*0.3
		return sc
	}

	sc.Final = Final(sc.Best, sc.Auxiliary)
	return sc
}
