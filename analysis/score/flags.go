package score

import (
	"wow_check/analysis/ranking"
	"wow_check/season"
	"wow_check/wow"
)

// Flags lists the bosses that deserve a warning next to the numbers.
type Flags struct {
	LowHealers    []int `json:"lowHealers,omitempty"`
	LowDps        []int `json:"lowDps,omitempty"`
	PowerInfusion []int `json:"powerInfusion,omitempty"`
}

func (f Flags) Empty() bool {
	return len(f.LowHealers) == 0 && len(f.LowDps) == 0 && len(f.PowerInfusion) == 0
}

func ComputeFlags(p *season.Preset, s *season.Season, sr *ranking.SeasonResult) Flags {
	var f Flags
	if sr.Analysis == nil {
		return f
	}

	cell := func(kind string, bossID int) (*ranking.Cell, bool) {
		a, ok := s.AnalysisByKind(kind)
		if !ok {
			return nil, false
		}
		c, ok := sr.Analysis.Get(ranking.BossKey(a.ID, bossID))
		return c, ok && c != nil
	}

	for _, b := range sr.Bosses {
		if h := b.Role(wow.RoleHealer); h != nil && h.HPS.Percent > 0 {
			enc, _ := s.Encounter(b.ID)
			if c, ok := cell("healers", b.ID); ok && enc.MinHealers > 0 && int(c.Value) < enc.MinHealers {
				f.LowHealers = append(f.LowHealers, b.ID)
			}
		}

		if d := b.Role(wow.RoleDPS); d != nil && ranking.DisplayPercent(d.DPS.Percent) >= p.Warnings.LowDpsBest {
			if c, ok := cell("low_dps", b.ID); ok && c.Count >= p.Warnings.LowDpsCount {
				f.LowDps = append(f.LowDps, b.ID)
			}
		}

		if c, ok := cell("buff_uses", b.ID); ok && p.Warnings.PowerInfusionCount > 0 && c.Count >= p.Warnings.PowerInfusionCount {
			f.PowerInfusion = append(f.PowerInfusion, b.ID)
		}
	}

	return f
}
