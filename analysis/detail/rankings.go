package detail

import (
	"context"

	"wow_check/analysis"
	"wow_check/analysis/ranking"
	"wow_check/wow"
)

// fetchHealers counts the healers of every fight holding a healer best
// record. Healers ranked at or below the threshold, or unranked, are not
// effective.
func fetchHealers(ctx context.Context, f *fetch) (cells, error) {
	type target struct {
		bossID int
		fight  ranking.Fight
	}

	var targets []target
	var todo []rankingsQuery
	for _, b := range f.sr.Bosses {
		h := b.Role(wow.RoleHealer)
		if h == nil || h.HPS.Percent <= 0 || !h.BestReport.Valid() {
			continue
		}
		targets = append(targets, target{b.ID, h.BestReport})
		todo = append(todo, rankingsQuery{
			Key:     "report_" + itoa(len(todo)),
			Code:    h.BestReport.Code,
			FightID: h.BestReport.FightID,
			Metric:  "hps",
		})
	}
	if len(todo) == 0 {
		return nil, nil
	}

	resp, err := batchRankings(ctx, f.q, todo)
	if err != nil {
		return nil, err
	}

	out := make(cells, len(todo))
	for i, td := range todo {
		r, ok := resp[td.Key]
		if !ok || r == nil {
			continue
		}

		healers := r.Healers()
		total := len(healers)
		low := countAtOrBelow(healers, f.a.Threshold)
		out[ranking.BossKey(f.a.ID, targets[i].bossID)] = &ranking.Cell{
			Value: float64(total - low),
			Count: total,
		}
	}
	return out, nil
}

// fetchLowDps counts poorly ranked damage dealers in the fight of a near
// perfect dps parse on the season's check boss.
func fetchLowDps(ctx context.Context, f *fetch) (cells, error) {
	b := f.sr.Boss(f.s.CheckBoss)
	if b == nil {
		return nil, nil
	}
	d := b.Role(wow.RoleDPS)
	if d == nil || !d.BestReport.Valid() || ranking.DisplayPercent(d.DPS.Percent) < f.a.MinPercent {
		return nil, nil
	}

	todo := []rankingsQuery{{
		Key:     "report_0",
		Code:    d.BestReport.Code,
		FightID: d.BestReport.FightID,
	}}
	resp, err := batchRankings(ctx, f.q, todo)
	if err != nil {
		return nil, err
	}

	r := resp["report_0"]
	if r == nil {
		return nil, nil
	}

	n := countAtOrBelow(r.DPS(), f.a.Threshold)
	return cells{
		ranking.BossKey(f.a.ID, b.ID): {Value: float64(n), Count: n},
	}, nil
}

// unranked characters count as low
func countAtOrBelow(list []analysis.RankedCharacter, threshold float64) int {
	n := 0
	for _, c := range list {
		if c.RankPercent == nil || *c.RankPercent <= threshold {
			n++
		}
	}
	return n
}
