package detail

import (
	"context"
	"sort"
	"strconv"

	"wow_check/analysis"
	"wow_check/analysis/ranking"
	"wow_check/wow"
)

// healers shown per kill
const topHealers = 6

// fetchBandHealing reads the healing done to players carrying an aura in
// every healer kill of a boss. With a band ability the healing is turned
// into hps over the time the band debuff was up.
func fetchBandHealing(ctx context.Context, f *fetch) (cells, error) {
	kills := f.kills(f.a.Boss, wow.RoleHealer)
	if len(kills) == 0 {
		return nil, nil
	}

	tables := []tableArgs{
		{Alias: "healing", DataType: "Healing", TargetAurasPresent: strconv.Itoa(f.a.Aura)},
	}
	if f.a.Band != 0 {
		tables = append(tables, tableArgs{Alias: "debuffs", DataType: "Debuffs", AbilityID: f.a.Band})
	}

	todo := tablesOf(kills, tables...)
	resp, err := batchTables(ctx, f.q, todo)
	if err != nil {
		return nil, err
	}

	var (
		sum     float64
		n       int
		details []ranking.KillDetail
	)
	for i, td := range todo {
		if !resp.has(td.Key) {
			continue
		}

		healing := resp.get(td.Key, "healing")

		var entries []ranking.Entry
		if f.a.Band != 0 {
			auras := resp.get(td.Key, "debuffs").Auras()
			if len(auras) == 0 {
				continue
			}
			entries = bandRates(healing, auras[0].Duration())
			if entries == nil {
				continue
			}
		} else {
			entries = tableEntries(healing)
			if len(entries) > topHealers {
				entries = entries[:topHealers]
			}
		}

		d := ranking.KillDetail{
			Report:    kills[i].Report,
			StartTime: kills[i].StartTime,
			Spec:      kills[i].Spec,
			Entries:   entries,
		}
		for k := range entries {
			if f.isPlayer(entries[k].Name) {
				entries[k].Flag = true
				if f.a.Band != 0 {
					d.Value = entries[k].Rate
				} else {
					d.Value = entries[k].Total
				}
				sum += d.Value
				n++
			}
		}
		details = append(details, d)
	}
	if len(details) == 0 {
		return nil, nil
	}

	c := &ranking.Cell{Kills: len(details), Count: n, Details: details}
	if n > 0 {
		c.Value = round2(sum / float64(n))
	}
	return cells{f.a.ID: c}, nil
}

// bandRates returns the top healers of t by healing per second over
// duration. nil when nothing was up.
func bandRates(t *analysis.Table, duration float64) []ranking.Entry {
	if duration <= 0 {
		return nil
	}

	entries := tableEntries(t)
	if len(entries) > topHealers {
		entries = entries[:topHealers]
	}
	for i := range entries {
		entries[i].Rate = round2(entries[i].Total / duration)
	}
	return entries
}

// fetchTargetShare measures which share of each damage dealer's damage went
// into one target. It only runs for characters that killed the boss as
// damage dealer before any other role.
func fetchTargetShare(ctx context.Context, f *fetch) (cells, error) {
	b := f.sr.Boss(f.a.Boss)
	if b == nil {
		return nil, nil
	}
	d := b.Role(wow.RoleDPS)
	if d == nil || d.FirstKill.Time == 0 {
		return nil, nil
	}
	for _, role := range []wow.Role{wow.RoleHealer, wow.RoleTank} {
		if o := b.Role(role); o != nil && o.FirstKill.Time > 0 && o.FirstKill.Time < d.FirstKill.Time {
			return nil, nil
		}
	}

	kills := f.kills(f.a.Boss, wow.RoleDPS)
	if len(kills) == 0 {
		return nil, nil
	}

	todo := tablesOf(kills, tableArgs{Alias: "table", DataType: "DamageDone"})
	resp, err := batchTables(ctx, f.q, todo)
	if err != nil {
		return nil, err
	}

	var (
		sum     float64
		n       int
		details []ranking.KillDetail
	)
	for i, td := range todo {
		if !resp.has(td.Key) {
			continue
		}

		var entries []ranking.Entry
		for _, e := range resp.get(td.Key, "table").Entries() {
			spec := wow.SpecFromIcon(e.Icon)
			if wow.SpecRole(spec) != wow.RoleDPS {
				continue
			}

			var amount float64
			for _, t := range e.Targets {
				if t.Name == f.a.Target {
					amount += t.Total
				}
			}

			var percent float64
			if e.Total > 0 {
				percent = round2(amount / e.Total * 100)
			}
			entries = append(entries, ranking.Entry{
				Name:    e.Name,
				Type:    e.Type,
				Icon:    e.Icon,
				Total:   amount,
				Percent: percent,
				Flag:    f.isPlayer(e.Name),
			})
		}
		sort.SliceStable(entries, func(i, k int) bool { return entries[i].Percent > entries[k].Percent })

		dt := ranking.KillDetail{
			Report:    kills[i].Report,
			StartTime: kills[i].StartTime,
			Spec:      kills[i].Spec,
			Entries:   entries,
		}
		for _, e := range entries {
			if e.Flag {
				dt.Value = e.Percent
				sum += e.Percent
				n++
				break
			}
		}
		details = append(details, dt)
	}
	if len(details) == 0 {
		return nil, nil
	}

	c := &ranking.Cell{Kills: len(details), Count: n, Details: details}
	if n > 0 {
		c.Value = round2(sum / float64(n))
	}
	return cells{f.a.ID: c}, nil
}
