package detail

import (
	"context"
	"strings"

	"wow_check/analysis/ranking"
	"wow_check/wow"
)

// fetchBuffUses counts how often the character received a buff in the fight
// of every dps best record.
func fetchBuffUses(ctx context.Context, f *fetch) (cells, error) {
	var bosses []int
	var todo []tableQuery
	for _, b := range f.sr.Bosses {
		d := b.Role(wow.RoleDPS)
		if d == nil || !d.BestReport.Valid() {
			continue
		}
		spec := f.specOf(b.ID, d.BestReport, d)
		if f.a.Exclude != "" && strings.Contains(spec, f.a.Exclude) {
			continue
		}

		bosses = append(bosses, b.ID)
		todo = append(todo, tableQuery{
			Key:     "boss" + itoa(len(todo)),
			Code:    d.BestReport.Code,
			FightID: d.BestReport.FightID,
			Tables: []tableArgs{
				{Alias: "table", DataType: "Buffs", AbilityID: f.a.Ability},
			},
		})
	}
	if len(todo) == 0 {
		return nil, nil
	}

	resp, err := batchTables(ctx, f.q, todo)
	if err != nil {
		return nil, err
	}

	out := make(cells, len(todo))
	for i, td := range todo {
		if !resp.has(td.Key) {
			continue
		}
		uses, _ := resp.get(td.Key, "table").AuraUses(f.sr.CharName)
		out[ranking.BossKey(f.a.ID, bosses[i])] = &ranking.Cell{Value: float64(uses), Count: uses}
	}
	return out, nil
}

// fetchDebuffUses reads the uses of a debuff on the character over every
// unique kill of a boss.
//
// mode "average": mean uses per kill.
// mode "count":   kills with at least one use.
func fetchDebuffUses(ctx context.Context, f *fetch) (cells, error) {
	kills := f.kills(f.a.Boss)
	if len(kills) == 0 {
		return nil, nil
	}

	todo := tablesOf(kills, tableArgs{Alias: "table", DataType: "Debuffs", AbilityID: f.a.Ability})

	var resp tableResult
	if f.a.Batch {
		var err error
		resp, err = batchTables(ctx, f.q, todo)
		if err != nil {
			return nil, err
		}
	} else {
		resp = settleTables(ctx, f.q, todo)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	var (
		valid, sum, hit int
		details         []ranking.KillDetail
	)
	for i, td := range todo {
		if !resp.has(td.Key) {
			continue
		}
		t := resp.get(td.Key, "table")
		uses, _ := t.AuraUses(f.sr.CharName)

		valid++
		sum += uses
		if uses >= 1 {
			hit++
		}

		details = append(details, ranking.KillDetail{
			Report:    kills[i].Report,
			StartTime: kills[i].StartTime,
			Spec:      kills[i].Spec,
			Value:     float64(uses),
			Entries:   auraEntries(t),
		})
	}
	if valid == 0 {
		return nil, nil
	}

	c := &ranking.Cell{Kills: valid, Details: details}
	switch f.a.Mode {
	case "count":
		c.Value = float64(hit)
		c.Count = hit
	default:
		c.Value = round2(float64(sum) / float64(valid))
		c.Count = sum
	}
	return cells{f.a.ID: c}, nil
}

// fetchDamageTaken lists the damage taken from one ability by everyone in
// every unique kill of a boss.
func fetchDamageTaken(ctx context.Context, f *fetch) (cells, error) {
	kills := f.kills(f.a.Boss)
	if len(kills) == 0 {
		return nil, nil
	}

	todo := tablesOf(kills, tableArgs{Alias: "table", DataType: "DamageTaken", AbilityID: f.a.Ability})
	resp, err := batchTables(ctx, f.q, todo)
	if err != nil {
		return nil, err
	}

	var sum float64
	var details []ranking.KillDetail
	for i, td := range todo {
		if !resp.has(td.Key) {
			continue
		}

		entries := tableEntries(resp.get(td.Key, "table"))
		var mine float64
		for k := range entries {
			if f.isPlayer(entries[k].Name) {
				entries[k].Flag = true
				mine = entries[k].Total
			}
		}
		sum += mine

		details = append(details, ranking.KillDetail{
			Report:    kills[i].Report,
			StartTime: kills[i].StartTime,
			Spec:      kills[i].Spec,
			Value:     mine,
			Entries:   entries,
		})
	}
	if len(details) == 0 {
		return nil, nil
	}

	return cells{
		f.a.ID: {
			Value:   round2(sum / float64(len(details))),
			Kills:   len(details),
			Details: details,
		},
	}, nil
}

// fetchAuraTasks counts, per task, the kills in which the character carried
// the task's debuff at least once.
func fetchAuraTasks(ctx context.Context, f *fetch) (cells, error) {
	kills := f.kills(f.a.Boss)
	if len(kills) == 0 || len(f.a.Tasks) == 0 {
		return nil, nil
	}

	tables := make([]tableArgs, len(f.a.Tasks))
	for i, task := range f.a.Tasks {
		tables[i] = tableArgs{Alias: task.Name, DataType: "Debuffs", AbilityID: task.Ability}
	}

	todo := tablesOf(kills, tables...)
	resp, err := batchTables(ctx, f.q, todo)
	if err != nil {
		return nil, err
	}

	counts := make([]int, len(f.a.Tasks))
	valid := 0
	for _, td := range todo {
		if !resp.has(td.Key) {
			continue
		}
		valid++

		for i, task := range f.a.Tasks {
			for _, aura := range resp.get(td.Key, task.Name).Auras() {
				if f.isPlayer(aura.Name) {
					counts[i]++
					break
				}
			}
		}
	}
	if valid == 0 {
		return nil, nil
	}

	out := make(cells, len(f.a.Tasks))
	for i, task := range f.a.Tasks {
		out[f.a.ID+"_"+task.Name] = &ranking.Cell{
			Value: float64(counts[i]),
			Count: counts[i],
			Kills: valid,
		}
	}
	return out, nil
}
