package detail

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"wow_check/analysis"
	"wow_check/analysis/ranking"
	"wow_check/share"
	"wow_check/wow"
)

// fetchPhaseDamage runs the staged last boss analysis.
//
//  1. report start times, to place the hit window of damage dealers
//  2. per kill task debuffs and the enemy phase band
//  3. healer kills: star healing and damage done inside the phase band
//  4. damage dealer kills: hits taken inside the window
func fetchPhaseDamage(ctx context.Context, f *fetch) (cells, error) {
	kills := f.kills(f.a.Boss)
	if len(kills) == 0 {
		return nil, nil
	}

	// 1
	var codes []string
	seen := make(map[string]bool)
	for _, k := range kills {
		if !seen[k.Report.Code] {
			seen[k.Report.Code] = true
			codes = append(codes, k.Report.Code)
		}
	}
	reportStart, err := batchStartTimes(ctx, f.q, codes)
	if err != nil {
		if share.IsContextClosedError(err) {
			return nil, err
		}
		// only the hit window depends on it
		share.Report(err)
		reportStart = nil
	}

	// 2
	tables := make([]tableArgs, 0, len(f.a.Tasks)+1)
	for _, task := range f.a.Tasks {
		tables = append(tables, tableArgs{Alias: task.Name, DataType: "Debuffs", AbilityID: task.Ability})
	}
	tables = append(tables, tableArgs{Alias: "phase", DataType: "Debuffs", AbilityID: f.a.Band, HostilityType: "Enemies"})

	stage2 := settleTables(ctx, f.q, tablesOf(kills, tables...))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make(cells)

	counts := make([]int, len(f.a.Tasks))
	valid := 0
	bands := make(map[ranking.Fight]analysis.Band)
	for i, k := range kills {
		key := killKey(i)
		if !stage2.has(key) {
			continue
		}
		valid++

		for t, task := range f.a.Tasks {
			if uses, _ := stage2.get(key, task.Name).AuraUses(f.sr.CharName); uses >= 1 {
				counts[t]++
			}
		}

		if auras := stage2.get(key, "phase").Auras(); len(auras) > 0 && len(auras[0].Bands) > 0 {
			bands[k.Report] = auras[0].Bands[0]
		}
	}
	if valid > 0 {
		for t, task := range f.a.Tasks {
			out[f.a.ID+"_"+task.Name] = &ranking.Cell{
				Value: float64(counts[t]),
				Count: counts[t],
				Kills: valid,
			}
		}
	}

	var details []ranking.KillDetail

	// 3
	healerKills := f.kills(f.a.Boss, wow.RoleHealer)
	if len(healerKills) > 0 {
		aura := strconv.Itoa(f.a.Aura)
		todo := make([]tableQuery, len(healerKills))
		for i, k := range healerKills {
			todo[i] = tableQuery{
				Key:     killKey(i),
				Code:    k.Report.Code,
				FightID: k.Report.FightID,
				Tables: []tableArgs{
					{Alias: "healing", DataType: "Healing", TargetAurasPresent: aura},
					{Alias: "debuffs", DataType: "Debuffs", TargetAurasPresent: aura},
				},
			}
			if band, ok := bands[k.Report]; ok {
				todo[i].Tables = append(todo[i].Tables, tableArgs{
					Alias:     "damage",
					DataType:  "DamageDone",
					StartTime: band.StartTime,
					EndTime:   band.EndTime,
					Filter:    ownerFilter(f.sr.CharName),
				})
			}
		}

		resp, err := batchTables(ctx, f.q, todo)
		if err != nil {
			return nil, err
		}

		var phaseSet bool
		for i, k := range healerKills {
			key := killKey(i)
			if !resp.has(key) {
				continue
			}

			d := ranking.KillDetail{
				Report:    k.Report,
				StartTime: k.StartTime,
				Spec:      k.Spec,
			}

			for _, a := range resp.get(key, "debuffs").Auras() {
				if a.Name == f.a.AuraName {
					d.Entries = bandRates(resp.get(key, "healing"), a.Duration())
					break
				}
			}
			for e := range d.Entries {
				if f.isPlayer(d.Entries[e].Name) {
					d.Entries[e].Flag = true
					d.Value = d.Entries[e].Rate
				}
			}

			if _, ok := bands[k.Report]; ok {
				var dmg float64
				if entries := resp.get(key, "damage").Entries(); len(entries) > 0 {
					dmg = entries[0].Total
				}
				d.PhaseDamage = &dmg

				// kills are sorted, the first one with a band is the earliest
				if !phaseSet {
					phaseSet = true
					out[f.a.ID+"_phase_damage"] = &ranking.Cell{Value: dmg, Spec: k.Spec, Kills: 1}
				}
			}

			details = append(details, d)
		}
	}

	// 4
	dpsKills := f.kills(f.a.Boss, wow.RoleDPS)
	if len(dpsKills) > 0 && f.a.Ability != 0 {
		todo := make([]tableQuery, len(dpsKills))
		for i, k := range dpsKills {
			hits := tableArgs{Alias: "hits", DataType: "DamageTaken", AbilityID: f.a.Ability}
			if start := reportStart[k.Report.Code]; start > 0 {
				offset := k.StartTime - start
				hits.StartTime = offset + f.a.Window[0]
				hits.EndTime = offset + f.a.Window[1]
			}
			void := hits
			void.Alias = "hits_void"
			void.TargetAurasPresent = strconv.Itoa(f.a.VoidAura)

			todo[i] = tableQuery{
				Key:     killKey(i),
				Code:    k.Report.Code,
				FightID: k.Report.FightID,
				Tables:  []tableArgs{hits, void},
			}
		}

		resp, err := batchTables(ctx, f.q, todo)
		if err != nil {
			return nil, err
		}

		for i, k := range dpsKills {
			key := killKey(i)
			if !resp.has(key) {
				continue
			}

			voided := make(map[string]bool)
			for _, e := range resp.get(key, "hits_void").Entries() {
				voided[e.Name] = true
			}

			hits := resp.get(key, "hits").Entries()
			entries := make([]ranking.Entry, 0, len(hits))
			var hitCount int
			for _, e := range hits {
				mine := f.isPlayer(e.Name)
				if mine {
					hitCount = e.HitCount
				}
				entries = append(entries, ranking.Entry{
					Name:  e.Name,
					Type:  e.Type,
					Icon:  e.Icon,
					Count: e.HitCount,
					Flag:  mine,
					Void:  voided[e.Name],
				})
			}
			sort.SliceStable(entries, func(i, k int) bool { return entries[i].Count > entries[k].Count })

			details = append(details, ranking.KillDetail{
				Report:    k.Report,
				StartTime: k.StartTime,
				Spec:      k.Spec,
				Value:     float64(hitCount),
				Entries:   entries,
			})
		}
	}

	if len(details) > 0 {
		sortDetails(details)
		out[f.a.ID] = &ranking.Cell{Kills: len(details), Details: details}
	}

	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

// damage of the character and its pets
func ownerFilter(name string) string {
	name = strings.ReplaceAll(name, "'", "\\'")
	return fmt.Sprintf("source.name='%s' or source.owner.name='%s'", name, name)
}

func sortDetails(details []ranking.KillDetail) {
	sort.SliceStable(details, func(i, k int) bool { return details[i].StartTime < details[k].StartTime })
}

// fetchKillWeek stores how many weekly resets after the korean first kill
// the character first killed the boss.
func fetchKillWeek(ctx context.Context, f *fetch) (cells, error) {
	for _, k := range f.kills(f.a.Boss) {
		if k.StartTime <= 0 {
			continue
		}
		diff, ok := f.s.KrDiffWeek(k.StartTime)
		if !ok {
			return nil, nil
		}
		return cells{
			f.a.ID: {Value: float64(diff), Spec: k.Spec},
		}, nil
	}
	return nil, nil
}
