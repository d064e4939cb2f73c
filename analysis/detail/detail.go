// Package detail derives the auxiliary analysis cells of a cleared season
// from report tables.
package detail

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"

	"wow_check/analysis"
	"wow_check/analysis/ranking"
	"wow_check/season"
	"wow_check/share"
	"wow_check/share/parallel"
	"wow_check/wow"

	"github.com/pkg/errors"
)

const workers = 4

type cells map[string]*ranking.Cell

// fetch is what one fetcher gets to work with. sr is read only, results go
// through the returned cells.
type fetch struct {
	q  analysis.Querier
	s  *season.Season
	sr *ranking.SeasonResult
	a  season.Analysis
}

type fetcher func(ctx context.Context, f *fetch) (cells, error)

var fetchers = map[string]fetcher{
	"healers":      fetchHealers,
	"low_dps":      fetchLowDps,
	"buff_uses":    fetchBuffUses,
	"debuff_uses":  fetchDebuffUses,
	"damage_taken": fetchDamageTaken,
	"aura_tasks":   fetchAuraTasks,
	"band_healing": fetchBandHealing,
	"target_share": fetchTargetShare,
	"phase_damage": fetchPhaseDamage,
	"kill_week":    fetchKillWeek,
}

// Run executes every analysis of s and stores the cells in sr.Analysis. It
// returns once every fetcher finished. A failing fetcher only loses its own
// cells.
func Run(ctx context.Context, q analysis.Querier, s *season.Season, sr *ranking.SeasonResult, progress func(string)) {
	if sr.Analysis == nil {
		sr.Analysis = ranking.NewAnalysis()
	}

	var (
		kinds []string
		fns   []func(ctx context.Context) error
	)
	var done int32
	total := len(s.Analyses)

	for _, a := range s.Analyses {
		fn, ok := fetchers[a.Kind]
		if !ok {
			continue
		}

		f := &fetch{q: q, s: s, sr: sr, a: a}
		kinds = append(kinds, a.Kind)
		fns = append(fns, func(ctx context.Context) error {
			defer func() {
				if progress != nil {
					n := atomic.AddInt32(&done, 1)
					progress(fmt.Sprintf("%s 세부 분석 중... %d / %d", s.Name, n, total))
				}
			}()

			c, err := fn(ctx, f)
			if err != nil {
				return errors.Wrapf(err, "%s %s", a.Kind, a.ID)
			}
			sr.Analysis.Merge(c)
			return nil
		})
	}

	for i, err := range parallel.Settle(ctx, workers, fns...) {
		if err == nil || share.IsContextClosedError(err) {
			continue
		}
		analysis.FetcherFailures.WithLabelValues(kinds[i]).Inc()
		share.Report(err)
	}
}

////////////////////////////////////////////////////////////

func (f *fetch) kills(bossID int, role ...wow.Role) []ranking.Record {
	kills := f.sr.KillsSorted(bossID)
	if len(role) == 0 {
		return kills
	}

	out := kills[:0]
	for _, k := range kills {
		r := wow.SpecRole(k.Spec)
		for _, want := range role {
			if r == want {
				out = append(out, k)
				break
			}
		}
	}
	return out
}

// specOf is the spec the character played in fight, falling back to the
// first spec the role was seen with.
func (f *fetch) specOf(bossID int, fight ranking.Fight, agg *ranking.RoleAggregate) string {
	for _, k := range f.sr.Kills[bossID] {
		if k.Report == fight {
			return k.Spec
		}
	}
	if agg != nil && len(agg.Specs) > 0 {
		return agg.Specs[0]
	}
	return ""
}

func (f *fetch) isPlayer(name string) bool {
	return strings.EqualFold(name, f.sr.CharName)
}

// tablesOf builds one tableQuery per kill, all with the same tables.
func tablesOf(kills []ranking.Record, tables ...tableArgs) []tableQuery {
	todo := make([]tableQuery, len(kills))
	for i, k := range kills {
		todo[i] = tableQuery{
			Key:     killKey(i),
			Code:    k.Report.Code,
			FightID: k.Report.FightID,
			Tables:  tables,
		}
	}
	return todo
}

func auraEntries(t *analysis.Table) []ranking.Entry {
	auras := t.Auras()
	out := make([]ranking.Entry, 0, len(auras))
	for _, a := range auras {
		out = append(out, ranking.Entry{Name: a.Name, Type: a.Type, Icon: a.Icon, Count: a.TotalUses})
	}
	sort.SliceStable(out, func(i, k int) bool { return out[i].Count > out[k].Count })
	return out
}

func tableEntries(t *analysis.Table) []ranking.Entry {
	entries := t.Entries()
	out := make([]ranking.Entry, 0, len(entries))
	for _, e := range entries {
		out = append(out, ranking.Entry{Name: e.Name, Type: e.Type, Icon: e.Icon, Total: e.Total, Count: e.HitCount})
	}
	sort.SliceStable(out, func(i, k int) bool { return out[i].Total > out[k].Total })
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func itoa(v int) string {
	return strconv.Itoa(v)
}
