// Package lookup runs one character lookup from the ranking queries to the
// final scores.
package lookup

import (
	"context"
	"embed"
	"strconv"
	"text/template"

	"wow_check/analysis"
	"wow_check/analysis/detail"
	"wow_check/analysis/ranking"
	"wow_check/analysis/score"
	"wow_check/season"
	"wow_check/share/parallel"
	"wow_check/wow"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

type State string

const (
	StateOK       State = "ok"
	StateNotFound State = "not_found"
	StateError    State = "error"
)

var ErrInvalidRequest = errors.New("invalid request")

//go:embed query/*.tmpl
var queryFS embed.FS

var (
	tmplCharacterRankings = template.Must(template.ParseFS(queryFS, "query/CharacterRankings.tmpl"))
	tmplZoneRankings      = template.Must(template.ParseFS(queryFS, "query/ZoneRankings.tmpl"))
)

type Result struct {
	State      State  `json:"state"`
	CharName   string `json:"charName"`
	CharServer string `json:"charServer"`
	CharRegion string `json:"charRegion"`
	ClassID    int    `json:"classId"`

	Seasons []*SeasonReport `json:"seasons,omitempty"`
}

type SeasonReport struct {
	Result    *ranking.SeasonResult `json:"result"`
	FullClear bool                  `json:"fullClear"`
	Scores    score.Scores          `json:"scores"`
	Flags     score.Flags           `json:"flags"`
	Bosses    []BossInfo            `json:"bossInfo"`
}

// BossInfo is what the result page shows next to each boss.
type BossInfo struct {
	ID      int     `json:"id"`
	Name    string  `json:"name"`
	Percent float64 `json:"percent"`
	Kills   int     `json:"kills"`

	MinHealers int    `json:"minHealers"`
	HealerNote string `json:"healerNote,omitempty"`

	FirstKill int64            `json:"firstKill,omitempty"`
	Report    ranking.Fight    `json:"report"`
	Role      wow.Role         `json:"role,omitempty"`
	Week      int              `json:"week,omitempty"`
	Day       int              `json:"day,omitempty"`
	Tier      season.TierColor `json:"tier"`
	Patch     string           `json:"patch,omitempty"`
}

type encounterArgs struct {
	ID         int
	Difficulty int
	Partition  int
}

type characterQuery struct {
	CharName   string
	CharServer string
	CharRegion string
	Metric     string
	Encounters []encounterArgs
}

type character struct {
	Name     string
	ClassID  int
	Rankings map[int][]ranking.Record
}

// Do validates req and looks the character up in every requested season.
// Auxiliary analyses only run for fully cleared seasons.
func Do(ctx context.Context, q analysis.Querier, p *season.Preset, req analysis.RequestData, progress func(string)) (*Result, error) {
	if !req.CheckOptionValidation(p) {
		return nil, ErrInvalidRequest
	}
	if progress == nil {
		progress = func(string) {}
	}

	seasons := make([]*season.Season, 0, len(req.Zones))
	var encounters []encounterArgs
	for _, zone := range req.Zones {
		s, _ := p.Season(zone)
		seasons = append(seasons, s)
		for _, enc := range s.Encounters {
			encounters = append(encounters, encounterArgs{enc.ID, s.Difficulty, s.Partition})
		}
	}

	progress("[1 / 3] 캐릭터 정보 가져오는 중...")

	var dps, hps *character
	pp := parallel.New(2)
	pp.Reset(ctx)
	for _, metric := range []string{"dps", "hps"} {
		cq := &characterQuery{
			CharName:   req.CharName,
			CharServer: req.CharServer,
			CharRegion: req.CharRegion,
			Metric:     metric,
			Encounters: encounters,
		}
		pp.Add(func(ctx context.Context) error {
			c, err := queryCharacter(ctx, q, cq)
			if err != nil {
				return err
			}
			if cq.Metric == "dps" {
				dps = c
			} else {
				hps = c
			}
			return nil
		})
	}
	err := pp.Wait()
	pp.Stop()
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		analysis.Lookups.WithLabelValues(string(StateError)).Inc()
		return nil, err
	}

	res := &Result{
		State:      StateOK,
		CharName:   req.CharName,
		CharServer: req.CharServer,
		CharRegion: req.CharRegion,
	}
	if dps == nil {
		res.State = StateNotFound
		analysis.Lookups.WithLabelValues(string(res.State)).Inc()
		return res, nil
	}
	if hps == nil {
		hps = &character{}
	}
	if dps.Name != "" {
		res.CharName = dps.Name
	}
	res.ClassID = dps.ClassID

	progress("[2 / 3] 세부 분석 중...")

	for _, s := range seasons {
		sr := ranking.BuildSeason(s, res.CharName, res.ClassID, dps.Rankings, hps.Rankings)
		if sr.FullClear() {
			detail.Run(ctx, q, s, sr, progress)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		res.Seasons = append(res.Seasons, &SeasonReport{
			Result:    sr,
			FullClear: sr.FullClear(),
			Scores:    score.Compute(p, s, sr),
			Flags:     score.ComputeFlags(p, s, sr),
			Bosses:    annotate(p, s, sr),
		})
	}

	progress("[3 / 3] 완료")
	analysis.Lookups.WithLabelValues(string(res.State)).Inc()

	return res, nil
}

// queryCharacter returns nil without error when the character does not
// exist.
func queryCharacter(ctx context.Context, q analysis.Querier, cq *characterQuery) (*character, error) {
	var resp struct {
		CharacterData struct {
			Character map[string]jsoniter.RawMessage `json:"character"`
		} `json:"characterData"`
	}

	err := q.CallGraphQL(ctx, tmplCharacterRankings, cq, &resp)
	if err != nil {
		return nil, err
	}

	raw := resp.CharacterData.Character
	if raw == nil {
		return nil, nil
	}

	c := &character{
		Rankings: make(map[int][]ranking.Record, len(cq.Encounters)),
	}
	if err := decodeMember(raw, "name", &c.Name); err != nil {
		return nil, err
	}
	if err := decodeMember(raw, "classID", &c.ClassID); err != nil {
		return nil, err
	}

	for _, enc := range cq.Encounters {
		var er struct {
			Ranks []ranking.Record `json:"ranks"`
		}
		err := decodeMember(raw, "boss_"+strconv.Itoa(enc.ID)+"_"+cq.Metric, &er)
		if err != nil {
			return nil, err
		}
		if len(er.Ranks) > 0 {
			c.Rankings[enc.ID] = er.Ranks
		}
	}

	return c, nil
}

func decodeMember(raw map[string]jsoniter.RawMessage, key string, v interface{}) error {
	b, ok := raw[key]
	if !ok || len(b) == 0 {
		return nil
	}
	return errors.Wrap(jsoniter.Unmarshal(b, v), key)
}

func annotate(p *season.Preset, s *season.Season, sr *ranking.SeasonResult) []BossInfo {
	out := make([]BossInfo, 0, len(sr.Bosses))
	for _, b := range sr.Bosses {
		enc, _ := s.Encounter(b.ID)

		bi := BossInfo{
			ID:         b.ID,
			Name:       b.Name,
			Percent:    score.BossPercent(sr, b),
			MinHealers: enc.MinHealers,
			HealerNote: enc.HealerNote,
			Tier:       season.TierGray,
		}
		for _, a := range b.Roles {
			bi.Kills += a.TotalKills
		}

		if role, ok := b.FirstKillRole(); ok {
			fk := b.Role(role).FirstKill
			bi.FirstKill = fk.Time
			bi.Report = fk.Report
			bi.Role = role
			bi.Patch = p.PatchVersion(fk.Time)
			if week, day, ok := s.KillDate(fk.Time); ok {
				bi.Week, bi.Day = week, day
				bi.Tier = s.TierColor(b.ID, week)
			}
		}

		out = append(out, bi)
	}
	return out
}
