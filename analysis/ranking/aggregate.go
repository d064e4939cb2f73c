package ranking

import (
	"sort"

	"wow_check/season"
	"wow_check/wow"
)

type Best struct {
	Percent float64 `json:"percent"`
	Amount  float64 `json:"amount"`
}

type FirstKill struct {
	Time   int64 `json:"time"`
	Report Fight `json:"report"`
}

// RoleAggregate accumulates every ranking of one role on one boss.
type RoleAggregate struct {
	Specs      []string       `json:"specs"`
	SpecKills  map[string]int `json:"specKills"`
	TotalKills int            `json:"totalKills"`

	DPS Best `json:"dps"`
	HPS Best `json:"hps"`

	// fight of the best record on the role's own axis
	BestReport Fight `json:"bestReport"`

	FirstKill FirstKill `json:"firstKill"`
}

func newRoleAggregate() *RoleAggregate {
	return &RoleAggregate{
		SpecKills: make(map[string]int),
	}
}

// FoldDPS folds one record of the dps metric stream.
func (a *RoleAggregate) FoldDPS(role wow.Role, r Record) {
	a.addSpec(r.Spec)
	if role != wow.RoleHealer {
		a.countKill(r.Spec)
	}

	if r.RankPercent > a.DPS.Percent || (r.RankPercent == a.DPS.Percent && r.Amount > a.DPS.Amount) {
		a.DPS = Best{Percent: r.RankPercent, Amount: r.Amount}
		if role == wow.RoleDPS && r.Report.Valid() {
			a.BestReport = r.Report
		}
	}

	a.trackFirstKill(r)
}

// FoldHPS folds one record of the hps metric stream. Percentiles are
// compared by their displayed value so that equal looking parses are
// decided by amount.
func (a *RoleAggregate) FoldHPS(role wow.Role, r Record) {
	a.addSpec(r.Spec)
	if role == wow.RoleHealer {
		a.countKill(r.Spec)
	}

	if role == wow.RoleHealer || role == wow.RoleTank {
		cur := DisplayPercent(r.RankPercent)
		best := DisplayPercent(a.HPS.Percent)
		if cur > best || (cur == best && r.Amount > a.HPS.Amount) {
			a.HPS = Best{Percent: r.RankPercent, Amount: r.Amount}
			if role == wow.RoleHealer && r.Report.Valid() {
				a.BestReport = r.Report
			}
		}
	}

	a.trackFirstKill(r)
}

func (a *RoleAggregate) addSpec(spec string) {
	for _, s := range a.Specs {
		if s == spec {
			return
		}
	}
	a.Specs = append(a.Specs, spec)
}

func (a *RoleAggregate) countKill(spec string) {
	a.SpecKills[spec]++
	a.TotalKills++
}

func (a *RoleAggregate) trackFirstKill(r Record) {
	if r.StartTime <= 0 {
		return
	}
	if a.FirstKill.Time == 0 || r.StartTime < a.FirstKill.Time {
		a.FirstKill = FirstKill{Time: r.StartTime, Report: r.Report}
	}
}

type BossResult struct {
	ID    int                         `json:"id"`
	Name  string                      `json:"name"`
	Roles map[wow.Role]*RoleAggregate `json:"roles"`
}

// Role returns nil when the role has no record on the boss.
func (b *BossResult) Role(role wow.Role) *RoleAggregate {
	return b.Roles[role]
}

func (b *BossResult) Killed() bool {
	for _, a := range b.Roles {
		if a.TotalKills > 0 {
			return true
		}
	}
	return false
}

// FirstKillRole is the role whose first kill is the earliest on the boss.
func (b *BossResult) FirstKillRole() (wow.Role, bool) {
	var (
		role  wow.Role
		first int64
	)
	for _, r := range wow.Roles {
		a := b.Roles[r]
		if a == nil || a.FirstKill.Time == 0 {
			continue
		}
		if first == 0 || a.FirstKill.Time < first {
			role, first = r, a.FirstKill.Time
		}
	}
	return role, first != 0
}

// BuildBoss reduces both metric streams of one boss. Each stream is
// deduplicated on its own first so one pull uploaded twice counts once.
func BuildBoss(enc season.Encounter, dps, hps []Record) *BossResult {
	b := &BossResult{
		ID:    enc.ID,
		Name:  enc.Name,
		Roles: make(map[wow.Role]*RoleAggregate, 3),
	}

	get := func(role wow.Role) *RoleAggregate {
		a, ok := b.Roles[role]
		if !ok {
			a = newRoleAggregate()
			b.Roles[role] = a
		}
		return a
	}

	for _, r := range Dedupe(dps) {
		role := wow.SpecRole(r.Spec)
		get(role).FoldDPS(role, r)
	}
	for _, r := range Dedupe(hps) {
		role := wow.SpecRole(r.Spec)
		get(role).FoldHPS(role, r)
	}

	return b
}

// SeasonResult is everything computed for one character in one season.
type SeasonResult struct {
	ZoneID      int           `json:"zoneId"`
	Name        string        `json:"name"`
	CharName    string        `json:"charName"`
	ClassID     int           `json:"classId"`
	ActiveRoles []wow.Role    `json:"activeRoles"`
	Bosses      []*BossResult `json:"bosses"`

	// unique provenance bearing kills of each boss, both streams merged
	Kills map[int][]Record `json:"-"`

	Analysis *Analysis `json:"analysis"`
}

// BuildSeason folds the rankings of every encounter of s. dps and hps are
// keyed by encounter id.
func BuildSeason(s *season.Season, charName string, classID int, dps, hps map[int][]Record) *SeasonResult {
	sr := &SeasonResult{
		ZoneID:   s.ZoneID,
		Name:     s.Name,
		CharName: charName,
		ClassID:  classID,
		Bosses:   make([]*BossResult, 0, len(s.Encounters)),
		Kills:    make(map[int][]Record, len(s.Encounters)),
		Analysis: NewAnalysis(),
	}

	active := make(map[wow.Role]bool, 3)
	for _, enc := range s.Encounters {
		b := BuildBoss(enc, dps[enc.ID], hps[enc.ID])
		sr.Bosses = append(sr.Bosses, b)
		for role := range b.Roles {
			active[role] = true
		}

		var kills []Record
		for _, r := range Dedupe(dps[enc.ID], hps[enc.ID]) {
			if r.Report.Valid() {
				kills = append(kills, r)
			}
		}
		if len(kills) > 0 {
			sr.Kills[enc.ID] = kills
		}
	}

	for _, role := range wow.Roles {
		if active[role] {
			sr.ActiveRoles = append(sr.ActiveRoles, role)
		}
	}

	return sr
}

func (sr *SeasonResult) Boss(id int) *BossResult {
	for _, b := range sr.Bosses {
		if b.ID == id {
			return b
		}
	}
	return nil
}

func (sr *SeasonResult) IsActive(role wow.Role) bool {
	for _, r := range sr.ActiveRoles {
		if r == role {
			return true
		}
	}
	return false
}

// KilledBosses counts bosses with at least one counted kill.
func (sr *SeasonResult) KilledBosses() int {
	n := 0
	for _, b := range sr.Bosses {
		if b.Killed() {
			n++
		}
	}
	return n
}

func (sr *SeasonResult) FullClear() bool {
	return sr.KilledBosses() >= len(sr.Bosses) && len(sr.Bosses) > 0
}

// KillsSorted returns the unique kills of a boss ordered by start time,
// kills without a start time last.
func (sr *SeasonResult) KillsSorted(bossID int) []Record {
	kills := append([]Record(nil), sr.Kills[bossID]...)
	sort.SliceStable(kills, func(i, k int) bool {
		a, b := kills[i].StartTime, kills[k].StartTime
		if a <= 0 {
			return false
		}
		if b <= 0 {
			return true
		}
		return a < b
	})
	return kills
}
