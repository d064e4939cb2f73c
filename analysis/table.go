package analysis

import "strings"

// Response shapes shared by report queries. Every nested object is optional
// in practice, missing members decode to zero values.

type Band struct {
	StartTime int64 `json:"startTime"`
	EndTime   int64 `json:"endTime"`
}

type Aura struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	Icon      string `json:"icon"`
	Guid      int    `json:"guid"`
	TotalUses int    `json:"totalUses"`
	Bands     []Band `json:"bands"`
}

type TableTarget struct {
	Name  string  `json:"name"`
	Total float64 `json:"total"`
}

type TableEntry struct {
	Name     string        `json:"name"`
	Type     string        `json:"type"`
	Icon     string        `json:"icon"`
	Total    float64       `json:"total"`
	HitCount int           `json:"hitCount"`
	Targets  []TableTarget `json:"targets"`
}

// Table is the JSON scalar returned by report.table.
type Table struct {
	Data *struct {
		Auras   []Aura       `json:"auras"`
		Entries []TableEntry `json:"entries"`
	} `json:"data"`
}

func (t *Table) Auras() []Aura {
	if t == nil || t.Data == nil {
		return nil
	}
	return t.Data.Auras
}

func (t *Table) Entries() []TableEntry {
	if t == nil || t.Data == nil {
		return nil
	}
	return t.Data.Entries
}

// AuraUses returns the uses of the aura named name, compared case
// insensitively.
func (t *Table) AuraUses(name string) (int, bool) {
	for _, a := range t.Auras() {
		if strings.EqualFold(a.Name, name) {
			return a.TotalUses, true
		}
	}
	return 0, false
}

// Duration sums the band lengths of an aura in seconds.
func (a *Aura) Duration() float64 {
	var ms int64
	for _, b := range a.Bands {
		ms += b.EndTime - b.StartTime
	}
	return float64(ms) / 1000
}

type RankedCharacter struct {
	Name        string   `json:"name"`
	Class       string   `json:"class"`
	Spec        string   `json:"spec"`
	RankPercent *float64 `json:"rankPercent"`
}

type rankedRole struct {
	Characters []RankedCharacter `json:"characters"`
}

// Rankings is the JSON scalar returned by report.rankings.
type Rankings struct {
	Data []struct {
		FightID int `json:"fightID"`
		Roles   *struct {
			Tanks   *rankedRole `json:"tanks"`
			Healers *rankedRole `json:"healers"`
			DPS     *rankedRole `json:"dps"`
		} `json:"roles"`
	} `json:"data"`
}

func (r *Rankings) first() bool {
	return r != nil && len(r.Data) > 0 && r.Data[0].Roles != nil
}

func (r *Rankings) Healers() []RankedCharacter {
	if !r.first() || r.Data[0].Roles.Healers == nil {
		return nil
	}
	return r.Data[0].Roles.Healers.Characters
}

func (r *Rankings) DPS() []RankedCharacter {
	if !r.first() || r.Data[0].Roles.DPS == nil {
		return nil
	}
	return r.Data[0].Roles.DPS.Characters
}
