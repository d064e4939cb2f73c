package lookup

import (
	"context"
	"strconv"

	"wow_check/analysis"
	"wow_check/season"

	jsoniter "github.com/json-iterator/go"
)

type ClearStatus struct {
	State      State        `json:"state"`
	CharName   string       `json:"charName"`
	CharServer string       `json:"charServer"`
	CharRegion string       `json:"charRegion"`
	ClassID    int          `json:"classId"`
	Zones      []ZoneStatus `json:"zones,omitempty"`
}

type ZoneStatus struct {
	ZoneID     int               `json:"zoneId"`
	Name       string            `json:"name"`
	Killed     int               `json:"killed"`
	Bosses     int               `json:"bosses"`
	FullClear  bool              `json:"fullClear"`
	Encounters []EncounterStatus `json:"encounters"`
}

type EncounterStatus struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	TotalKills int    `json:"totalKills"`
}

type zoneArgs struct {
	ID         int
	Difficulty int
}

type zoneQuery struct {
	CharName   string
	CharServer string
	CharRegion string
	Zones      []zoneArgs
}

// Status counts the killed bosses of every requested season with a single
// query.
func Status(ctx context.Context, q analysis.Querier, p *season.Preset, req analysis.RequestData) (*ClearStatus, error) {
	if !req.CheckOptionValidation(p) {
		return nil, ErrInvalidRequest
	}

	zq := &zoneQuery{
		CharName:   req.CharName,
		CharServer: req.CharServer,
		CharRegion: req.CharRegion,
	}
	seasons := make([]*season.Season, 0, len(req.Zones))
	for _, zone := range req.Zones {
		s, _ := p.Season(zone)
		seasons = append(seasons, s)
		zq.Zones = append(zq.Zones, zoneArgs{s.ZoneID, s.Difficulty})
	}

	var resp struct {
		CharacterData struct {
			Character map[string]jsoniter.RawMessage `json:"character"`
		} `json:"characterData"`
	}
	err := q.CallGraphQL(ctx, tmplZoneRankings, zq, &resp)
	if err != nil {
		return nil, err
	}

	cs := &ClearStatus{
		State:      StateOK,
		CharName:   req.CharName,
		CharServer: req.CharServer,
		CharRegion: req.CharRegion,
	}

	raw := resp.CharacterData.Character
	if raw == nil {
		cs.State = StateNotFound
		return cs, nil
	}

	var name string
	if err := decodeMember(raw, "name", &name); err != nil {
		return nil, err
	}
	if name != "" {
		cs.CharName = name
	}
	if err := decodeMember(raw, "classID", &cs.ClassID); err != nil {
		return nil, err
	}

	for _, s := range seasons {
		var zr struct {
			Rankings []struct {
				Encounter struct {
					ID   int    `json:"id"`
					Name string `json:"name"`
				} `json:"encounter"`
				TotalKills int `json:"totalKills"`
			} `json:"rankings"`
		}
		if err := decodeMember(raw, "zone"+strconv.Itoa(s.ZoneID), &zr); err != nil {
			return nil, err
		}

		kills := make(map[int]int, len(zr.Rankings))
		for _, r := range zr.Rankings {
			kills[r.Encounter.ID] = r.TotalKills
		}

		zs := ZoneStatus{
			ZoneID:     s.ZoneID,
			Name:       s.Name,
			Bosses:     len(s.Encounters),
			Encounters: make([]EncounterStatus, 0, len(s.Encounters)),
		}
		for _, enc := range s.Encounters {
			n := kills[enc.ID]
			if n > 0 {
				zs.Killed++
			}
			zs.Encounters = append(zs.Encounters, EncounterStatus{ID: enc.ID, Name: enc.Name, TotalKills: n})
		}
		zs.FullClear = zs.Killed >= zs.Bosses && zs.Bosses > 0

		cs.Zones = append(cs.Zones, zs)
	}

	return cs, nil
}
