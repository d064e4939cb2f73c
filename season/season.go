package season

import (
	"bytes"
	_ "embed"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/dimchansky/utfbom"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

//go:embed presets.json
var presetsJSON []byte

// Default is the preset compiled into the binary.
var Default *Preset

func init() {
	p, err := Parse(bytes.NewReader(presetsJSON))
	if err != nil {
		panic(err)
	}
	Default = p
}

type Preset struct {
	Seasons         []*Season         `json:"seasons"`
	Patches         []Patch           `json:"patches"`
	PhaseThresholds map[int]Threshold `json:"phase_thresholds"`
	Warnings        Warnings          `json:"warnings"`

	byZone map[int]*Season
}

type Season struct {
	ZoneID      int             `json:"zone"`
	Name        string          `json:"name"`
	Difficulty  int             `json:"difficulty"`
	Partition   int             `json:"partition"`
	OpenAt      Time            `json:"open"`
	KrFirstKill Time            `json:"kr_first_kill"`
	CheckBoss   int             `json:"check_boss"`
	Encounters  []Encounter     `json:"encounters"`
	Weights     map[int]float64 `json:"weights"`
	Analyses    []Analysis      `json:"analyses"`
	Cells       []Cell          `json:"cells"`
}

type Encounter struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	MinHealers int    `json:"min_healers"`
	HealerNote string `json:"healer_note"`
	KillTiers  []int  `json:"kill_tiers"` // gold, pink, orange, purple, blue, green max week
}

// Analysis describes one auxiliary fetcher run for a season. Which fields
// matter depends on Kind.
type Analysis struct {
	Kind       string   `json:"kind"`
	ID         string   `json:"id"`
	Boss       int      `json:"boss"`
	Ability    int      `json:"ability"`
	Aura       int      `json:"aura"`
	AuraName   string   `json:"aura_name"`
	Band       int      `json:"band"`
	VoidAura   int      `json:"void_aura"`
	Batch      bool     `json:"batch"`
	Mode       string   `json:"mode"`
	Target     string   `json:"target"`
	Exclude    string   `json:"exclude"`
	Threshold  float64  `json:"threshold"`
	MinPercent float64  `json:"min_percent"`
	Window     [2]int64 `json:"window"`
	Tasks      []Task   `json:"tasks"`
}

type Task struct {
	Name    string `json:"name"`
	Ability int    `json:"ability"`
}

// Cell is one entry of the auxiliary score. Cells without a Score kind are
// never populated and therefore never scored.
type Cell struct {
	ID     string  `json:"id"`
	Weight float64 `json:"weight"`
	Score  string  `json:"score"`
	Source string  `json:"source"`
}

type Patch struct {
	Version string `json:"version"`
	Start   Time   `json:"start"`
	End     Time   `json:"end"`
}

type Threshold struct {
	High   float64         `json:"high"`
	Medium float64         `json:"medium"`
	Specs  []SpecThreshold `json:"specs"`
}

type SpecThreshold struct {
	Spec   string  `json:"spec"`
	High   float64 `json:"high"`
	Medium float64 `json:"medium"`
}

type Warnings struct {
	LowDpsBest         float64 `json:"low_dps_best"`
	LowDpsCount        int     `json:"low_dps_count"`
	PowerInfusionCount int     `json:"power_infusion_count"`
}

// Parse decodes a preset document.
func Parse(r io.Reader) (*Preset, error) {
	var p Preset
	err := jsoniter.NewDecoder(utfbom.SkipOnly(r)).Decode(&p)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	p.byZone = make(map[int]*Season, len(p.Seasons))
	for _, s := range p.Seasons {
		if len(s.Encounters) == 0 {
			return nil, errors.Errorf("season %d has no encounters", s.ZoneID)
		}
		p.byZone[s.ZoneID] = s
	}
	sort.Slice(p.Patches, func(i, k int) bool { return p.Patches[i].Start < p.Patches[k].Start })

	return &p, nil
}

// Load reads a preset file. An empty path returns Default.
func Load(path string) (*Preset, error) {
	if path == "" {
		return Default, nil
	}

	fs, err := os.Open(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer fs.Close()

	return Parse(fs)
}

func (p *Preset) Season(zoneID int) (*Season, bool) {
	s, ok := p.byZone[zoneID]
	return s, ok
}

// PatchVersion returns the newest patch whose window contains ts, or "".
func (p *Preset) PatchVersion(ts int64) string {
	if ts <= 0 {
		return ""
	}
	for i := len(p.Patches) - 1; i >= 0; i-- {
		patch := p.Patches[i]
		if ts < int64(patch.Start) {
			continue
		}
		if patch.End > 0 && ts >= int64(patch.End) {
			continue
		}
		return patch.Version
	}
	return ""
}

// PhaseThreshold resolves the thresholds for a class, honoring per-spec overrides.
func (p *Preset) PhaseThreshold(classID int, spec string) (high, medium float64, ok bool) {
	t, ok := p.PhaseThresholds[classID]
	if !ok {
		return 0, 0, false
	}
	for _, st := range t.Specs {
		if spec != "" && strings.Contains(spec, st.Spec) {
			return st.High, st.Medium, true
		}
	}
	return t.High, t.Medium, true
}

func (s *Season) Encounter(id int) (Encounter, bool) {
	for _, e := range s.Encounters {
		if e.ID == id {
			return e, true
		}
	}
	return Encounter{}, false
}

// Weight of a boss in the best percent score. Unconfigured bosses weigh 1.
func (s *Season) Weight(bossID int) float64 {
	if w, ok := s.Weights[bossID]; ok {
		return w
	}
	return 1
}

func (s *Season) LastBoss() int {
	return s.Encounters[len(s.Encounters)-1].ID
}

// Time is a unix millisecond timestamp written as RFC 3339 in presets.
type Time int64

func (t *Time) UnmarshalJSON(b []byte) error {
	var s string
	if err := jsoniter.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*t = 0
		return nil
	}
	v, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return err
	}
	*t = Time(v.UnixMilli())
	return nil
}

func (t Time) MarshalJSON() ([]byte, error) {
	if t == 0 {
		return []byte(`""`), nil
	}
	return jsoniter.Marshal(time.UnixMilli(int64(t)).Format(time.RFC3339))
}

// AnalysisByKind returns the first configured analysis of a kind.
func (s *Season) AnalysisByKind(kind string) (Analysis, bool) {
	for _, a := range s.Analyses {
		if a.Kind == kind {
			return a, true
		}
	}
	return Analysis{}, false
}
