package ranking

import (
	"sort"
	"strconv"
	"sync"

	jsoniter "github.com/json-iterator/go"
)

// Cell is one derived auxiliary metric. A missing cell means the analysis
// did not run or found nothing, never a zero.
type Cell struct {
	Value   float64      `json:"value"`
	Count   int          `json:"count,omitempty"`
	Kills   int          `json:"kills,omitempty"`
	Spec    string       `json:"spec,omitempty"`
	Details []KillDetail `json:"details,omitempty"`
}

type KillDetail struct {
	Report    Fight   `json:"report"`
	StartTime int64   `json:"startTime"`
	Spec      string  `json:"spec,omitempty"`
	Value     float64 `json:"value,omitempty"`
	Entries   []Entry `json:"entries,omitempty"`

	// nil when the fight has no phase band
	PhaseDamage *float64 `json:"phaseDamage,omitempty"`
}

// Entry is one actor line of a breakdown table.
type Entry struct {
	Name    string  `json:"name"`
	Type    string  `json:"type,omitempty"`
	Icon    string  `json:"icon,omitempty"`
	Total   float64 `json:"total,omitempty"`
	Count   int     `json:"count,omitempty"`
	Percent float64 `json:"percent,omitempty"`
	Rate    float64 `json:"rate,omitempty"`
	// the looked up character
	Flag bool `json:"flag,omitempty"`
	// hit while carrying the void debuff
	Void bool `json:"void,omitempty"`
}

// Analysis holds the cells of one season. Fetchers running concurrently
// write disjoint keys.
type Analysis struct {
	lock  sync.RWMutex
	cells map[string]*Cell
}

func NewAnalysis() *Analysis {
	return &Analysis{
		cells: make(map[string]*Cell),
	}
}

func (a *Analysis) Set(key string, c *Cell) {
	a.lock.Lock()
	a.cells[key] = c
	a.lock.Unlock()
}

func (a *Analysis) Merge(cells map[string]*Cell) {
	a.lock.Lock()
	for k, c := range cells {
		a.cells[k] = c
	}
	a.lock.Unlock()
}

func (a *Analysis) Get(key string) (*Cell, bool) {
	a.lock.RLock()
	defer a.lock.RUnlock()

	c, ok := a.cells[key]
	return c, ok
}

func (a *Analysis) Keys() []string {
	a.lock.RLock()
	keys := make([]string, 0, len(a.cells))
	for k := range a.cells {
		keys = append(keys, k)
	}
	a.lock.RUnlock()

	sort.Strings(keys)
	return keys
}

func (a *Analysis) Len() int {
	a.lock.RLock()
	defer a.lock.RUnlock()
	return len(a.cells)
}

func (a *Analysis) MarshalJSON() ([]byte, error) {
	a.lock.RLock()
	defer a.lock.RUnlock()
	return jsoniter.Marshal(a.cells)
}

func (a *Analysis) UnmarshalJSON(b []byte) error {
	cells := make(map[string]*Cell)
	if err := jsoniter.Unmarshal(b, &cells); err != nil {
		return err
	}

	a.lock.Lock()
	a.cells = cells
	a.lock.Unlock()
	return nil
}

// BossKey is the cell key of a per boss analysis.
func BossKey(id string, bossID int) string {
	return id + ":" + strconv.Itoa(bossID)
}
