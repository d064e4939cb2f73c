package analysis

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"wow_check/season"
)

var regions = map[string]bool{
	"kr": true,
	"us": true,
	"eu": true,
	"tw": true,
	"cn": true,
}

// RequestData is one character lookup as sent by a client.
type RequestData struct {
	CharName   string `json:"char_name"`
	CharServer string `json:"char_server"`
	CharRegion string `json:"char_region"`
	Zones      []int  `json:"zones"`

	Captcha string `json:"captcha,omitempty"`
}

// CheckOptionValidation normalizes rd in place. An empty zone list selects
// every season of p.
func (rd *RequestData) CheckOptionValidation(p *season.Preset) bool {
	rd.CharName = strings.TrimSpace(rd.CharName)
	rd.CharServer = strings.ToLower(strings.TrimSpace(rd.CharServer))
	rd.CharRegion = strings.ToLower(strings.TrimSpace(rd.CharRegion))
	if rd.CharRegion == "" {
		rd.CharRegion = "kr"
	}

	if len(rd.Zones) == 0 {
		for _, s := range p.Seasons {
			rd.Zones = append(rd.Zones, s.ZoneID)
		}
	} else {
		zones := make([]int, 0, len(rd.Zones))
		seen := make(map[int]bool, len(rd.Zones))
		for _, zone := range rd.Zones {
			if !seen[zone] {
				seen[zone] = true
				zones = append(zones, zone)
			}
		}
		rd.Zones = zones
	}

	lenCharName := utf8.RuneCountInString(rd.CharName)
	lenCharServer := utf8.RuneCountInString(rd.CharServer)

	switch {
	case lenCharName < 2:
	case lenCharName > 12:
	case lenCharServer < 2:
	case lenCharServer > 30:
	case !regions[rd.CharRegion]:
	case len(rd.Zones) > len(p.Seasons):
	default:
		for _, zone := range rd.Zones {
			if _, ok := p.Season(zone); !ok {
				return false
			}
		}
		return true
	}

	return false
}

// Hash identifies a request regardless of letter case and zone order.
func (rd *RequestData) Hash() uint64 {
	h := fnv.New64()

	b := make([]byte, 8)
	append := func(s string) {
		for _, c := range s {
			r := unicode.ToLower(c)
			if r < utf8.RuneSelf {
				b[0] = byte(r)
				h.Write(b[:1])
			} else {
				n := utf8.EncodeRune(b, r)
				h.Write(b[:n])
			}
		}
		h.Write([]byte{'|'})
	}

	append(rd.CharName)
	append(rd.CharServer)
	append(rd.CharRegion)

	zones := make([]int, len(rd.Zones))
	copy(zones, rd.Zones)
	sort.Ints(zones)
	for _, zone := range zones {
		fmt.Fprint(h, zone, "|")
	}

	return h.Sum64()
}

func (rd *RequestData) String() string {
	return fmt.Sprintf("%s@%s-%s", rd.CharName, rd.CharServer, rd.CharRegion)
}
