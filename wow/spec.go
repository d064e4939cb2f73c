package wow

import "strings"

type Role string

const (
	RoleTank   Role = "Tank"
	RoleHealer Role = "Healer"
	RoleDPS    Role = "DPS"
)

// Roles in display order.
var Roles = []Role{RoleTank, RoleHealer, RoleDPS}

var (
	// english and korean spec names, matched by substring
	tankSpecs = []string{
		"Blood", "Protection", "Guardian", "Brewmaster", "Vengeance",
		"피", "방어", "수호", "양조", "복수",
	}
	healerSpecs = []string{
		"Holy", "Discipline", "Restoration", "Mistweaver", "Preservation",
		"신성", "수양", "회복", "운무", "보존",
	}
)

// SpecRole classifies a specialization name. Tank names are checked first,
// anything that is neither tank nor healer is DPS.
func SpecRole(spec string) Role {
	switch {
	case containsAny(spec, tankSpecs):
		return RoleTank
	case containsAny(spec, healerSpecs):
		return RoleHealer
	default:
		return RoleDPS
	}
}

func IsTankSpec(spec string) bool   { return containsAny(spec, tankSpecs) }
func IsHealerSpec(spec string) bool { return containsAny(spec, healerSpecs) }

func containsAny(s string, list []string) bool {
	for _, v := range list {
		if strings.Contains(s, v) {
			return true
		}
	}
	return false
}

// SpecFromIcon extracts the spec part of a table entry icon ("Priest-Holy").
func SpecFromIcon(icon string) string {
	if idx := strings.IndexByte(icon, '-'); idx >= 0 {
		return icon[idx+1:]
	}
	return icon
}
