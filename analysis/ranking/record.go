package ranking

import "math"

// Fight identifies one boss pull inside one uploaded report.
type Fight struct {
	Code    string `json:"code"`
	FightID int    `json:"fightID"`
}

func (f Fight) Valid() bool {
	return f.Code != "" && f.FightID != 0
}

// Record is one ranking entry for the character in one fight.
type Record struct {
	Spec        string  `json:"spec"`
	RankPercent float64 `json:"rankPercent"`
	Amount      float64 `json:"amount"`
	StartTime   int64   `json:"startTime"`
	Report      Fight   `json:"report"`
}

// DisplayPercent rounds a percentile the way it is shown to users: one
// decimal, except that anything short of a perfect 100 never shows as 100.
func DisplayPercent(v float64) float64 {
	if v == 100 {
		return 100
	}
	// 1e-9 absorbs binary representation error, 50.05*10 is 500.49999...
	r := math.Floor(v*10+0.5+1e-9) / 10
	if v < 100 && r >= 100 {
		return 99.9
	}
	return r
}
