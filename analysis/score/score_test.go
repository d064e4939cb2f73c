package score_test

import (
	"testing"

	"wow_check/analysis/ranking"
	"wow_check/analysis/score"
	"wow_check/season"

	. "github.com/smartystreets/goconvey/convey"
)

func rec(spec string, pct float64, start int64, code string, fight int) ranking.Record {
	return ranking.Record{
		Spec:        spec,
		RankPercent: pct,
		Amount:      pct * 1000,
		StartTime:   start,
		Report:      ranking.Fight{Code: code, FightID: fight},
	}
}

func mustSeason(zone int) *season.Season {
	s, ok := season.Default.Season(zone)
	if !ok {
		panic("missing season")
	}
	return s
}

func TestWeightedAverage(t *testing.T) {
	Convey("Given weighted values", t, func() {
		Convey("A normal average divides by the weight sum", func() {
			v := score.WeightedAverage([]score.Weighted{{Score: 80, Weight: 1}, {Score: 40, Weight: 3}})
			So(v, ShouldEqual, 50)
		})

		Convey("Zero total weight yields zero", func() {
			So(score.WeightedAverage(nil), ShouldEqual, 0)
			So(score.WeightedAverage([]score.Weighted{{Score: 80, Weight: 0}}), ShouldEqual, 0)
		})
	})
}

func TestBestPercent(t *testing.T) {
	Convey("Given a season with one boss without a record", t, func() {
		s := &season.Season{
			Encounters: []season.Encounter{{ID: 1}, {ID: 2}},
		}
		dps := map[int][]ranking.Record{
			1: {rec("Fire", 80, 1000, "A", 1)},
		}
		sr := ranking.BuildSeason(s, "Tester", 8, dps, nil)

		Convey("The missing boss does not drag the score down", func() {
			So(score.BestPercent(s, sr), ShouldEqual, 80)
		})
	})

	Convey("Given a full clear of the first season as DPS", t, func() {
		s := mustSeason(38)
		pcts := []float64{90, 85, 95, 80, 88, 92, 97, 99}

		dps := make(map[int][]ranking.Record)
		for i, enc := range s.Encounters {
			dps[enc.ID] = []ranking.Record{rec("Fire", pcts[i], int64(s.OpenAt)+int64(i+1)*season.DayMs, "A", i+1)}
		}
		sr := ranking.BuildSeason(s, "Tester", 8, dps, nil)

		Convey("The score is the hand computed weighted average", func() {
			// (450+1020+1140+640+880+1380+1746+1980)/100
			So(score.BestPercent(s, sr), ShouldAlmostEqual, 92.36, 1e-9)
		})

		Convey("Without auxiliary cells the final score is the best percent", func() {
			sc := score.Compute(season.Default, s, sr)
			So(sc.Tank, ShouldBeFalse)
			So(sc.Auxiliary, ShouldEqual, 0)
			So(sc.Final, ShouldAlmostEqual, 92.36, 1e-9)
		})
	})

	Convey("Given a character playing both healer and dps", t, func() {
		s := &season.Season{
			Encounters: []season.Encounter{{ID: 1}, {ID: 2}},
		}
		dps := map[int][]ranking.Record{
			1: {rec("Shadow", 70, 1000, "A", 1)},
			2: {rec("Shadow", 40, 1000, "B", 1)},
		}
		hps := map[int][]ranking.Record{
			2: {rec("Holy", 90, 9_000_000, "C", 1)},
		}
		sr := ranking.BuildSeason(s, "Tester", 5, dps, hps)

		Convey("Each boss takes the better of both axes", func() {
			So(score.BossPercent(sr, sr.Boss(1)), ShouldEqual, 70)
			So(score.BossPercent(sr, sr.Boss(2)), ShouldEqual, 90)
			So(score.BestPercent(s, sr), ShouldEqual, 80)
		})
	})
}

func TestTankOverride(t *testing.T) {
	Convey("Given the last boss first killed as a tank", t, func() {
		s := mustSeason(38)
		last := s.LastBoss()

		dps := map[int][]ranking.Record{
			last: {
				rec("Blood", 80, 1_000_000, "A", 1),
				rec("Fire", 99, 5_000_000, "B", 2),
			},
		}
		hps := map[int][]ranking.Record{
			last: {rec("Blood", 60, 1_000_000, "A", 1)},
		}
		sr := ranking.BuildSeason(s, "Tester", 6, dps, hps)

		Convey("The tank path is taken", func() {
			So(score.IsTankSeason(s, sr), ShouldBeTrue)

			sc := score.Compute(season.Default, s, sr)
			So(sc.Tank, ShouldBeTrue)
			So(sc.TankDPS, ShouldEqual, 80)
			So(sc.TankHPS, ShouldEqual, 60)
			So(sc.Final, ShouldAlmostEqual, 74, 1e-9)
		})
	})

	Convey("Given the last boss first killed as dps", t, func() {
		s := mustSeason(38)
		last := s.LastBoss()

		dps := map[int][]ranking.Record{
			last: {
				rec("Fire", 99, 1_000_000, "B", 2),
				rec("Blood", 80, 5_000_000, "A", 1),
			},
		}
		sr := ranking.BuildSeason(s, "Tester", 6, dps, nil)

		So(score.IsTankSeason(s, sr), ShouldBeFalse)
	})

	Convey("Given equal first kills of tank and dps", t, func() {
		s := mustSeason(38)
		last := s.LastBoss()

		dps := map[int][]ranking.Record{
			last: {
				rec("Fire", 99, 1_000_000, "B", 2),
				rec("Blood", 80, 1_000_000, "B", 3),
			},
		}
		sr := ranking.BuildSeason(s, "Tester", 6, dps, nil)

		So(score.IsTankSeason(s, sr), ShouldBeFalse)
	})
}

func TestAuxiliary(t *testing.T) {
	Convey("Given cell scorers", t, func() {
		So(score.DebuffScore(0), ShouldEqual, 0)
		So(score.DebuffScore(-1), ShouldEqual, 0)
		So(score.DebuffScore(2.5), ShouldEqual, 50)
		So(score.DebuffScore(7), ShouldEqual, 100)

		So(score.KillWeekScore(0), ShouldEqual, 0)
		So(score.KillWeekScore(1), ShouldEqual, 100)
		So(score.KillWeekScore(10), ShouldEqual, 75)
		So(score.KillWeekScore(11), ShouldEqual, 50)

		So(score.PhaseDamageScore(season.Default, 2, "Holy", 6_400_000), ShouldEqual, 50)
		So(score.PhaseDamageScore(season.Default, 2, "Holy", 20_000_000), ShouldEqual, 100)
		So(score.PhaseDamageScore(season.Default, 7, "Holy", 14_500_000), ShouldEqual, 50)
		So(score.PhaseDamageScore(season.Default, 1, "Arms", 1), ShouldEqual, 0)
	})

	Convey("Given the third season with both cells populated", t, func() {
		s := mustSeason(44)
		sr := ranking.BuildSeason(s, "Tester", 2, nil, nil)
		sr.Analysis.Set("boss8_phase_damage", &ranking.Cell{Value: 6_400_000, Spec: "Holy"})
		sr.Analysis.Set("boss8_kill_week", &ranking.Cell{Value: 0})

		So(score.Auxiliary(season.Default, s, sr), ShouldEqual, 75)

		Convey("A missing cell is skipped instead of scored as zero", func() {
			sr := ranking.BuildSeason(s, "Tester", 2, nil, nil)
			sr.Analysis.Set("boss8_kill_week", &ranking.Cell{Value: 1})

			So(score.Auxiliary(season.Default, s, sr), ShouldEqual, 99)
		})
	})

	Convey("Given the second season", t, func() {
		s := mustSeason(42)
		sr := ranking.BuildSeason(s, "Tester", 8, nil, nil)

		So(score.Auxiliary(season.Default, s, sr), ShouldEqual, 0)

		sr.Analysis.Set("boss1_debuff", &ranking.Cell{Value: 2.5})
		So(score.Auxiliary(season.Default, s, sr), ShouldEqual, 50)

		Convey("The final score blends both", func() {
			So(score.Final(90, 50), ShouldAlmostEqual, 78, 1e-9)
			So(score.Final(90, 0), ShouldEqual, 90)
		})
	})
}

func TestFlags(t *testing.T) {
	Convey("Given analysis cells of the first season", t, func() {
		s := mustSeason(38)
		dps := map[int][]ranking.Record{
			2902: {rec("Fire", 99.5, 1_000_000, "A", 1)},
			2917: {rec("Fire", 99.5, 2_000_000, "A", 2)},
		}
		hps := map[int][]ranking.Record{
			2898: {rec("Holy", 95, 3_000_000, "B", 1)},
		}
		sr := ranking.BuildSeason(s, "Tester", 5, dps, hps)

		sr.Analysis.Set(ranking.BossKey("healers", 2898), &ranking.Cell{Value: 2, Count: 4})
		sr.Analysis.Set(ranking.BossKey("low_dps", 2902), &ranking.Cell{Count: 6})
		sr.Analysis.Set(ranking.BossKey("low_dps", 2917), &ranking.Cell{Count: 5})
		sr.Analysis.Set(ranking.BossKey("power_infusion", 2917), &ranking.Cell{Count: 2})
		sr.Analysis.Set(ranking.BossKey("power_infusion", 2902), &ranking.Cell{Count: 1})

		f := score.ComputeFlags(season.Default, s, sr)

		So(f.LowHealers, ShouldResemble, []int{2898})
		So(f.LowDps, ShouldResemble, []int{2902})
		So(f.PowerInfusion, ShouldResemble, []int{2917})
		So(f.Empty(), ShouldBeFalse)
	})
}
