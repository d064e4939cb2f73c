package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"wow_check/analysis/lookup"
	"wow_check/share"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"
)

var zones []int

var lookupCmd = &cobra.Command{
	Use:   "lookup <name> <server> [region]",
	Short: "Score a character",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}

		res, err := lookup.Do(cmd.Context(), a.querier, a.preset, requestFromArgs(args, zones), func(s string) {
			fmt.Fprintln(os.Stderr, s)
		})
		if err != nil {
			return err
		}

		printResult(os.Stdout, res)
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status <name> <server> [region]",
	Short: "Count killed bosses per season",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}

		cs, err := lookup.Status(cmd.Context(), a.querier, a.preset, requestFromArgs(args, zones))
		if err != nil {
			return err
		}

		printStatus(os.Stdout, cs)
		return nil
	},
}

func init() {
	lookupCmd.Flags().IntSliceVar(&zones, "zone", nil, "zone ids to check (default every season)")
	statusCmd.Flags().IntSliceVar(&zones, "zone", nil, "zone ids to check (default every season)")
}

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignRight},
		},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
	}))
}

func printResult(w io.Writer, res *lookup.Result) {
	if res.State != lookup.StateOK {
		fmt.Fprintf(w, "%s@%s-%s: %s\n", res.CharName, res.CharServer, res.CharRegion, res.State)
		return
	}

	fmt.Fprintf(w, "%s@%s-%s\n", res.CharName, res.CharServer, res.CharRegion)

	for _, rep := range res.Seasons {
		fmt.Fprintf(w, "\n%s  |  best %s  |  aux %s  |  final %s\n",
			rep.Result.Name,
			share.FormatNumber(rep.Scores.Best),
			share.FormatNumber(rep.Scores.Auxiliary),
			share.FormatNumber(rep.Scores.Final),
		)
		if rep.Scores.Tank {
			fmt.Fprintf(w, "tank  |  dps %s  |  hps %s\n",
				share.FormatPercent(rep.Scores.TankDPS),
				share.FormatPercent(rep.Scores.TankHPS),
			)
		}

		table := newTable(w)
		table.Header("BOSS", "ROLE", "%", "KILLS", "WEEK", "TIER", "PATCH", "REPORT")
		for _, b := range rep.Bosses {
			week := "-"
			if b.Week > 0 {
				week = fmt.Sprintf("%d-%d", b.Week, b.Day)
			}
			report := "-"
			if b.Report.Valid() {
				report = b.Report.Code + "#" + strconv.Itoa(b.Report.FightID)
			}
			table.Append(
				b.Name,
				string(b.Role),
				share.FormatPercent(b.Percent),
				share.FormatNumber(b.Kills),
				week,
				string(b.Tier),
				b.Patch,
				report,
			)
		}
		table.Render()

		if !rep.Flags.Empty() {
			fmt.Fprintf(w, "low healers %v  |  low dps %v  |  power infusion %v\n",
				rep.Flags.LowHealers, rep.Flags.LowDps, rep.Flags.PowerInfusion)
		}
	}
}

func printStatus(w io.Writer, cs *lookup.ClearStatus) {
	if cs.State != lookup.StateOK {
		fmt.Fprintf(w, "%s@%s-%s: %s\n", cs.CharName, cs.CharServer, cs.CharRegion, cs.State)
		return
	}

	table := newTable(w)
	table.Header("ZONE", "KILLED", "FULL CLEAR")
	for _, z := range cs.Zones {
		full := "no"
		if z.FullClear {
			full = "yes"
		}
		table.Append(z.Name, fmt.Sprintf("%d / %d", z.Killed, z.Bosses), full)
	}
	table.Render()
}
