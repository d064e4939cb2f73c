package detail

import (
	"context"
	"embed"
	"strconv"
	"sync"
	"text/template"

	"wow_check/analysis"
	"wow_check/share"
	"wow_check/share/parallel"
)

const (
	// aliases per document
	maxBatch = 16

	batchWorkers = 2
)

//go:embed query/*.tmpl
var queryFS embed.FS

var (
	tmplReportTables     = template.Must(template.ParseFS(queryFS, "query/ReportTables.tmpl"))
	tmplReportRankings   = template.Must(template.ParseFS(queryFS, "query/ReportRankings.tmpl"))
	tmplReportStartTimes = template.Must(template.ParseFS(queryFS, "query/ReportStartTimes.tmpl"))
)

type tableArgs struct {
	Alias              string
	DataType           string
	AbilityID          int
	TargetAurasPresent string
	HostilityType      string
	StartTime          int64
	EndTime            int64
	Filter             string
}

// tableQuery is one aliased report of a ReportTables document. Every table
// in Tables is restricted to FightID.
type tableQuery struct {
	Key     string
	Code    string
	FightID int
	Tables  []tableArgs
}

type rankingsQuery struct {
	Key     string
	Code    string
	FightID int
	Metric  string
}

type startTimeQuery struct {
	Key  string
	Code string
}

// report alias -> table alias -> table
type tableResult map[string]map[string]*analysis.Table

func (r tableResult) has(key string) bool {
	return r[key] != nil
}

func (r tableResult) get(key, alias string) *analysis.Table {
	return r[key][alias]
}

func killKey(i int) string {
	return "k" + strconv.Itoa(i)
}

func chunks(n, size int) [][2]int {
	var out [][2]int
	for start := 0; start < n; start += size {
		out = append(out, [2]int{start, min(start+size, n)})
	}
	return out
}

// batchTables sends todo as few aliased documents. Any failed document fails
// the whole call.
func batchTables(ctx context.Context, q analysis.Querier, todo []tableQuery) (tableResult, error) {
	return queryTables(ctx, q, todo, maxBatch, false)
}

// settleTables sends one document per element. Failed elements are reported
// and left out of the result.
func settleTables(ctx context.Context, q analysis.Querier, todo []tableQuery) tableResult {
	r, _ := queryTables(ctx, q, todo, 1, true)
	return r
}

func queryTables(ctx context.Context, q analysis.Querier, todo []tableQuery, size int, settle bool) (tableResult, error) {
	var lock sync.Mutex
	result := make(tableResult, len(todo))

	var fns []func(ctx context.Context) error
	for _, c := range chunks(len(todo), size) {
		chunk := todo[c[0]:c[1]]
		fns = append(fns, func(ctx context.Context) error {
			var resp struct {
				ReportData map[string]map[string]*analysis.Table `json:"reportData"`
			}
			err := q.CallGraphQL(ctx, tmplReportTables, chunk, &resp)
			if err != nil {
				return err
			}

			lock.Lock()
			for k, v := range resp.ReportData {
				result[k] = v
			}
			lock.Unlock()
			return nil
		})
	}

	workers := batchWorkers
	if settle {
		workers = 4
	}
	for _, err := range parallel.Settle(ctx, workers, fns...) {
		if err == nil {
			continue
		}
		if !settle {
			return nil, err
		}
		share.Report(err)
	}

	return result, nil
}

func batchRankings(ctx context.Context, q analysis.Querier, todo []rankingsQuery) (map[string]*analysis.Rankings, error) {
	var lock sync.Mutex
	result := make(map[string]*analysis.Rankings, len(todo))

	var fns []func(ctx context.Context) error
	for _, c := range chunks(len(todo), maxBatch) {
		chunk := todo[c[0]:c[1]]
		fns = append(fns, func(ctx context.Context) error {
			var resp struct {
				ReportData map[string]*struct {
					Rankings *analysis.Rankings `json:"rankings"`
				} `json:"reportData"`
			}
			err := q.CallGraphQL(ctx, tmplReportRankings, chunk, &resp)
			if err != nil {
				return err
			}

			lock.Lock()
			for k, v := range resp.ReportData {
				if v != nil {
					result[k] = v.Rankings
				}
			}
			lock.Unlock()
			return nil
		})
	}

	for _, err := range parallel.Settle(ctx, batchWorkers, fns...) {
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

// batchStartTimes returns the start time of every report code.
func batchStartTimes(ctx context.Context, q analysis.Querier, codes []string) (map[string]int64, error) {
	todo := make([]startTimeQuery, len(codes))
	for i, code := range codes {
		todo[i] = startTimeQuery{Key: "r_" + strconv.Itoa(i), Code: code}
	}

	var resp struct {
		ReportData map[string]*struct {
			StartTime int64 `json:"startTime"`
		} `json:"reportData"`
	}
	err := q.CallGraphQL(ctx, tmplReportStartTimes, todo, &resp)
	if err != nil {
		return nil, err
	}

	result := make(map[string]int64, len(codes))
	for _, td := range todo {
		if r := resp.ReportData[td.Key]; r != nil {
			result[td.Code] = r.StartTime
		}
	}
	return result, nil
}
