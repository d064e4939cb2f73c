package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"wow_check/analysis"
	"wow_check/analysis/oauth"
	"wow_check/cache"
	"wow_check/config"
	"wow_check/season"
	"wow_check/share"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// bump when a query template or the result layout changes
const cacheVersion = "2"

// report tables never change once a fight is uploaded
const reportTTL = 7 * 24 * time.Hour

var configPath string

var rootCmd = &cobra.Command{
	Use:   "wow_check",
	Short: "Warcraft Logs character checker",
	Long:  "Score a character's raid seasons from Warcraft Logs rankings and report tables.",

	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	defer share.FlushSentry()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file (default $WOWCHECK_CONFIG)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(lookupCmd)
	rootCmd.AddCommand(statusCmd)
}

type app struct {
	cfg     *config.Config
	preset  *season.Preset
	querier analysis.Querier

	reports *cache.Storage
	results *cache.Storage
}

func newApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if !cfg.HasCredentials() {
		return nil, errors.New("client_id and client_secret are required")
	}

	err = share.InitSentry(cfg.SentryDSN)
	if err != nil {
		return nil, err
	}
	err = share.InitHTTP(cfg.Proxy)
	if err != nil {
		return nil, err
	}

	p, err := season.Load(cfg.PresetFile)
	if err != nil {
		return nil, errors.Wrap(err, "preset")
	}

	reports, err := cache.NewStorage(filepath.Join(cfg.CacheDir, "report"), reportTTL, cacheVersion)
	if err != nil {
		return nil, err
	}
	results, err := cache.NewStorage(filepath.Join(cfg.CacheDir, "lookup"), cfg.CacheTTL, cacheVersion, cfg.PresetFile)
	if err != nil {
		return nil, err
	}

	auth := oauth.New(cfg.TokenURL, cfg.ClientID, cfg.ClientSecret)
	client := analysis.NewClient(cfg.APIEndpoint, auth)

	return &app{
		cfg:     cfg,
		preset:  p,
		querier: analysis.NewCaller(client, reports),
		reports: reports,
		results: results,
	}, nil
}

// requestFromArgs reads <name> <server> [region].
func requestFromArgs(args []string, zones []int) analysis.RequestData {
	req := analysis.RequestData{
		CharName:   args[0],
		CharServer: args[1],
		Zones:      zones,
	}
	if len(args) > 2 {
		req.CharRegion = args[2]
	}
	return req
}
