package config

import (
	"time"

	"racestats/internal/analysis"
	"racestats/internal/report"
	"racestats/internal/scraper"
	"racestats/internal/store"
	"racestats/internal/teams"
	"racestats/lib/configutil"
)

const DefaultFile = "racestats.json5"

type Site struct {
	BaseUrl           string  `json:"base_url"`
	ResultsPath       string  `json:"results_path"`
	CompetitionParam  string  `json:"competition_param"`
	RaceParam         string  `json:"race_param"`
	EventParam        string  `json:"event_param"`
	PageParam         string  `json:"page_param"`
	UserAgent         string  `json:"user_agent"`
	TimeoutSeconds    int     `json:"timeout_seconds"`
	RequestsPerSecond float64 `json:"requests_per_second"`
	Retries           int     `json:"retries"`
	CloudflareBypass  bool    `json:"cloudflare_bypass"`
}

type Teams struct {
	Aliases        map[string]string `json:"aliases"`
	MatchThreshold float64           `json:"match_threshold"`
	Unattached     string            `json:"unattached"`
}

type Analysis struct {
	ScorersPerTeam      int `json:"scorers_per_team"`
	HistogramBinSeconds int `json:"histogram_bin_seconds"`
}

type Report struct {
	Recipients []string `json:"recipients"`
}

type Config struct {
	Site     Site              `json:"site"`
	Store    store.Config      `json:"store"`
	Teams    Teams             `json:"teams"`
	Analysis Analysis          `json:"analysis"`
	Smtp     report.SmtpConfig `json:"smtp"`
	Report   Report            `json:"report"`
}

func Default() Config {
	return Config{
		Site: Site{
			ResultsPath:       "results.php",
			CompetitionParam:  "comp",
			RaceParam:         "race",
			EventParam:        "event",
			PageParam:         "page",
			TimeoutSeconds:    30,
			RequestsPerSecond: 2,
			Retries:           3,
		},
		Store: store.Config{
			File: "racestats.db",
		},
		Teams: Teams{
			MatchThreshold: teams.DefaultThreshold,
			Unattached:     teams.DefaultUnattached,
		},
		Analysis: Analysis{
			ScorersPerTeam:      3,
			HistogramBinSeconds: 60,
		},
		Smtp: report.SmtpConfig{
			Port: 587,
		},
	}
}

// Load reads the config at `path`, a missing file yields Default().
func Load(path string) (Config, error) {
	if path == "" {
		path = DefaultFile
	}
	return configutil.ReadWithDefaults(path, Default())
}

func (s Site) ClientOptions() scraper.ClientOptions {
	return scraper.ClientOptions{
		BaseUrl:           s.BaseUrl,
		ResultsPath:       s.ResultsPath,
		CompetitionParam:  s.CompetitionParam,
		RaceParam:         s.RaceParam,
		EventParam:        s.EventParam,
		PageParam:         s.PageParam,
		UserAgent:         s.UserAgent,
		Timeout:           time.Duration(s.TimeoutSeconds) * time.Second,
		RequestsPerSecond: s.RequestsPerSecond,
		Retries:           s.Retries,
		CloudflareBypass:  s.CloudflareBypass,
	}
}

func (t Teams) Canonicalizer() *teams.Canonicalizer {
	return teams.NewCanonicalizer(teams.Options{
		Aliases:    t.Aliases,
		Threshold:  t.MatchThreshold,
		Unattached: t.Unattached,
	})
}

func (a Analysis) Bin() time.Duration {
	if a.HistogramBinSeconds <= 0 {
		return analysis.DefaultBin
	}
	return time.Duration(a.HistogramBinSeconds) * time.Second
}
