package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/nodepnl/attrib"
	"github.com/rustyeddy/nodepnl/calendar"
	"github.com/rustyeddy/nodepnl/series"
)

const dateLayout = "2006-01-02"

// Config represents a complete attribution run
type Config struct {
	Schedule   ScheduleConfig   `json:"schedule" yaml:"schedule" koanf:"schedule"`
	Sampling   SamplingConfig   `json:"sampling" yaml:"sampling" koanf:"sampling"`
	Currency   CurrencyConfig   `json:"currency" yaml:"currency" koanf:"currency"`
	MarketData MarketDataConfig `json:"market_data" yaml:"market_data" koanf:"market_data"`
	Journal    JournalConfig    `json:"journal" yaml:"journal" koanf:"journal"`
	Engine     EngineConfig     `json:"engine" yaml:"engine" koanf:"engine"`
	Log        LogConfig        `json:"log" yaml:"log" koanf:"log"`
	Positions  []PositionConfig `json:"positions,omitempty" yaml:"positions,omitempty" koanf:"positions"`
}

// ScheduleConfig describes the business-day grid P&L is reported on
type ScheduleConfig struct {
	Start        string   `json:"start" yaml:"start" koanf:"start"` // YYYY-MM-DD
	End          string   `json:"end" yaml:"end" koanf:"end"`
	Holidays     []string `json:"holidays,omitempty" yaml:"holidays,omitempty" koanf:"holidays"`
	IncludeStart bool     `json:"include_start" yaml:"include_start" koanf:"include_start"`
	IncludeEnd   bool     `json:"include_end" yaml:"include_end" koanf:"include_end"`
	Frequency    string   `json:"frequency" yaml:"frequency" koanf:"frequency"` // daily, weekly, monthly
}

// SamplingConfig controls how raw histories become scheduled moves
type SamplingConfig struct {
	GapPolicy string `json:"gap_policy" yaml:"gap_policy" koanf:"gap_policy"` // strict or carry_forward
	Returns   string `json:"returns" yaml:"returns" koanf:"returns"`          // absolute or relative
}

// CurrencyConfig names the reporting currency. Empty keeps each position's own.
type CurrencyConfig struct {
	Target string `json:"target" yaml:"target" koanf:"target"`
}

type MarketDataConfig struct {
	DBPath string `json:"db_path" yaml:"db_path" koanf:"db_path"`
	Cache  bool   `json:"cache" yaml:"cache" koanf:"cache"`
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type          string `json:"type" yaml:"type" koanf:"type"` // "csv", "sqlite" or "none"
	RunsFile      string `json:"runs_file,omitempty" yaml:"runs_file,omitempty" koanf:"runs_file"`
	PositionsFile string `json:"positions_file,omitempty" yaml:"positions_file,omitempty" koanf:"positions_file"`
	PnLFile       string `json:"pnl_file,omitempty" yaml:"pnl_file,omitempty" koanf:"pnl_file"`
	DBPath        string `json:"db_path,omitempty" yaml:"db_path,omitempty" koanf:"db_path"`
}

type EngineConfig struct {
	Workers int `json:"workers" yaml:"workers" koanf:"workers"`
}

type LogConfig struct {
	Level string `json:"level" yaml:"level" koanf:"level"`
	Env   string `json:"env" yaml:"env" koanf:"env"`
}

// PositionConfig is one holding as written in a config file
type PositionConfig struct {
	ID              string           `json:"id" yaml:"id" koanf:"id"`
	Kind            string           `json:"kind" yaml:"kind" koanf:"kind"`
	Quantity        float64          `json:"quantity" yaml:"quantity" koanf:"quantity"`
	Currency        string           `json:"currency,omitempty" yaml:"currency,omitempty" koanf:"currency"`
	PayCurrency     string           `json:"pay_currency,omitempty" yaml:"pay_currency,omitempty" koanf:"pay_currency"`
	ReceiveCurrency string           `json:"receive_currency,omitempty" yaml:"receive_currency,omitempty" koanf:"receive_currency"`
	Exposures       []ExposureConfig `json:"exposures" yaml:"exposures" koanf:"exposures"`
}

type ExposureConfig struct {
	Curve         string              `json:"curve" yaml:"curve" koanf:"curve"`
	Factors       []string            `json:"factors,omitempty" yaml:"factors,omitempty" koanf:"factors"`
	Sensitivities []SensitivityConfig `json:"sensitivities" yaml:"sensitivities" koanf:"sensitivities"`
}

type SensitivityConfig struct {
	Factor string  `json:"factor" yaml:"factor" koanf:"factor"`
	Value  float64 `json:"value" yaml:"value" koanf:"value"`
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	start, err := time.Parse(dateLayout, c.Schedule.Start)
	if err != nil {
		return fmt.Errorf("schedule.start must be YYYY-MM-DD: %w", err)
	}
	end, err := time.Parse(dateLayout, c.Schedule.End)
	if err != nil {
		return fmt.Errorf("schedule.end must be YYYY-MM-DD: %w", err)
	}
	if end.Before(start) {
		return fmt.Errorf("schedule.end must not be before schedule.start")
	}
	if _, err := calendar.ParseHolidays(c.Schedule.Holidays); err != nil {
		return fmt.Errorf("schedule.holidays: %w", err)
	}
	if _, err := calendar.ParseFrequency(c.Schedule.Frequency); err != nil {
		return fmt.Errorf("schedule.frequency: %w", err)
	}
	if _, err := series.ParseGapPolicy(c.Sampling.GapPolicy); err != nil {
		return fmt.Errorf("sampling.gap_policy: %w", err)
	}
	if _, err := series.ParseReturnMode(c.Sampling.Returns); err != nil {
		return fmt.Errorf("sampling.returns: %w", err)
	}
	if t := c.Currency.Target; t != "" && len(t) != 3 {
		return fmt.Errorf("currency.target must be a three letter code")
	}
	if c.MarketData.DBPath == "" {
		return fmt.Errorf("market_data.db_path is required")
	}
	switch c.Journal.Type {
	case "none":
	case "csv":
		if c.Journal.RunsFile == "" || c.Journal.PositionsFile == "" || c.Journal.PnLFile == "" {
			return fmt.Errorf("journal runs_file, positions_file and pnl_file required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	default:
		return fmt.Errorf("journal.type must be 'csv', 'sqlite' or 'none'")
	}
	if c.Engine.Workers < 0 {
		return fmt.Errorf("engine.workers must not be negative")
	}

	seen := make(map[string]struct{}, len(c.Positions))
	for i, p := range c.Positions {
		if p.ID == "" {
			return fmt.Errorf("positions[%d].id is required", i)
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("duplicate position id %q", p.ID)
		}
		seen[p.ID] = struct{}{}
		if _, err := p.Position(); err != nil {
			return fmt.Errorf("positions[%d]: %w", i, err)
		}
	}
	return nil
}

// BuildSchedule generates the business-day schedule and thins it to the
// configured frequency.
func (c *Config) BuildSchedule() (calendar.Schedule, error) {
	start, err := time.Parse(dateLayout, c.Schedule.Start)
	if err != nil {
		return nil, fmt.Errorf("schedule.start: %w", err)
	}
	end, err := time.Parse(dateLayout, c.Schedule.End)
	if err != nil {
		return nil, fmt.Errorf("schedule.end: %w", err)
	}
	hol, err := calendar.ParseHolidays(c.Schedule.Holidays)
	if err != nil {
		return nil, err
	}
	freq, err := calendar.ParseFrequency(c.Schedule.Frequency)
	if err != nil {
		return nil, err
	}

	sched, err := calendar.Generate(start, end, hol, c.Schedule.IncludeStart, c.Schedule.IncludeEnd)
	if err != nil {
		return nil, err
	}
	return calendar.Thin(sched, freq), nil
}

// BuildPositions converts every configured position.
func (c *Config) BuildPositions() ([]attrib.Position, error) {
	out := make([]attrib.Position, 0, len(c.Positions))
	for _, p := range c.Positions {
		pos, err := p.Position()
		if err != nil {
			return nil, err
		}
		out = append(out, pos)
	}
	return out, nil
}

// Position converts the config form into the calculator's input.
func (p PositionConfig) Position() (attrib.Position, error) {
	kind, err := attrib.ParseKind(p.Kind)
	if err != nil {
		return attrib.Position{}, fmt.Errorf("position %s: %w", p.ID, err)
	}

	pos := attrib.Position{
		ID:              p.ID,
		Kind:            kind,
		Quantity:        p.Quantity,
		Currency:        strings.ToUpper(p.Currency),
		PayCurrency:     strings.ToUpper(p.PayCurrency),
		ReceiveCurrency: strings.ToUpper(p.ReceiveCurrency),
		Exposures:       make([]attrib.Exposure, 0, len(p.Exposures)),
	}
	for _, e := range p.Exposures {
		v := make(attrib.Vector, 0, len(e.Sensitivities))
		for _, s := range e.Sensitivities {
			v = append(v, attrib.Sensitivity{FactorID: s.Factor, Value: s.Value})
		}
		if err := v.Validate(); err != nil {
			return attrib.Position{}, fmt.Errorf("position %s curve %s: %w", p.ID, e.Curve, err)
		}
		pos.Exposures = append(pos.Exposures, attrib.Exposure{
			Curve:         attrib.Curve{Name: e.Curve, Factors: e.Factors},
			Sensitivities: v,
		})
	}
	return pos, nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Schedule: ScheduleConfig{
			Start:        "2024-01-01",
			End:          "2024-03-29",
			Holidays:     []string{"2024-01-01", "2024-01-15", "2024-02-19"},
			IncludeStart: true,
			IncludeEnd:   true,
			Frequency:    "daily",
		},
		Sampling: SamplingConfig{
			GapPolicy: "carry_forward",
			Returns:   "absolute",
		},
		Currency: CurrencyConfig{Target: "USD"},
		MarketData: MarketDataConfig{
			DBPath: "./marketdata.sqlite",
			Cache:  true,
		},
		Journal: JournalConfig{
			Type:   "sqlite",
			DBPath: "./nodepnl.sqlite",
		},
		Log: LogConfig{Level: "info", Env: "development"},
		Positions: []PositionConfig{
			{
				ID:       "swap-usd-5y",
				Kind:     "yield_curve",
				Quantity: 1,
				Currency: "USD",
				Exposures: []ExposureConfig{{
					Curve: "USD-SOFR",
					Sensitivities: []SensitivityConfig{
						{Factor: "USD-SOFR-2Y", Value: -1200},
						{Factor: "USD-SOFR-5Y", Value: 4500},
					},
				}},
			},
		},
	}
}
