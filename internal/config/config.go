package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/vlist/internal/virtual"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const (
	appName         = "vlist"
	defaultLogLevel = "info"
	defaultPageSize = 200
	defaultTheme    = "monokai"
)

// EngineOptions tunes the virtualization engine. Zero values take the
// engine defaults.
type EngineOptions struct {
	Overscan            *int    `json:"overscan,omitempty" jsonschema:"description=Items rendered beyond each edge of the viewport,minimum=0,default=3"`
	EndReachedThreshold float64 `json:"end_reached_threshold,omitempty" jsonschema:"description=Fraction of the items the rendered range must reach before more are loaded,exclusiveMinimum=0,maximum=1,default=0.8"`
	SettleDelayMS       int     `json:"settle_delay_ms,omitempty" jsonschema:"description=Quiet period in milliseconds that ends a scroll burst,minimum=1,default=150"`
	EstimatedExtent     float64 `json:"estimated_extent,omitempty" jsonschema:"description=Rows assumed for an item before it is measured,exclusiveMinimum=0,default=1"`
	InitialCount        int     `json:"initial_count,omitempty" jsonschema:"description=Items rendered before the viewport size is known,minimum=0,default=10"`
	CorrectionTolerance float64 `json:"correction_tolerance,omitempty" jsonschema:"description=Largest scroll-to-index drift left uncorrected,minimum=0,default=1"`
}

type BrowseOptions struct {
	PageSize    int    `json:"page_size,omitempty" jsonschema:"description=Items loaded per page,minimum=1,default=200"`
	Highlight   bool   `json:"highlight,omitempty" jsonschema:"description=Syntax highlight file lines"`
	Theme       string `json:"theme,omitempty" jsonschema:"description=Chroma style used for highlighting,default=monokai"`
	Columns     int    `json:"columns,omitempty" jsonschema:"description=Grid columns for the catalog view (0 is a list),minimum=0"`
	Wrap        bool   `json:"wrap,omitempty" jsonschema:"description=Wrap navigation from the last item to the first"`
	EnableMouse *bool  `json:"enable_mouse,omitempty" jsonschema:"description=Scroll with the mouse wheel,default=true"`
}

type Options struct {
	Debug         bool   `json:"debug,omitempty" jsonschema:"description=Write debug logs"`
	DataDirectory string `json:"data_directory,omitempty" jsonschema:"description=Where the catalog database and logs are stored"`
	LogLevel      string `json:"log_level,omitempty" jsonschema:"description=Minimum log level,enum=debug,enum=info,enum=warn,enum=error,default=info"`
}

// Config holds the configuration for vlist.
type Config struct {
	Engine  *EngineOptions `json:"engine,omitempty"`
	Browse  *BrowseOptions `json:"browse,omitempty"`
	Options *Options       `json:"options,omitempty"`

	// Internal
	workingDir string   `json:"-"`
	paths      []string `json:"-"`
}

func (c *Config) WorkingDir() string {
	return c.workingDir
}

// Paths returns the config files that were merged, lowest priority first.
func (c *Config) Paths() []string {
	return c.paths
}

func (c *Config) setDefaults(workingDir string) {
	c.workingDir = workingDir
	if c.Engine == nil {
		c.Engine = &EngineOptions{}
	}
	if c.Engine.Overscan == nil {
		n := virtual.DefaultOverscan
		c.Engine.Overscan = &n
	}
	if c.Engine.EndReachedThreshold <= 0 || c.Engine.EndReachedThreshold > 1 {
		c.Engine.EndReachedThreshold = virtual.DefaultEndReachedThreshold
	}
	if c.Engine.SettleDelayMS <= 0 {
		c.Engine.SettleDelayMS = int(virtual.DefaultSettleDelay / time.Millisecond)
	}
	if c.Engine.EstimatedExtent <= 0 {
		c.Engine.EstimatedExtent = virtual.DefaultEstimatedExtent
	}
	if c.Engine.InitialCount <= 0 {
		c.Engine.InitialCount = virtual.DefaultInitialCount
	}
	if c.Engine.CorrectionTolerance <= 0 {
		c.Engine.CorrectionTolerance = virtual.DefaultCorrectionTolerance
	}

	if c.Browse == nil {
		c.Browse = &BrowseOptions{}
	}
	if c.Browse.PageSize <= 0 {
		c.Browse.PageSize = defaultPageSize
	}
	if c.Browse.Theme == "" {
		c.Browse.Theme = defaultTheme
	}
	if c.Browse.EnableMouse == nil {
		enabled := true
		c.Browse.EnableMouse = &enabled
	}

	if c.Options == nil {
		c.Options = &Options{}
	}
	if c.Options.DataDirectory == "" {
		c.Options.DataDirectory = filepath.Dir(GlobalConfigData())
	} else if !filepath.IsAbs(c.Options.DataDirectory) {
		c.Options.DataDirectory = filepath.Join(workingDir, c.Options.DataDirectory)
	}
	if c.Options.LogLevel == "" {
		c.Options.LogLevel = defaultLogLevel
	}
}

// VirtualOptions returns the engine options the config selects.
func (e *EngineOptions) VirtualOptions() []virtual.Option {
	if e == nil {
		return nil
	}
	var opts []virtual.Option
	if e.Overscan != nil {
		opts = append(opts, virtual.WithOverscan(*e.Overscan))
	}
	if e.EndReachedThreshold > 0 {
		opts = append(opts, virtual.WithEndReachedThreshold(e.EndReachedThreshold))
	}
	if e.SettleDelayMS > 0 {
		opts = append(opts, virtual.WithSettleDelay(e.SettleDelay()))
	}
	if e.EstimatedExtent > 0 {
		opts = append(opts, virtual.WithEstimatedExtent(e.EstimatedExtent))
	}
	if e.InitialCount > 0 {
		opts = append(opts, virtual.WithInitialCount(e.InitialCount))
	}
	if e.CorrectionTolerance > 0 {
		opts = append(opts, virtual.WithCorrectionTolerance(e.CorrectionTolerance))
	}
	return opts
}

func (e *EngineOptions) SettleDelay() time.Duration {
	return time.Duration(e.SettleDelayMS) * time.Millisecond
}

// Get returns the value at key, a gjson path such as engine.overscan, in
// the effective configuration.
func (c *Config) Get(key string) (string, bool) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", false
	}
	res := gjson.GetBytes(data, key)
	if !res.Exists() {
		return "", false
	}
	return res.String(), true
}

// SetConfigField writes key to the global data config file.
func (c *Config) SetConfigField(key string, value any) error {
	return SetField(GlobalConfigData(), key, value)
}

// SetField writes key, an sjson path, to the JSON file at path, creating
// the file when needed.
func SetField(path, key string, value any) error {
	// read the data
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			data = []byte("{}")
		} else {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	newValue, err := sjson.SetBytes(data, key, value)
	if err != nil {
		return fmt.Errorf("failed to set config field %s: %w", key, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, newValue, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ParseValue turns a command line value into a JSON value: numbers,
// booleans, null, objects and arrays are decoded, anything else is a string.
func ParseValue(raw string) any {
	if gjson.Valid(raw) {
		return gjson.Parse(raw).Value()
	}
	return raw
}
