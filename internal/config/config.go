// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/ColonelBlimp/whistlecode/internal/audio"
	"github.com/ColonelBlimp/whistlecode/internal/dsp"
	"github.com/ColonelBlimp/whistlecode/internal/tonal"
)

const (
	AppName       = "whistlecode"
	ConfigType    = "yaml"
	DefaultConfig = `# Whistle Signal Detector Configuration

# Audio device settings
device_index: -1        # -1 for default device
sample_rate: 44100      # Audio sample rate in Hz
channels: 1             # Number of channels (stereo is downmixed to mono)
buffer_size: 1024       # Audio buffer size (frames per device callback)

# Spectrum analysis
frame_size: 2048        # FFT frame size in samples
overlap_pct: 0          # Frame overlap percentage (0-99)
amplitude_scale: 32768  # Scale applied to normalized samples (int16 full scale)

# Tone detection
min_frequency: 550      # Peaks below this frequency (Hz) are ignored
max_frequency: 3000     # Upper end of the whistling range (Hz), for display
min_log10_magnitude: 4.5 # Peak must be at least 10^4.5 to count as a tone
exclusion_radius: 5     # Band (Hz) around the peak ignored for the noise floor
rank_offset: 5          # Noise floor reference: 0 = strongest bin outside the peak band
margin_db: 0.5          # Peak must exceed the reference by this many log10 units

# Sequence matching
window_size: 30         # Frames of history searched for a signal (2-200)
match_tolerance: 0.08   # Max note error in octaves (0.08 ~ one semitone)
overshoot_limit: 0.40   # Max overshoot past the next note in octaves

# Example recording
history_length: 30      # Frames per recorded example
store_path: ""          # Example database, empty for the config directory

# Reference signals, in scan priority order
signals:
  - id: 0
    frequencies: [1318.51, 987.77, 783.99, 1318.51]
  - id: 1
    frequencies: [698.46, 880.00, 1046.50, 1396.91, 1760.00, 1567.98, 1396.91, 1174.66, 987.77, 1046.50]
  - id: 2
    frequencies: [1318.51, 1174.66, 1046.50, 987.77, 987.77, 1046.50, 987.77, 783.99]

# Output
debug: false            # Enable debug output
`
)

// Settings holds all application configuration
type Settings struct {
	// Audio device settings
	DeviceIndex int     `mapstructure:"device_index"`
	SampleRate  float64 `mapstructure:"sample_rate"`
	Channels    int     `mapstructure:"channels"`
	BufferSize  int     `mapstructure:"buffer_size"`

	// Spectrum analysis
	FrameSize      int     `mapstructure:"frame_size"`
	OverlapPct     int     `mapstructure:"overlap_pct"`
	AmplitudeScale float64 `mapstructure:"amplitude_scale"`

	// Tone detection
	MinFrequency      float64 `mapstructure:"min_frequency"`
	MaxFrequency      float64 `mapstructure:"max_frequency"`
	MinLog10Magnitude float64 `mapstructure:"min_log10_magnitude"`
	ExclusionRadius   float64 `mapstructure:"exclusion_radius"`
	RankOffset        int     `mapstructure:"rank_offset"`
	MarginDB          float64 `mapstructure:"margin_db"`

	// Sequence matching
	WindowSize     int     `mapstructure:"window_size"`
	MatchTolerance float64 `mapstructure:"match_tolerance"`
	OvershootLimit float64 `mapstructure:"overshoot_limit"`

	// Example recording
	HistoryLength int    `mapstructure:"history_length"`
	StorePath     string `mapstructure:"store_path"`

	Signals []tonal.RawSignal `mapstructure:"signals"`

	// Output
	Debug bool `mapstructure:"debug"`
}

// Init initializes Viper with defaults and config file.
// Config file search order: current directory, then ~/.config/whistlecode/
func Init() error {
	// Set defaults
	viper.SetDefault("device_index", -1)
	viper.SetDefault("sample_rate", 44100)
	viper.SetDefault("channels", 1)
	viper.SetDefault("buffer_size", 1024)
	viper.SetDefault("frame_size", 2048)
	viper.SetDefault("overlap_pct", 0)
	viper.SetDefault("amplitude_scale", 32768)
	viper.SetDefault("min_frequency", 550)
	viper.SetDefault("max_frequency", 3000)
	viper.SetDefault("min_log10_magnitude", 4.5)
	viper.SetDefault("exclusion_radius", 5)
	viper.SetDefault("rank_offset", 5)
	viper.SetDefault("margin_db", 0.5)
	viper.SetDefault("window_size", 30)
	viper.SetDefault("match_tolerance", tonal.DefaultMatchTolerance)
	viper.SetDefault("overshoot_limit", tonal.DefaultOvershootLimit)
	viper.SetDefault("history_length", 30)
	viper.SetDefault("store_path", "")
	viper.SetDefault("signals", defaultSignals())
	viper.SetDefault("debug", false)

	// WHISTLECODE_WINDOW_SIZE etc. override the file
	viper.SetEnvPrefix(strings.ToUpper(AppName))
	viper.AutomaticEnv()

	// Support both config.yaml and .config.yaml
	viper.SetConfigType(ConfigType)

	// Priority order: current directory first, then XDG config
	viper.AddConfigPath(".")

	configDir := Dir()
	viper.AddConfigPath(configDir)

	// Try .config.yaml first (hidden file), then config.yaml
	viper.SetConfigName(".config")
	err := viper.ReadInConfig()
	if err != nil {
		viper.SetConfigName("config")
		err = viper.ReadInConfig()
	}

	// Read config file - if not found, create default in XDG config dir
	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("read config: %w", err)
		}
		if err = ensureConfigExists(configDir); err != nil {
			return err
		}
		if err = viper.ReadInConfig(); err != nil {
			return fmt.Errorf("read config: %w", err)
		}
	}

	return nil
}

// Dir returns the per-user config directory, ~/.config/whistlecode on Linux
func Dir() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(configDir, AppName)
}

func ensureConfigExists(configPath string) error {
	configFile := filepath.Join(configPath, "config.yaml")

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		if err = os.MkdirAll(configPath, 0755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
		if err = os.WriteFile(configFile, []byte(DefaultConfig), 0644); err != nil {
			return fmt.Errorf("write default config: %w", err)
		}
	}
	return nil
}

// defaultSignals renders the built-in catalog the way viper reads it from YAML
func defaultSignals() []map[string]any {
	raw := tonal.DefaultSignals()
	out := make([]map[string]any, len(raw))
	for i, s := range raw {
		out[i] = map[string]any{"id": s.ID, "frequencies": s.Frequencies}
	}
	return out
}

// Get returns the current settings
func Get() (*Settings, error) {
	var s Settings
	if err := viper.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &s, nil
}

// Validate checks that all settings are within acceptable ranges
func (s *Settings) Validate() error {
	var errs []error

	// Audio device settings
	if s.SampleRate < 8000 || s.SampleRate > 192000 {
		errs = append(errs, fmt.Errorf("sample_rate must be between 8000 and 192000 Hz, got %v", s.SampleRate))
	}
	if s.Channels < 1 || s.Channels > 2 {
		errs = append(errs, fmt.Errorf("channels must be 1 or 2, got %d", s.Channels))
	}
	if s.BufferSize < 64 || s.BufferSize > 8192 {
		errs = append(errs, fmt.Errorf("buffer_size must be between 64 and 8192, got %d", s.BufferSize))
	}

	// Spectrum analysis
	if s.FrameSize < 256 || s.FrameSize > 16384 {
		errs = append(errs, fmt.Errorf("frame_size must be between 256 and 16384, got %d", s.FrameSize))
	}
	// Power of 2 keeps go-dsp on its radix-2 path
	if s.FrameSize&(s.FrameSize-1) != 0 {
		errs = append(errs, fmt.Errorf("frame_size should be a power of 2, got %d", s.FrameSize))
	}
	if s.OverlapPct < 0 || s.OverlapPct > 99 {
		errs = append(errs, fmt.Errorf("overlap_pct must be between 0 and 99, got %d", s.OverlapPct))
	}
	if s.AmplitudeScale <= 0 {
		errs = append(errs, fmt.Errorf("amplitude_scale must be positive, got %v", s.AmplitudeScale))
	}

	// Tone detection
	if s.MinFrequency < 0 {
		errs = append(errs, fmt.Errorf("min_frequency must be non-negative, got %v", s.MinFrequency))
	}
	if s.MaxFrequency <= s.MinFrequency {
		errs = append(errs, fmt.Errorf("max_frequency (%v Hz) must be greater than min_frequency (%v Hz)", s.MaxFrequency, s.MinFrequency))
	}
	// Nyquist check: the whistling range must fit below half the sample rate
	if s.MaxFrequency >= s.SampleRate/2 {
		errs = append(errs, fmt.Errorf("max_frequency (%v Hz) must be less than Nyquist frequency (%v Hz)", s.MaxFrequency, s.SampleRate/2))
	}
	if s.ExclusionRadius < 0 {
		errs = append(errs, fmt.Errorf("exclusion_radius must be non-negative, got %v", s.ExclusionRadius))
	}
	if s.RankOffset < 0 || (s.FrameSize > 0 && s.RankOffset >= s.FrameSize/2) {
		errs = append(errs, fmt.Errorf("rank_offset must be between 0 and frame_size/2, got %d", s.RankOffset))
	}
	if s.MarginDB < 0 {
		errs = append(errs, fmt.Errorf("margin_db must be non-negative, got %v", s.MarginDB))
	}

	// Sequence matching
	if s.WindowSize < 2 || s.WindowSize > 200 {
		errs = append(errs, fmt.Errorf("window_size must be between 2 and 200, got %d", s.WindowSize))
	}
	if s.MatchTolerance <= 0 || s.MatchTolerance > 1 {
		errs = append(errs, fmt.Errorf("match_tolerance must be between 0 and 1 octave, got %v", s.MatchTolerance))
	}
	if s.OvershootLimit <= 0 || s.OvershootLimit > 2 {
		errs = append(errs, fmt.Errorf("overshoot_limit must be between 0 and 2 octaves, got %v", s.OvershootLimit))
	}

	// Example recording
	if s.HistoryLength < 2 || s.HistoryLength > 200 {
		errs = append(errs, fmt.Errorf("history_length must be between 2 and 200, got %d", s.HistoryLength))
	}

	if _, err := tonal.NewCatalog(s.Signals); err != nil {
		errs = append(errs, fmt.Errorf("signals: %w", err))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// AudioConfig returns the capture settings
func (s *Settings) AudioConfig() audio.Config {
	return audio.Config{
		DeviceIndex: s.DeviceIndex,
		SampleRate:  uint32(s.SampleRate),
		Channels:    uint32(s.Channels),
		BufferSize:  uint32(s.BufferSize),
	}
}

// AnalyzerConfig returns the spectrum analysis settings
func (s *Settings) AnalyzerConfig() dsp.AnalyzerConfig {
	return dsp.AnalyzerConfig{
		SampleRate:     s.SampleRate,
		FrameSize:      s.FrameSize,
		AmplitudeScale: s.AmplitudeScale,
	}
}

// ExtractorConfig returns the tone detection thresholds
func (s *Settings) ExtractorConfig() dsp.ExtractorConfig {
	return dsp.ExtractorConfig{
		MinFrequencyHz:    s.MinFrequency,
		MinLog10Magnitude: s.MinLog10Magnitude,
		ExclusionRadiusHz: s.ExclusionRadius,
		RankOffset:        s.RankOffset,
		MarginDB:          s.MarginDB,
	}
}

// Matcher returns a sequence matcher with the configured tolerances
func (s *Settings) Matcher(logger *slog.Logger) tonal.Matcher {
	return tonal.Matcher{
		Tolerance:      s.MatchTolerance,
		OvershootLimit: s.OvershootLimit,
		Logger:         logger,
	}
}

// Catalog builds the reference signal catalog
func (s *Settings) Catalog() (*tonal.Catalog, error) {
	return tonal.NewCatalog(s.Signals)
}

// ExampleStorePath returns store_path, or the default database in the config directory
func (s *Settings) ExampleStorePath() string {
	if s.StorePath != "" {
		return s.StorePath
	}
	return filepath.Join(Dir(), "examples.sqlite3")
}
