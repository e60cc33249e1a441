// Package config layers the dupehound.yaml file and DUPEHOUND_* environment
// variables under command-line flags, and sets up logging.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ivoronin/dupehound/internal/exclude"
	"github.com/ivoronin/dupehound/internal/types"
)

const (
	configBaseName   = "dupehound"
	configFileName   = configBaseName + ".yaml"
	configFolderPath = "."

	envPrefix = "DUPEHOUND"

	MinSizeKey         = "scan.min_size"
	TimeBudgetKey      = "scan.time_budget"
	ExcludesKey        = "scan.excludes"
	DefaultExcludesKey = "scan.default_excludes"
	IncludeCloudKey    = "scan.include_cloud"
	ModeKey            = "scan.mode"
	IgnoreExtKey       = "scan.ignore_ext"
	CacheFileKey       = "cache.file"

	LogFilenameKey   = "log.filename"
	LogLevelKey      = "log.level"
	LogMaxSizeKey    = "log.max_size"
	LogMaxBackupsKey = "log.max_backups"
	LogMaxAgeKey     = "log.max_age"
	LogCompressKey   = "log.compress"

	defaultMinSize    = "10MiB"
	defaultTimeBudget = 60 * time.Minute
	defaultMode       = string(types.ModeContent)

	defaultLogFilename   = ".dupehound.log"
	defaultLogLevel      = "info"
	defaultLogMaxSize    = 10
	defaultLogMaxBackups = 3
	defaultLogMaxAge     = 28
	defaultLogCompress   = true
)

// New returns a viper instance with defaults and environment binding.
func New() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	v.SetDefault(MinSizeKey, defaultMinSize)
	v.SetDefault(TimeBudgetKey, defaultTimeBudget)
	v.SetDefault(ExcludesKey, []string{})
	v.SetDefault(DefaultExcludesKey, true)
	v.SetDefault(IncludeCloudKey, false)
	v.SetDefault(ModeKey, defaultMode)
	v.SetDefault(IgnoreExtKey, true)
	v.SetDefault(CacheFileKey, "")

	v.SetDefault(LogFilenameKey, defaultLogFilename)
	v.SetDefault(LogLevelKey, defaultLogLevel)
	v.SetDefault(LogMaxSizeKey, defaultLogMaxSize)
	v.SetDefault(LogMaxBackupsKey, defaultLogMaxBackups)
	v.SetDefault(LogMaxAgeKey, defaultLogMaxAge)
	v.SetDefault(LogCompressKey, defaultLogCompress)
	return v
}

// Load reads file into v. An empty file means ./dupehound.yaml, which may be absent.
func Load(v *viper.Viper, file string) error {
	explicit := file != ""
	if !explicit {
		file = filepath.Join(configFolderPath, configFileName)
	}
	v.SetConfigFile(file)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !explicit && (errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)) {
			return nil
		}
		return fmt.Errorf("read config %s: %w", file, err)
	}
	return nil
}

// Scan holds resolved scan settings.
type Scan struct {
	MinSize      int64
	TimeBudget   time.Duration
	Excludes     []string // Defaults (if enabled) followed by configured entries
	IncludeCloud bool
	Mode         types.Mode
	IgnoreExt    bool
	CacheFile    string
}

// ScanSettings resolves and validates the scan settings in v.
func ScanSettings(v *viper.Viper) (Scan, error) {
	minSize, err := ParseSize(v.GetString(MinSizeKey))
	if err != nil {
		return Scan{}, fmt.Errorf("invalid %s: %w", MinSizeKey, err)
	}
	budget := v.GetDuration(TimeBudgetKey)
	if budget < 0 {
		return Scan{}, fmt.Errorf("invalid %s: negative duration", TimeBudgetKey)
	}
	mode, err := types.ParseMode(v.GetString(ModeKey))
	if err != nil {
		return Scan{}, fmt.Errorf("invalid %s: %w", ModeKey, err)
	}

	var excludes []string
	if v.GetBool(DefaultExcludesKey) {
		excludes = append(excludes, exclude.Defaults()...)
	}
	excludes = append(excludes, v.GetStringSlice(ExcludesKey)...)
	if err := exclude.Validate(excludes); err != nil {
		return Scan{}, fmt.Errorf("invalid %s: %w", ExcludesKey, err)
	}

	return Scan{
		MinSize:      minSize,
		TimeBudget:   budget,
		Excludes:     excludes,
		IncludeCloud: v.GetBool(IncludeCloudKey),
		Mode:         mode,
		IgnoreExt:    v.GetBool(IgnoreExtKey),
		CacheFile:    v.GetString(CacheFileKey),
	}, nil
}

// ParseSize parses human-readable byte sizes: "100", "1K", "10MiB", "1G".
func ParseSize(s string) (int64, error) {
	n, err := humanize.ParseBytes(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if n > 1<<62 {
		return 0, fmt.Errorf("size %q too large", s)
	}
	return int64(n), nil
}

// ParseLevel maps a level name or number to a slog.Level.
func ParseLevel(value string, defaultLevel slog.Level) slog.Level {
	level := strings.ToLower(strings.TrimSpace(value))
	switch level {
	case "":
		return defaultLevel
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	if n, err := strconv.Atoi(level); err == nil {
		return slog.Level(n)
	}
	return defaultLevel
}

// NewLogger builds a text logger writing to a rotating file.
// verbose forces debug level. The returned closer releases the file.
func NewLogger(v *viper.Viper, verbose bool) (*slog.Logger, io.Closer) {
	level := ParseLevel(v.GetString(LogLevelKey), slog.LevelInfo)
	if verbose {
		level = slog.LevelDebug
	}

	filename := strings.TrimSpace(v.GetString(LogFilenameKey))
	if filename == "" {
		filename = defaultLogFilename
	}
	w := &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    v.GetInt(LogMaxSizeKey),
		MaxBackups: v.GetInt(LogMaxBackupsKey),
		MaxAge:     v.GetInt(LogMaxAgeKey),
		Compress:   v.GetBool(LogCompressKey),
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(handler), w
}
