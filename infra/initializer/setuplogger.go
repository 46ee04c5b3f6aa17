package initializer

import (
	"io"
	"log/slog"
	"os"

	"github.com/amirasaad/masroofy/pkg/config"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

// SetupLogger builds the charmbracelet logger and installs it as the slog default.
func SetupLogger(cfg *config.Log) *slog.Logger {
	return newLogger(os.Stdout, cfg)
}

func newLogger(w io.Writer, cfg *config.Log) *slog.Logger {
	if cfg == nil {
		cfg = &config.Log{Format: "text", TimeFormat: "2006-01-02 15:04:05", Prefix: "[masroofy]"}
	}
	styles := log.DefaultStyles()
	green := lipgloss.AdaptiveColor{Light: "#2E7D32", Dark: "#66BB6A"}
	amber := lipgloss.AdaptiveColor{Light: "#EF6C00", Dark: "#FFA726"}
	red := lipgloss.AdaptiveColor{Light: "#C62828", Dark: "#EF5350"}
	muted := lipgloss.AdaptiveColor{Light: "#5E35B1", Dark: "#9575CD"}

	levels := map[log.Level]struct {
		label string
		color lipgloss.AdaptiveColor
	}{
		log.ErrorLevel: {"ERR", red},
		log.WarnLevel:  {"WRN", amber},
		log.InfoLevel:  {"INF", green},
		log.DebugLevel: {"DBG", muted},
	}
	for level, s := range levels {
		styles.Levels[level] = lipgloss.NewStyle().
			SetString(s.label).
			Bold(true).
			Padding(0, 1).
			Foreground(s.color)
	}

	styles.Keys["error"] = lipgloss.NewStyle().Foreground(red)
	styles.Values["error"] = lipgloss.NewStyle().Bold(true)
	for _, key := range []string{"account_id", "actor_id", "transaction_id", "operation"} {
		styles.Keys[key] = lipgloss.NewStyle().Foreground(muted)
	}
	styles.Values["amount"] = lipgloss.NewStyle().Foreground(green).Bold(true)

	formatter := log.TextFormatter
	switch cfg.Format {
	case "json":
		formatter = log.JSONFormatter
	case "logfmt":
		formatter = log.LogfmtFormatter
	}

	logger := log.NewWithOptions(w, log.Options{
		ReportCaller:    true,
		ReportTimestamp: true,
		TimeFormat:      cfg.TimeFormat,
		Level:           log.Level(cfg.Level),
		Prefix:          cfg.Prefix,
		Formatter:       formatter,
	})
	logger.SetStyles(styles)

	slogger := slog.New(logger)
	slog.SetDefault(slogger)
	return slogger
}
