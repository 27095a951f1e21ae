package summarizer

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// MarkdownFormatter formats a Summary as a Markdown document.
type MarkdownFormatter struct {
	translate func(string) string
	version   string
}

// Option configures a MarkdownFormatter.
type Option func(*MarkdownFormatter)

// WithTranslator sets the function used to translate labels.
func WithTranslator(translate func(string) string) Option {
	return func(f *MarkdownFormatter) {
		f.translate = translate
	}
}

// WithVersion sets the version shown in the footer.
func WithVersion(version string) Option {
	return func(f *MarkdownFormatter) {
		f.version = version
	}
}

// NewMarkdownFormatter creates a new MarkdownFormatter.
func NewMarkdownFormatter(opts ...Option) *MarkdownFormatter {
	f := &MarkdownFormatter{
		translate: func(s string) string { return s },
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format implements the Formatter interface.
func (f *MarkdownFormatter) Format(s *Summary) string {
	t := f.translate
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", t("Decode Summary"))
	fmt.Fprintf(&b, "- **%s**: %s\n", t("Generated"), s.GeneratedAt.Format(time.RFC3339))
	if s.DurationMs > 0 {
		fmt.Fprintf(&b, "- **%s**: %s\n", t("Total Duration"), formatMs(s.DurationMs))
	}
	b.WriteString("\n")

	// Settings
	fmt.Fprintf(&b, "## %s\n\n", t("Settings"))
	fmt.Fprintf(&b, "| %s | %s |\n", t("Item"), t("Value"))
	b.WriteString("|---|---|\n")
	rows := [][2]string{
		{t("Backend"), orNone(t, s.Settings.Backend)},
		{t("Device"), orNone(t, s.Settings.Device)},
		{t("Driver"), orNone(t, s.Settings.Implementation)},
		{t("Missing Reference Policy"), orNone(t, s.Settings.Policy)},
		{t("Surface Pool"), poolName(t, s.Settings.StaticPool)},
		{t("Extra Surfaces"), fmt.Sprintf("%d", s.Settings.ExtraSurfaces)},
		{t("Workers"), workers(t, s.Settings.Workers)},
	}
	for _, row := range rows {
		fmt.Fprintf(&b, "| %s | %s |\n", row[0], row[1])
	}
	b.WriteString("\n")

	// Results
	fmt.Fprintf(&b, "## %s\n\n", t("Results"))
	if len(s.Files) == 0 {
		fmt.Fprintf(&b, "%s\n\n", t("No files decoded."))
	} else {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s | %s | %s | %s |\n",
			t("File"), t("Codec"), t("Size"), t("Decoder"),
			t("Decoded"), t("Dropped"), t("Duplicated"), t("Output"), t("Time"), t("Status"))
		b.WriteString("|---|---|---|---|---:|---:|---:|---:|---:|---|\n")
		for _, file := range s.Files {
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %d | %d | %d | %d | %s | %s |\n",
				filepath.Base(file.Path), orDash(file.Codec), size(file.Width, file.Height), orDash(file.Decoder),
				file.Stats.Decoded, file.Stats.Dropped, file.Stats.Duplicated, file.Stats.Output,
				formatMs(file.DurationMs), t(string(file.Status)))
		}
		fmt.Fprintf(&b, "| **%s** | | | | %d | %d | %d | %d | | |\n\n",
			t("Total"), s.Totals.Decoded, s.Totals.Dropped, s.Totals.Duplicated, s.Totals.Output)
	}

	// Errors
	var failed []FileInfo
	for _, file := range s.Files {
		if file.Error != "" {
			failed = append(failed, file)
		}
	}
	if len(failed) > 0 {
		fmt.Fprintf(&b, "## %s\n\n", t("Errors"))
		for _, file := range failed {
			fmt.Fprintf(&b, "- `%s`: %s\n", filepath.Base(file.Path), file.Error)
		}
		b.WriteString("\n")
	}

	b.WriteString("---\n\n")
	if f.version != "" {
		fmt.Fprintf(&b, "%s vadecode %s\n", t("Generated by"), f.version)
	} else {
		fmt.Fprintf(&b, "%s vadecode\n", t("Generated by"))
	}
	return b.String()
}

func formatMs(ms int64) string {
	if ms < 1000 {
		return fmt.Sprintf("%d ms", ms)
	}
	return fmt.Sprintf("%.2f s", float64(ms)/1000)
}

func size(w, h int) string {
	if w <= 0 || h <= 0 {
		return "-"
	}
	return fmt.Sprintf("%dx%d", w, h)
}

func poolName(t func(string) string, static bool) string {
	if static {
		return t("Static")
	}
	return t("Dynamic")
}

func workers(t func(string) string, n int) string {
	if n <= 0 {
		return t("CPU count")
	}
	return fmt.Sprintf("%d", n)
}

func orNone(t func(string) string, s string) string {
	if s == "" {
		return t("None")
	}
	return s
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
