package cmd

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Terminal colors. setColors(false) blanks them.
var (
	ColorReset  = "\033[0m"
	ColorBold   = "\033[1m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorBlue   = "\033[34m"
	ColorPurple = "\033[35m"
	ColorCyan   = "\033[36m"
	ColorWhite  = "\033[37m"
)

var titleCaser = cases.Title(language.English)

func setColors(enabled bool) {
	if enabled {
		return
	}
	for _, c := range []*string{
		&ColorReset, &ColorBold, &ColorRed, &ColorGreen, &ColorYellow,
		&ColorBlue, &ColorPurple, &ColorCyan, &ColorWhite,
	} {
		*c = ""
	}
}

func printHeader(title, subject string) {
	fmt.Printf("%s%s%s%s: %s%s%s\n", ColorBold, ColorBlue, title, ColorReset, ColorCyan, subject, ColorReset)
	fmt.Printf("%s%s%s\n\n", ColorBlue, strings.Repeat("═", 80), ColorReset)
}

func printStep(num int, title string) {
	fmt.Printf("%s%s%d%s %s%s%s\n", ColorBold, ColorPurple, num, ColorReset, ColorWhite, title, ColorReset)
}

func printSectionHeader(title string) {
	fmt.Printf("%s%s%s%s\n", ColorBold, ColorBlue, title, ColorReset)
}

func printSection(title string) {
	fmt.Printf("\n%s\n", title)
	fmt.Println(strings.Repeat("-", len(title)))
}

func printSubsection(title string) {
	fmt.Printf("\n  %s\n", title)
}

func printKeyValue(key, value string) {
	if value == "" {
		fmt.Printf("%-35s\n", key)
	} else {
		fmt.Printf("%-35s %s\n", key+":", value)
	}
}

func printSuccess(format string, args ...any) {
	fmt.Printf("   %s✓%s %s\n", ColorGreen, ColorReset, fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	fmt.Printf("   %s⚠%s %s\n", ColorYellow, ColorReset, fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	fmt.Printf("   %s✗%s %s\n", ColorRed, ColorReset, fmt.Sprintf(format, args...))
}

func printInfo(format string, args ...any) {
	fmt.Printf("   %s•%s %s\n", ColorCyan, ColorReset, fmt.Sprintf(format, args...))
}

func printResult(name string, success bool) {
	mark := ColorGreen + "✓" + ColorReset
	if !success {
		mark = ColorRed + "✗" + ColorReset
	}
	fmt.Printf("   %s %s\n", mark, name)
}

// PerformanceTimer records named wall-clock intervals for command output.
type PerformanceTimer struct {
	mu      sync.Mutex
	created time.Time
	starts  map[string]time.Time
	spans   map[string]time.Duration
}

// NewPerformanceTimer creates a timer whose total runs from now.
func NewPerformanceTimer() *PerformanceTimer {
	return &PerformanceTimer{
		created: time.Now(),
		starts:  make(map[string]time.Time),
		spans:   make(map[string]time.Duration),
	}
}

// StartEvent starts (or restarts) the named interval.
func (t *PerformanceTimer) StartEvent(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.starts[name] = time.Now()
}

// EndEvent stops the named interval. Unknown names are ignored.
func (t *PerformanceTimer) EndEvent(name string) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	start, ok := t.starts[name]
	if !ok {
		return 0
	}
	d := time.Since(start)
	t.spans[name] = d
	delete(t.starts, name)
	return d
}

// GetDuration returns a finished interval, or 0.
func (t *PerformanceTimer) GetDuration(name string) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.spans[name]
}

// GetTotalDuration returns the time since the timer was created.
func (t *PerformanceTimer) GetTotalDuration() time.Duration {
	return time.Since(t.created)
}

func displayPerformanceSummary(timer *PerformanceTimer) {
	printInfo("Performance Breakdown:")

	timer.mu.Lock()
	names := make([]string, 0, len(timer.spans))
	for name := range timer.spans {
		names = append(names, name)
	}
	timer.mu.Unlock()
	sort.Strings(names)

	for _, name := range names {
		fmt.Printf("      %s: %v\n", titleCaser.String(strings.ReplaceAll(name, "_", " ")), timer.GetDuration(name))
	}
}
