package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"

	"anonswap/pkg/activity"
	"anonswap/pkg/types"
)

// activityPrinter prints log entries it has not printed yet
type activityPrinter struct {
	log  *activity.Log
	seen int
}

// flush prints new entries and reports whether there were any
func (p *activityPrinter) flush() bool {
	// A cleared log starts over.
	if n := p.log.Len(); n < p.seen {
		p.seen = 0
	}

	entries := p.log.Since(p.seen)
	for _, e := range entries {
		printEntry(e)
	}
	p.seen += len(entries)
	return len(entries) > 0
}

func printEntry(e activity.Entry) {
	ts := color.HiBlackString(e.Timestamp.Format("15:04:05"))
	switch e.Level {
	case activity.LevelSuccess:
		fmt.Printf("  %s  %s %s\n", ts, color.GreenString("✓"), e.Message)
	case activity.LevelWarning:
		fmt.Printf("  %s  %s %s\n", ts, color.YellowString("!"), color.YellowString(e.Message))
	default:
		fmt.Printf("  %s  %s %s\n", ts, color.CyanString("›"), e.Message)
	}
}

func formatCountdown(d time.Duration) string {
	d = d.Round(time.Second)
	return fmt.Sprintf("%02d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}

func getColoredStatus(status string) string {
	status = strings.ToLower(status)
	label := strings.ToUpper(status)

	switch status {
	case types.StatusFinished, types.StatusSending:
		return color.GreenString(label)
	case types.StatusWaiting, types.StatusConfirming, types.StatusConfirmed, types.StatusExchanging:
		return color.YellowString(label)
	case types.StatusFailed, types.StatusRefunded, types.StatusExpired:
		return color.RedString(label)
	default:
		return label
	}
}

func banner(title string, width int) {
	fmt.Println("\n" + strings.Repeat("=", width))
	pad := (width - len(title)) / 2
	if pad < 0 {
		pad = 0
	}
	color.Green(strings.Repeat(" ", pad) + title)
	fmt.Println(strings.Repeat("=", width))
}

func rule(width int) {
	fmt.Println("\n" + strings.Repeat("=", width) + "\n")
}
