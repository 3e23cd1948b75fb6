// Command tv renders an event's lineup on a venue screen. It polls the
// lineup endpoint, keeps the last good state through outages, and shows
// connection health the way the room expects: a quiet banner on reconnect
// and an outage hint when the server has been gone a while.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"stagedoor/internal/display"
)

func main() {
	var (
		serverURL string
		eventID   int64
		dateKey   string
		interval  time.Duration
	)

	root := &cobra.Command{
		Use:   "tv",
		Short: "Show an event's live lineup on a venue screen",
		RunE: func(cmd *cobra.Command, args []string) error {
			if eventID <= 0 {
				return fmt.Errorf("--event is required")
			}
			return run(serverURL, eventID, dateKey, interval)
		},
	}

	root.Flags().StringVar(&serverURL, "server", "http://localhost:8080", "base URL of the stagedoor server")
	root.Flags().Int64Var(&eventID, "event", 0, "event ID to display")
	root.Flags().StringVar(&dateKey, "date", "", "occurrence date (YYYY-MM-DD, defaults to today)")
	root.Flags().DurationVar(&interval, "interval", 7*time.Second, "poll interval")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(serverURL string, eventID int64, dateKey string, interval time.Duration) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fetch := display.NewLineupFetcher(serverURL, eventID, dateKey)
	poller := display.NewPoller(fetch, display.Config{Interval: interval}, nil, func(u display.Update) {
		render(u)
	})

	poller.Start(ctx)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	poller.Stop()
	fmt.Println("\nscreen stopped")
	return nil
}

func render(u display.Update) {
	// Repaint from the top left so the screen updates in place.
	fmt.Print("\033[2J\033[H")

	renderStatus(u.Health)

	if u.Lineup == nil {
		fmt.Println("waiting for lineup...")
		return
	}
	lineup := u.Lineup

	fmt.Println(text.Bold.Sprintf("%s", lineup.EventName))
	fmt.Println(lineup.DateKey)
	if lineup.Cancelled {
		fmt.Println(text.FgRed.Sprint("TONIGHT IS CANCELLED"))
		return
	}
	fmt.Println()

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Time", "Performer", ""})
	for _, slot := range lineup.Slots {
		performer := slot.PerformerName
		if performer == "" {
			performer = "(open)"
		}
		marker := ""
		if slot.NowPlaying {
			marker = "NOW PLAYING"
		}
		t.AppendRow(table.Row{
			slot.SlotIndex + 1,
			fmt.Sprintf("+%dm", slot.OffsetMinutes),
			performer,
			marker,
		})
	}
	t.Render()
}

func renderStatus(h display.HealthState) {
	switch {
	case h.Status == display.StatusDisconnected && h.ExtendedOutage:
		fmt.Println(text.FgRed.Sprint("connection lost, retrying... (the server has been unreachable for a while)"))
	case h.Status == display.StatusDisconnected:
		fmt.Println(text.FgYellow.Sprint("connection lost, retrying..."))
	case h.ShowRestoredBanner:
		fmt.Println(text.FgGreen.Sprint("connection restored"))
	}
}
