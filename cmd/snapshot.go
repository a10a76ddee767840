package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/subcommands"
	tracker "github.com/rcamarinha/ai-investment-tracker"
)

// snapshotCmd is the top-level command for snapshot operations.
type snapshotCmd struct{}

func (*snapshotCmd) Name() string     { return "snapshot" }
func (*snapshotCmd) Synopsis() string { return "manage portfolio value snapshots" }
func (*snapshotCmd) Usage() string {
	return `ait snapshot <subcommand> <options>

Manage the history of portfolio value snapshots.
`
}
func (c *snapshotCmd) SetFlags(f *flag.FlagSet) {}

func (c *snapshotCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	commander := subcommands.NewCommander(f, "snapshot")
	commander.Register(&snapshotSaveCmd{}, "")
	commander.Register(&snapshotListCmd{}, "")
	commander.Register(&snapshotMergeCmd{}, "")
	commander.Register(&snapshotDeleteCmd{}, "")
	return commander.Execute(ctx, args...)
}

type snapshotSaveCmd struct{}

func (*snapshotSaveCmd) Name() string     { return "save" }
func (*snapshotSaveCmd) Synopsis() string { return "save a snapshot of the current portfolio value" }
func (*snapshotSaveCmd) Usage() string {
	return `ait snapshot save

  Values every position, active and closed, with the last recorded
  prices and appends one snapshot. Holdings without a recorded price
  are valued at their acquisition cost.
`
}
func (c *snapshotSaveCmd) SetFlags(f *flag.FlagSet) {}

func (c *snapshotSaveCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	store, err := OpenStore()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	ledger, err := DecodeLedger(store)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	prices, err := store.LoadLatestPrices()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	snap := tracker.BuildSnapshot(ledger.Positions(), prices, time.Now())
	if err := store.SaveSnapshot(snap); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Snapshot saved: %d positions, invested %s, market value %s\n",
		snap.PositionCount, snap.TotalInvested, snap.TotalMarketValue)
	return subcommands.ExitSuccess
}

type snapshotListCmd struct {
	tail int
}

func (*snapshotListCmd) Name() string     { return "list" }
func (*snapshotListCmd) Synopsis() string { return "list the saved snapshots" }
func (*snapshotListCmd) Usage() string {
	return `ait snapshot list [-tail <n>]

  Lists the saved snapshots in chronological order.
`
}

func (c *snapshotListCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.tail, "tail", 0, "Show only the last N snapshots.")
}

func (c *snapshotListCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	store, err := OpenStore()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	snapshots, err := store.LoadSnapshots()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if len(snapshots) == 0 {
		fmt.Println("No snapshot saved yet. Use 'ait refresh' or 'ait snapshot save'.")
		return subcommands.ExitSuccess
	}
	snapshots = tracker.MergeSnapshots(snapshots, nil)
	if c.tail > 0 && len(snapshots) > c.tail {
		snapshots = snapshots[len(snapshots)-c.tail:]
	}
	printMarkdown(snapshotsMarkdown(snapshots))
	return subcommands.ExitSuccess
}

func snapshotsMarkdown(snapshots []tracker.Snapshot) string {
	var sb strings.Builder
	sb.WriteString("# Snapshots\n\n")
	sb.WriteString("| When | Positions | Priced | Invested | Market Value | Unrealized |\n")
	sb.WriteString("|---|---:|---:|---:|---:|---:|\n")
	for _, s := range snapshots {
		fmt.Fprintf(&sb, "| %s | %d | %d | %s | %s | %s |\n",
			s.Timestamp.Format("2006-01-02 15:04"), s.PositionCount, s.PricesAvailable,
			s.TotalInvested, s.TotalMarketValue, s.TotalMarketValue.Sub(s.TotalInvested).SignedString())
	}
	return sb.String()
}

type snapshotMergeCmd struct{}

func (*snapshotMergeCmd) Name() string     { return "merge" }
func (*snapshotMergeCmd) Synopsis() string { return "merge snapshots from another file" }
func (*snapshotMergeCmd) Usage() string {
	return `ait snapshot merge <file>

  Merges the snapshots of another store file (JSONL) into this one.
  When both stores have a snapshot at the same instant, the local one
  wins. Merging the same file twice changes nothing.
`
}
func (c *snapshotMergeCmd) SetFlags(f *flag.FlagSet) {}

func (c *snapshotMergeCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: exactly one snapshot file is required.")
		return subcommands.ExitUsageError
	}
	file, err := os.Open(f.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	defer file.Close()
	incoming, err := tracker.DecodeSnapshots(file)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error reading snapshots:", err)
		return subcommands.ExitFailure
	}

	store, err := OpenStore()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	existing, err := store.LoadSnapshots()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	merged := tracker.MergeSnapshots(existing, incoming)

	// rewrite the snapshot file with the merged history
	if err := store.DeleteSnapshots(func(tracker.Snapshot) bool { return false }); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	for _, s := range merged {
		if err := store.SaveSnapshot(s); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
	}
	fmt.Printf("Merged %d snapshots into %d\n", len(incoming), len(merged))
	return subcommands.ExitSuccess
}

type snapshotDeleteCmd struct {
	before string
	all    bool
}

func (*snapshotDeleteCmd) Name() string     { return "delete" }
func (*snapshotDeleteCmd) Synopsis() string { return "delete saved snapshots" }
func (*snapshotDeleteCmd) Usage() string {
	return `ait snapshot delete (-before <date> | -all)

  Deletes snapshots older than a date, or the whole snapshot history.
`
}

func (c *snapshotDeleteCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.before, "before", "", "Delete snapshots taken before this date (YYYY-MM-DD).")
	f.BoolVar(&c.all, "all", false, "Delete every snapshot.")
}

func (c *snapshotDeleteCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.before == "" && !c.all {
		fmt.Fprintln(os.Stderr, "Error: one of -before or -all is required.")
		return subcommands.ExitUsageError
	}

	keep := func(tracker.Snapshot) bool { return false }
	if c.before != "" {
		day, err := tracker.ParseDate(c.before)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error parsing date:", err)
			return subcommands.ExitUsageError
		}
		cutoff := day.Time()
		keep = func(s tracker.Snapshot) bool { return !s.Timestamp.Before(cutoff) }
	}

	store, err := OpenStore()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if err := store.DeleteSnapshots(keep); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Println("Snapshots deleted.")
	return subcommands.ExitSuccess
}
