package cli

import (
	"context"
	"fmt"
	"io"
)

const usage = `usage:
  nutri serve
  nutri jobs trigger <closing:average_cost|monthly:stock_audit> [YYYY-MM]
  nutri jobs inspect
  nutri jobs scheduled
`

// RunJobs executes a "jobs" subcommand and returns the process exit code.
func RunJobs(ctx context.Context, redisAddr string, args []string, out io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(out, usage)
		return 2
	}
	switch args[0] {
	case "trigger":
		if len(args) < 2 || len(args) > 3 {
			fmt.Fprint(out, usage)
			return 2
		}
		month := ""
		if len(args) == 3 {
			month = args[2]
		}
		if _, err := BuildTask(args[1], month); err != nil {
			fmt.Fprintln(out, err)
			return 2
		}
	case "inspect", "scheduled":
	default:
		fmt.Fprint(out, usage)
		return 2
	}

	c, err := NewJobsCLI(redisAddr)
	if err != nil {
		fmt.Fprintln(out, err)
		return 1
	}
	defer c.Close()

	switch args[0] {
	case "trigger":
		month := ""
		if len(args) == 3 {
			month = args[2]
		}
		info, err := c.Trigger(ctx, args[1], month)
		if err != nil {
			fmt.Fprintln(out, err)
			return 1
		}
		fmt.Fprintf(out, "enqueued %s id=%s queue=%s\n", info.Type, info.ID, info.Queue)
	case "inspect":
		stats, err := c.InspectQueue(ctx)
		if err != nil {
			fmt.Fprintln(out, err)
			return 1
		}
		fmt.Fprintf(out, "queue=%s pending=%d active=%d scheduled=%d retry=%d\n",
			stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry)
	case "scheduled":
		tasks, err := c.ListScheduled(ctx, 20)
		if err != nil {
			fmt.Fprintln(out, err)
			return 1
		}
		for _, t := range tasks {
			fmt.Fprintf(out, "%s %s at %s\n", t.ID, t.Type, t.NextProcessAt.UTC().Format("2006-01-02T15:04:05Z"))
		}
	}
	return 0
}

// Usage prints the command summary.
func Usage(out io.Writer) {
	fmt.Fprint(out, usage)
}
