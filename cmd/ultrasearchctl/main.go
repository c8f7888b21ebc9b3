// Command ultrasearchctl is the debug CLI client (spec §6): it dials the
// running service's IPC transport and issues one search or status call,
// printing the result as a table or as JSON.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/joyshmitz/ultrasearch/internal/config"
	"github.com/joyshmitz/ultrasearch/internal/ipc"
)

const (
	exitOK        = 0
	exitTransport = 1
	exitUsage     = 2
)

func main() {
	var (
		socketPath string
		pipeName   string
		asJSON     bool
	)

	root := &cobra.Command{
		Use:           "ultrasearchctl",
		Short:         "Query a running ultrasearch service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&socketPath, "socket", "", "unix socket path (overrides the config default)")
	root.PersistentFlags().StringVar(&pipeName, "pipe", "", "named pipe path on Windows (overrides the config default)")
	root.PersistentFlags().BoolVar(&asJSON, "json", false, "print machine-readable JSON instead of a table")

	root.AddCommand(searchCmd(&socketPath, &pipeName, &asJSON), statusCmd(&socketPath, &pipeName, &asJSON))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps a returned error to spec §6's CLI exit codes: 1 for a
// transport failure (couldn't reach the service), 2 for bad arguments.
func exitCode(err error) int {
	if _, ok := err.(*usageError); ok {
		return exitUsage
	}
	return exitTransport
}

type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }

func dial(socketPath, pipeName string) (*ipc.Client, error) {
	cfg := config.Default().IPC
	if socketPath != "" {
		cfg.SocketPath = socketPath
	}
	if pipeName != "" {
		cfg.PipeName = pipeName
	}
	return ipc.Dial(cfg, cfg.DefaultTimeout)
}

func searchCmd(socketPath, pipeName *string, asJSON *bool) *cobra.Command {
	var (
		limit     uint32
		offset    uint32
		mode      string
		timeoutMS uint64
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Run a search against the running service",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return &usageError{"search requires exactly one query argument"}
			}
			modeVal, err := parseMode(mode)
			if err != nil {
				return &usageError{err.Error()}
			}

			client, err := dial(*socketPath, *pipeName)
			if err != nil {
				return fmt.Errorf("connecting to service: %w", err)
			}
			defer client.Close()

			req := ipc.SearchRequest{
				Query:  ipc.NewTerm(ipc.TermQuery{Value: args[0]}),
				Limit:  limit,
				Offset: offset,
				Mode:   modeVal,
			}
			if timeoutMS > 0 {
				req.HasTimeout = true
				req.TimeoutMS = timeoutMS
			}

			resp, err := client.Search(req)
			if err != nil {
				return fmt.Errorf("search request failed: %w", err)
			}
			printSearchResponse(resp, *asJSON)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.Uint32Var(&limit, "limit", 20, "maximum hits to return")
	flags.Uint32Var(&offset, "offset", 0, "hit offset for pagination")
	flags.StringVar(&mode, "mode", "auto", "search mode: auto|name|content|hybrid")
	flags.Uint64Var(&timeoutMS, "timeout-ms", 0, "search timeout in milliseconds (0 = service default)")
	return cmd
}

func statusCmd(socketPath, pipeName *string, asJSON *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the running service's status snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := dial(*socketPath, *pipeName)
			if err != nil {
				return fmt.Errorf("connecting to service: %w", err)
			}
			defer client.Close()

			resp, err := client.Status()
			if err != nil {
				return fmt.Errorf("status request failed: %w", err)
			}
			printStatusResponse(resp, *asJSON)
			return nil
		},
	}
}

func parseMode(s string) (ipc.Mode, error) {
	switch s {
	case "auto":
		return ipc.ModeAuto, nil
	case "name":
		return ipc.ModeNameOnly, nil
	case "content":
		return ipc.ModeContent, nil
	case "hybrid":
		return ipc.ModeHybrid, nil
	default:
		return 0, fmt.Errorf("unknown mode %q: want auto|name|content|hybrid", s)
	}
}

func printSearchResponse(resp ipc.SearchResponse, asJSON bool) {
	if asJSON {
		printJSON(resp)
		return
	}

	fmt.Printf("%d hits (total %d", len(resp.Hits), resp.Total)
	if resp.Truncated {
		fmt.Print(", truncated")
	}
	fmt.Printf(", took %dms)\n", resp.TookMS)

	if len(resp.Hits) == 0 {
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SCORE\tNAME\tPATH\tSIZE")
	for _, hit := range resp.Hits {
		fmt.Fprintf(w, "%.2f\t%s\t%s\t%d\n", hit.Score, hit.Name, hit.Path, hit.Size)
	}
	w.Flush()
}

func printStatusResponse(resp ipc.StatusResponse, asJSON bool) {
	if asJSON {
		printJSON(resp)
		return
	}

	fmt.Printf("scheduler: %s\n", resp.SchedulerState)
	if resp.HasLastIndexCommitTS {
		fmt.Printf("last index commit: %s\n", time.Unix(resp.LastIndexCommitTS, 0).Format(time.RFC3339))
	}
	if resp.HasMetrics {
		m := resp.Metrics
		if m.HasQueueDepth {
			fmt.Printf("queue depth: %d\n", m.QueueDepth)
		}
		if m.HasActiveWorkers {
			fmt.Printf("active workers: %d\n", m.ActiveWorkers)
		}
	}

	if len(resp.Volumes) == 0 {
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "VOLUME\tINDEXED\tPENDING\tLAST USN")
	for _, v := range resp.Volumes {
		lastUSN := "-"
		if v.HasLastUSN {
			lastUSN = fmt.Sprint(v.LastUSN)
		}
		fmt.Fprintf(w, "%d\t%d\t%d\t%s\n", v.Volume, v.IndexedFiles, v.PendingFiles, lastUSN)
	}
	w.Flush()
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}
