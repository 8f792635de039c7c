package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaiso/graphrun/internal/domain"
	"github.com/shaiso/graphrun/internal/engine"
	"github.com/shaiso/graphrun/internal/orchestrator"
	"github.com/shaiso/graphrun/internal/telemetry"
)

// LoadWorkflowFile читает и валидирует локальный workflow-файл (.json, .yaml, .yml).
func LoadWorkflowFile(path string) (*domain.Workflow, error) {
	format, err := engine.FormatFromFilename(filepath.Base(path))
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read workflow: %w", err)
	}

	return engine.Parse(format, data)
}

// NewValidateCmd создаёт команду локальной проверки workflow-файла.
func NewValidateCmd(outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "validate PATH",
		Short: "Validate a local workflow file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			wf, err := LoadWorkflowFile(args[0])
			if err != nil {
				return err
			}
			graph, err := engine.BuildGraph(wf)
			if err != nil {
				return err
			}

			cycles := graph.UnboundedCycles()
			for _, c := range cycles {
				out.Error(fmt.Sprintf("warning: cycle without maxIterations: %s", strings.Join(c, " -> ")))
			}

			starts := make([]string, 0)
			for _, n := range graph.StartNodes() {
				starts = append(starts, n.ID)
			}

			report := map[string]any{
				"id":              wf.ID,
				"name":            wf.Name,
				"nodes":           len(wf.Nodes),
				"edges":           len(wf.Edges),
				"startNodes":      starts,
				"unboundedCycles": len(cycles),
			}

			out.Success(fmt.Sprintf("%s is valid", args[0]))
			out.Print(
				[]string{"ID", "NAME", "NODES", "EDGES", "START"},
				[][]string{{wf.ID, wf.Name, fmt.Sprint(len(wf.Nodes)), fmt.Sprint(len(wf.Edges)), strings.Join(starts, ",")}},
				report,
			)
			return nil
		},
	}
}

// NewExecCmd создаёт команду выполнения workflow-файла в процессе CLI.
func NewExecCmd(outputFn func() *Output) *cobra.Command {
	var inputs []string
	var summariesDir string
	var toolTimeout time.Duration
	var verbose bool

	cmd := &cobra.Command{
		Use:   "exec PATH",
		Short: "Execute a local workflow file without a server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			data, err := ParseInputs(inputs)
			if err != nil {
				return err
			}
			wf, err := LoadWorkflowFile(args[0])
			if err != nil {
				return err
			}

			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			logger := telemetry.SetupLoggerWith("text", level, out.errW)

			sinks := []orchestrator.SummarySink{}
			if summariesDir != "" {
				sinks = append(sinks, orchestrator.NewFileSink(summariesDir))
			}

			runner := orchestrator.NewRunner(orchestrator.RunnerConfig{
				Sinks:       sinks,
				ToolTimeout: toolTimeout,
				Logger:      logger,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			var input any
			if data != nil {
				input = data
			}
			summary, runErr := runner.RunWorkflow(ctx, wf, input)
			if summary == nil {
				return runErr
			}

			resp, err := toSummaryResponse(summary)
			if err != nil {
				return err
			}
			printSummary(out, resp)
			return runErr
		},
	}

	cmd.Flags().StringArrayVar(&inputs, "input", nil, "Trigger data as KEY=VALUE (repeatable, VALUE may be JSON)")
	cmd.Flags().StringVar(&summariesDir, "summaries-dir", "", "Write the execution summary to this directory")
	cmd.Flags().DurationVar(&toolTimeout, "tool-timeout", 0, "Per-node timeout (0 = none)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log node execution to stderr")

	return cmd
}

// toSummaryResponse приводит summary к виду ответа API (без ключей "context").
func toSummaryResponse(s *domain.ExecutionSummary) (*SummaryResponse, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode summary: %w", err)
	}

	var resp SummaryResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decode summary: %w", err)
	}
	for id, v := range resp.Outputs {
		resp.Outputs[id] = engine.StripContext(v)
	}
	return &resp, nil
}
