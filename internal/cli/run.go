package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// NewRunCmd создаёт команду запуска workflow через API.
func NewRunCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var inputs []string
	var async bool

	cmd := &cobra.Command{
		Use:   "run FILE",
		Short: "Run a workflow file on the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			data, err := ParseInputs(inputs)
			if err != nil {
				return err
			}

			if async {
				run, err := client.EnqueueRun(args[0], data)
				if err != nil {
					return err
				}
				out.Success(fmt.Sprintf("Run queued: %s", run.RunID))
				out.Print(
					[]string{"RUN_ID", "WORKFLOW", "STATUS"},
					[][]string{{run.RunID, run.Workflow, run.Status}},
					run,
				)
				return nil
			}

			summary, err := client.RunWorkflow(args[0], data)
			if err != nil {
				return err
			}
			printSummary(out, summary)
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&inputs, "input", nil, "Trigger data as KEY=VALUE (repeatable, VALUE may be JSON)")
	cmd.Flags().BoolVar(&async, "async", false, "Queue the run instead of waiting for it")

	return cmd
}

// NewSummariesCmd создаёт команду просмотра истории runs.
func NewSummariesCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var workflowID string
	var limit int

	cmd := &cobra.Command{
		Use:   "summaries",
		Short: "List recent run summaries",
		RunE: func(cmd *cobra.Command, args []string) error {
			summaries, err := clientFn().ListSummaries(workflowID, limit)
			if err != nil {
				return err
			}

			headers := []string{"RUN_ID", "WORKFLOW", "STATUS", "NODES", "DURATION_MS", "END"}
			rows := make([][]string, len(summaries))
			for i, s := range summaries {
				rows[i] = []string{
					s.RunID, s.WorkflowID, s.Status,
					strconv.Itoa(len(s.ExecutionPath)),
					strconv.FormatInt(s.DurationMs, 10),
					s.EndTime,
				}
			}

			outputFn().Print(headers, rows, summaries)
			return nil
		},
	}

	cmd.Flags().StringVar(&workflowID, "workflow-id", "", "Filter by workflow ID")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results")

	return cmd
}

// ParseInputs разбирает пары KEY=VALUE.
// VALUE, который является валидным JSON, декодируется ("42", "true", "{...}"),
// иначе остаётся строкой.
func ParseInputs(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	inputs := make(map[string]any, len(pairs))
	for _, kv := range pairs {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid input format %q, expected KEY=VALUE", kv)
		}

		var decoded any
		if err := json.Unmarshal([]byte(value), &decoded); err == nil {
			inputs[key] = decoded
		} else {
			inputs[key] = value
		}
	}
	return inputs, nil
}

// printSummary выводит execution path run; в JSON режиме — summary целиком.
func printSummary(out *Output, s *SummaryResponse) {
	if out.jsonMode {
		out.JSON(s)
		return
	}

	out.Success(fmt.Sprintf("Run %s %s in %dms", s.RunID, s.Status, s.DurationMs))

	rows := make([][]string, len(s.ExecutionPath))
	for i, p := range s.ExecutionPath {
		status := "ok"
		if res, isMap := s.Outputs[p.NodeID].(map[string]any); isMap {
			if msg, failed := res["error"].(string); failed && len(res) == 1 {
				status = "error: " + msg
			}
		}
		rows[i] = []string{strconv.Itoa(i + 1), p.NodeID, p.Type, p.Text, status}
	}
	out.Table([]string{"#", "NODE", "TYPE", "TEXT", "RESULT"}, rows)
}
