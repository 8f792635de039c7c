package cli

import (
	"github.com/spf13/cobra"
)

// NewWorkflowCmd создаёт группу команд для workflow-файлов на сервере.
func NewWorkflowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "workflow",
		Aliases: []string{"wf"},
		Short:   "Browse workflow files",
	}

	cmd.AddCommand(
		newWorkflowListCmd(clientFn, outputFn),
		newWorkflowShowCmd(clientFn, outputFn),
	)

	return cmd
}

func newWorkflowListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List workflow files",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			workflows, err := client.ListWorkflows()
			if err != nil {
				return err
			}

			headers := []string{"FILENAME", "ID", "NAME"}
			rows := make([][]string, len(workflows))
			for i, wf := range workflows {
				rows[i] = []string{wf.Filename, wf.ID, wf.Name}
			}

			out.Print(headers, rows, workflows)
			return nil
		},
	}
}

func newWorkflowShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show FILE",
		Short: "Print a workflow document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := clientFn().GetWorkflow(args[0])
			if err != nil {
				return err
			}

			outputFn().JSON(doc)
			return nil
		},
	}
}

// NewChartCmd создаёт команду вывода Mermaid-диаграммы.
func NewChartCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "chart FILE",
		Short: "Print the Mermaid flowchart of a workflow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			chart, err := clientFn().GetChart(args[0])
			if err != nil {
				return err
			}

			out := outputFn()
			if out.jsonMode {
				out.JSON(map[string]string{"chart": chart})
				return nil
			}
			out.Text(chart)
			return nil
		},
	}
}

// NewToolsCmd создаёт команду списка инструментов.
func NewToolsCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List registered tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			tools, err := clientFn().ListTools()
			if err != nil {
				return err
			}

			rows := make([][]string, len(tools))
			for i, t := range tools {
				rows[i] = []string{t.ID, t.Name}
			}

			outputFn().Print([]string{"ID", "NAME"}, rows, tools)
			return nil
		},
	}
}
