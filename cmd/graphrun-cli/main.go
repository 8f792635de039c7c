// graphrun — инструмент командной строки для workflow-файлов.
//
// Использование:
//
//	graphrun [--api-url URL] [--json] <command> [flags]
//
// Команды:
//
//	workflow   Список и содержимое workflow-файлов на сервере
//	run        Запуск workflow через API
//	chart      Mermaid-диаграмма workflow
//	tools      Зарегистрированные инструменты
//	summaries  История runs
//	validate   Проверка локального файла
//	exec       Выполнение локального файла без сервера
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaiso/graphrun/internal/cli"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var apiURL string
	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "graphrun",
		Short:         "graphrun CLI — workflow graph runner",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	defaultURL := "http://localhost:8080"
	if v := os.Getenv("GRAPHRUN_API_URL"); v != "" {
		defaultURL = v
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", defaultURL, "API server URL")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	clientFn := func() *cli.Client { return cli.NewClient(apiURL) }
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	rootCmd.AddCommand(
		cli.NewWorkflowCmd(clientFn, outputFn),
		cli.NewRunCmd(clientFn, outputFn),
		cli.NewChartCmd(clientFn, outputFn),
		cli.NewToolsCmd(clientFn, outputFn),
		cli.NewSummariesCmd(clientFn, outputFn),
		cli.NewValidateCmd(outputFn),
		cli.NewExecCmd(outputFn),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
