package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// --- Response types (дублируются из api/dto.go, CLI не импортирует internal/api) ---

// WorkflowInfo — workflow-файл из API.
type WorkflowInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Filename string `json:"filename"`
}

// PathEntry — запись execution path.
type PathEntry struct {
	NodeID    string `json:"nodeId"`
	Type      string `json:"type"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

// EdgeTaken — пройденное ребро.
type EdgeTaken struct {
	EdgeID    string `json:"edgeId"`
	From      string `json:"from"`
	To        string `json:"to"`
	Condition string `json:"condition"`
	Iteration int    `json:"iteration"`
}

// SummaryResponse — summary выполнения run.
type SummaryResponse struct {
	RunID          string         `json:"runId"`
	WorkflowID     string         `json:"workflowId"`
	WorkflowName   string         `json:"workflowName"`
	Status         string         `json:"status"`
	DurationMs     int64          `json:"duration"`
	StartTime      string         `json:"startTime"`
	EndTime        string         `json:"endTime"`
	ExecutionPath  []PathEntry    `json:"executionPath"`
	EdgesTaken     []EdgeTaken    `json:"edgesTaken"`
	EdgeIterations map[string]int `json:"edgeIterations"`
	Outputs        map[string]any `json:"outputs"`
}

// QueuedRun — ответ на асинхронный запуск.
type QueuedRun struct {
	RunID    string `json:"runId"`
	Workflow string `json:"workflow"`
	Status   string `json:"status"`
}

// ToolInfo — зарегистрированный инструмент.
type ToolInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// --- Request types ---

// RunRequest — запуск workflow.
type RunRequest struct {
	InputData map[string]any `json:"inputData,omitempty"`
}

// --- API response wrappers ---

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type listResponse struct {
	Data  json.RawMessage `json:"data"`
	Total int             `json:"total"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// --- Client ---

// Client — HTTP-клиент для graphrun API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент для API.
//
// Таймаут больше обычного: синхронный запуск ждёт завершения workflow.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}
}

// --- Workflows ---

// ListWorkflows возвращает все workflow-файлы.
func (c *Client) ListWorkflows() ([]WorkflowInfo, error) {
	var workflows []WorkflowInfo
	err := c.list("/api/workflows", nil, &workflows)
	return workflows, err
}

// GetWorkflow возвращает документ workflow как есть.
func (c *Client) GetWorkflow(filename string) (json.RawMessage, error) {
	var doc json.RawMessage
	err := c.get("/api/workflows/"+url.PathEscape(filename), &doc)
	return doc, err
}

// GetChart возвращает Mermaid-диаграмму workflow.
func (c *Client) GetChart(filename string) (string, error) {
	var resp struct {
		Chart string `json:"chart"`
	}
	err := c.get("/api/chart/"+url.PathEscape(filename), &resp)
	return resp.Chart, err
}

// --- Runs ---

// RunWorkflow выполняет workflow синхронно.
func (c *Client) RunWorkflow(filename string, inputs map[string]any) (*SummaryResponse, error) {
	var summary SummaryResponse
	err := c.post("/api/run/"+url.PathEscape(filename), RunRequest{InputData: inputs}, &summary)
	return &summary, err
}

// EnqueueRun ставит run в очередь.
func (c *Client) EnqueueRun(filename string, inputs map[string]any) (*QueuedRun, error) {
	var run QueuedRun
	err := c.post("/api/run/"+url.PathEscape(filename)+"?async=true", RunRequest{InputData: inputs}, &run)
	return &run, err
}

// ListSummaries возвращает последние summaries.
func (c *Client) ListSummaries(workflowID string, limit int) ([]SummaryResponse, error) {
	params := url.Values{}
	if workflowID != "" {
		params.Set("workflow_id", workflowID)
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	var summaries []SummaryResponse
	err := c.list("/api/summaries", params, &summaries)
	return summaries, err
}

// --- Tools ---

// ListTools возвращает зарегистрированные инструменты.
func (c *Client) ListTools() ([]ToolInfo, error) {
	var tools []ToolInfo
	err := c.list("/api/tools", nil, &tools)
	return tools, err
}

// --- HTTP helpers ---

func (c *Client) get(path string, result any) error {
	return c.doData(http.MethodGet, path, nil, result)
}

func (c *Client) post(path string, body any, result any) error {
	return c.doData(http.MethodPost, path, body, result)
}

func (c *Client) list(path string, params url.Values, result any) error {
	if len(params) > 0 {
		path = path + "?" + params.Encode()
	}

	resp, err := c.do(http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var lr listResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return json.Unmarshal(lr.Data, result)
}

func (c *Client) doData(method, path string, body any, result any) error {
	resp, err := c.do(method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if result != nil {
		return json.Unmarshal(dr.Data, result)
	}
	return nil
}

func (c *Client) do(method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

func (c *Client) checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return fmt.Errorf("API error: HTTP %d", resp.StatusCode)
	}

	return fmt.Errorf("%s: %s", er.Error.Code, er.Error.Message)
}
