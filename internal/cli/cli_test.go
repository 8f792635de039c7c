package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

// --- Input Tests ---

func TestParseInputs(t *testing.T) {
	got, err := ParseInputs([]string{"name=Ada", "age=36", "tags=[1,2]", "empty=", "expr=a=b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := map[string]any{
		"name":  "Ada",
		"age":   36.0,
		"tags":  []any{1.0, 2.0},
		"empty": "",
		"expr":  "a=b",
	}
	for k, v := range want {
		gotJSON, _ := json.Marshal(got[k])
		wantJSON, _ := json.Marshal(v)
		if string(gotJSON) != string(wantJSON) {
			t.Errorf("%s = %s, want %s", k, gotJSON, wantJSON)
		}
	}
}

func TestParseInputs_Invalid(t *testing.T) {
	for _, in := range []string{"novalue", "=x"} {
		if _, err := ParseInputs([]string{in}); err == nil {
			t.Errorf("ParseInputs(%q) should fail", in)
		}
	}

	got, err := ParseInputs(nil)
	if err != nil || got != nil {
		t.Errorf("ParseInputs(nil) = %v, %v", got, err)
	}
}

// --- Output Tests ---

func TestOutput_Modes(t *testing.T) {
	var stdout, stderr bytes.Buffer
	out := NewOutputTo(false, &stdout, &stderr)
	out.Print([]string{"ID", "NAME"}, [][]string{{"a", "Alpha"}}, nil)
	out.Success("done")

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	if len(lines) != 3 || !strings.HasPrefix(lines[1], "--") || !strings.Contains(lines[2], "Alpha") {
		t.Errorf("unexpected table:\n%s", stdout.String())
	}
	if stderr.String() != "done\n" {
		t.Errorf("success message must go to stderr, got %q", stderr.String())
	}

	stdout.Reset()
	NewOutputTo(true, &stdout, &stderr).Print([]string{"ID"}, nil, map[string]string{"id": "a"})
	var decoded map[string]string
	if err := json.Unmarshal(stdout.Bytes(), &decoded); err != nil || decoded["id"] != "a" {
		t.Errorf("json mode must print data, got %q (%v)", stdout.String(), err)
	}
}

// --- Client Tests ---

func newTestAPI(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/workflows", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[{"id":"greet","name":"Greet","filename":"greet.json"}],"total":1}`))
	})
	mux.HandleFunc("GET /api/chart/{filename}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("filename") != "greet.json" {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":{"code":"NOT_FOUND","message":"workflow not found"}}`))
			return
		}
		w.Write([]byte(`{"data":{"chart":"flowchart TD"}}`))
	})
	mux.HandleFunc("POST /api/run/{filename}", func(w http.ResponseWriter, r *http.Request) {
		var req RunRequest
		json.NewDecoder(r.Body).Decode(&req)

		if r.URL.Query().Get("async") == "true" {
			w.WriteHeader(http.StatusAccepted)
			w.Write([]byte(`{"data":{"runId":"r-1","workflow":"greet.json","status":"QUEUED"}}`))
			return
		}

		name, _ := req.InputData["name"].(string)
		w.Write([]byte(`{"data":{"runId":"r-2","workflowId":"greet","status":"COMPLETED","duration":3,` +
			`"executionPath":[{"nodeId":"start","type":"manual-trigger","text":"Start"},{"nodeId":"fail","type":"http","text":"fail"}],` +
			`"outputs":{"start":{"name":"` + name + `"},"fail":{"error":"boom"}}}}`))
	})
	mux.HandleFunc("GET /api/summaries", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("workflow_id") != "greet" || r.URL.Query().Get("limit") != "2" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":{"code":"BAD_REQUEST","message":"unexpected query"}}`))
			return
		}
		w.Write([]byte(`{"data":[{"runId":"r-2","workflowId":"greet","status":"COMPLETED"}],"total":1}`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_ListWorkflows(t *testing.T) {
	c := NewClient(newTestAPI(t).URL)

	workflows, err := c.ListWorkflows()
	if err != nil {
		t.Fatal(err)
	}
	if len(workflows) != 1 || workflows[0].Filename != "greet.json" {
		t.Errorf("workflows = %+v", workflows)
	}
}

func TestClient_ErrorResponse(t *testing.T) {
	c := NewClient(newTestAPI(t).URL)

	_, err := c.GetChart("missing.json")
	if err == nil || !strings.Contains(err.Error(), "NOT_FOUND") {
		t.Errorf("err = %v, want NOT_FOUND", err)
	}
}

func TestClient_RunWorkflow(t *testing.T) {
	c := NewClient(newTestAPI(t).URL)

	summary, err := c.RunWorkflow("greet", map[string]any{"name": "Ada"})
	if err != nil {
		t.Fatal(err)
	}
	if summary.Status != "COMPLETED" || summary.Outputs["start"].(map[string]any)["name"] != "Ada" {
		t.Errorf("summary = %+v", summary)
	}

	queued, err := c.EnqueueRun("greet", nil)
	if err != nil {
		t.Fatal(err)
	}
	if queued.RunID != "r-1" || queued.Status != "QUEUED" {
		t.Errorf("queued = %+v", queued)
	}
}

func TestClient_ListSummaries(t *testing.T) {
	c := NewClient(newTestAPI(t).URL)

	summaries, err := c.ListSummaries("greet", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(summaries) != 1 || summaries[0].RunID != "r-2" {
		t.Errorf("summaries = %+v", summaries)
	}
}

// --- Command Tests ---

func execute(t *testing.T, cmd *cobra.Command, args ...string) error {
	t.Helper()
	cmd.SetArgs(args)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	return cmd.Execute()
}

func TestRunCmd_PrintsPath(t *testing.T) {
	srv := newTestAPI(t)
	var stdout, stderr bytes.Buffer

	cmd := NewRunCmd(
		func() *Client { return NewClient(srv.URL) },
		func() *Output { return NewOutputTo(false, &stdout, &stderr) },
	)
	if err := execute(t, cmd, "greet", "--input", "name=Ada"); err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(stderr.String(), "r-2 COMPLETED") {
		t.Errorf("stderr = %q", stderr.String())
	}
	out := stdout.String()
	for _, want := range []string{"start", "manual-trigger", "error: boom"} {
		if !strings.Contains(out, want) {
			t.Errorf("stdout %q does not contain %q", out, want)
		}
	}
}

func TestWorkflowListCmd_JSON(t *testing.T) {
	srv := newTestAPI(t)
	var stdout bytes.Buffer

	cmd := NewWorkflowCmd(
		func() *Client { return NewClient(srv.URL) },
		func() *Output { return NewOutputTo(true, &stdout, &bytes.Buffer{}) },
	)
	if err := execute(t, cmd, "list"); err != nil {
		t.Fatal(err)
	}

	var got []WorkflowInfo
	if err := json.Unmarshal(stdout.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if len(got) != 1 || got[0].ID != "greet" {
		t.Errorf("got %+v", got)
	}
}

const localWorkflow = `{
  "id": "local",
  "name": "Local",
  "nodes": [
    {"id": "start", "type": "manual-trigger", "category": "trigger", "parameters": {}},
    {"id": "say", "type": "transform", "category": "action",
     "parameters": {"mappings": {"greeting": "Hi {{start.name}}"}}}
  ],
  "edges": [{"id": "e1", "startNodeId": "start", "endNodeId": "say"}]
}`

func writeWorkflow(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestValidateCmd(t *testing.T) {
	path := writeWorkflow(t, "local.json", localWorkflow)
	var stdout, stderr bytes.Buffer

	cmd := NewValidateCmd(func() *Output { return NewOutputTo(false, &stdout, &stderr) })
	if err := execute(t, cmd, path); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stderr.String(), "is valid") || !strings.Contains(stdout.String(), "local") {
		t.Errorf("stdout %q, stderr %q", stdout.String(), stderr.String())
	}

	bad := writeWorkflow(t, "bad.json", `{"id": "bad", "nodes": [{"id": "a"}], "edges": []}`)
	cmd = NewValidateCmd(func() *Output { return NewOutputTo(false, &stdout, &stderr) })
	if err := execute(t, cmd, bad); err == nil {
		t.Error("invalid workflow should fail validation")
	}
}

func TestExecCmd(t *testing.T) {
	path := writeWorkflow(t, "local.json", localWorkflow)
	dir := t.TempDir()
	var stdout, stderr bytes.Buffer

	cmd := NewExecCmd(func() *Output { return NewOutputTo(true, &stdout, &stderr) })
	if err := execute(t, cmd, path, "--input", "name=Ada", "--summaries-dir", dir); err != nil {
		t.Fatal(err)
	}

	var summary SummaryResponse
	if err := json.Unmarshal(stdout.Bytes(), &summary); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, stdout.String())
	}
	if summary.Status != "COMPLETED" || len(summary.ExecutionPath) != 2 {
		t.Errorf("summary = %+v", summary)
	}
	say, _ := summary.Outputs["say"].(map[string]any)
	if say["greeting"] != "Hi Ada" {
		t.Errorf("say = %v", say)
	}

	files, _ := os.ReadDir(dir)
	if len(files) != 1 || !strings.HasPrefix(files[0].Name(), "local_") {
		t.Errorf("summary files = %v", files)
	}
}
