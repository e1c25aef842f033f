package datawhisper

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const customersResponse = `{"sql_query":"SELECT * FROM customers WHERE location ILIKE 'delhi';","results":[{"name":"Raj Sharma","customer_id":1,"location":"Delhi","gender":null}]}`

func TestRunAskPrintsSQLAndTable(t *testing.T) {
	var gotMethod, gotPath, gotAPIKey, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotAPIKey = r.Header.Get("X-API-Key")
		raw, _ := io.ReadAll(r.Body)
		gotBody = string(raw)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(customersResponse))
	}))
	defer srv.Close()

	var stdout, stderr bytes.Buffer
	code := Run(context.Background(), []string{
		"ask",
		"--api-url", srv.URL,
		"--api-key", "k1",
		"customers", "from", "Delhi",
	}, Options{Stdout: &stdout, Stderr: &stderr, Timeout: 2 * time.Second})
	if code != 0 {
		t.Fatalf("exit code = %d, stderr=%s", code, stderr.String())
	}
	if gotMethod != http.MethodPost || gotPath != "/query" {
		t.Fatalf("request = %s %s", gotMethod, gotPath)
	}
	if gotAPIKey != "k1" {
		t.Fatalf("api key = %q", gotAPIKey)
	}
	if gotBody != `{"query":"customers from Delhi"}` {
		t.Fatalf("body = %s", gotBody)
	}

	out := stdout.String()
	if !strings.HasPrefix(out, "Generated SQL Query:\nSELECT * FROM customers WHERE location ILIKE 'delhi';\n") {
		t.Fatalf("stdout = %s", out)
	}
	if !strings.Contains(out, "Query Results:") || !strings.Contains(out, "Raj Sharma") || !strings.Contains(out, "null") {
		t.Fatalf("stdout = %s", out)
	}
	// Column order follows the first result object, not alphabetical order.
	if strings.Index(out, "name") > strings.Index(out, "customer_id") {
		t.Fatalf("headers reordered: %s", out)
	}
}

func TestRunAskJSONFormat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(customersResponse))
	}))
	defer srv.Close()

	var stdout bytes.Buffer
	code := Run(context.Background(), []string{"--api-url", srv.URL, "--format", "json", "ask", "Delhi"}, Options{Stdout: &stdout})
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	var decoded struct {
		SQLQuery string           `json:"sql_query"`
		Results  []map[string]any `json:"results"`
	}
	if err := json.Unmarshal(stdout.Bytes(), &decoded); err != nil {
		t.Fatalf("stdout is not json: %v\n%s", err, stdout.String())
	}
	if decoded.SQLQuery == "" || len(decoded.Results) != 1 || decoded.Results[0]["name"] != "Raj Sharma" {
		t.Fatalf("decoded = %+v", decoded)
	}
}

func TestRunAskEmptyResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"sql_query":"SELECT * FROM customers WHERE 1=0;","results":[]}`))
	}))
	defer srv.Close()

	var stdout bytes.Buffer
	code := Run(context.Background(), []string{"--api-url", srv.URL, "nobody"}, Options{Stdout: &stdout})
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.Contains(stdout.String(), "No results found.") {
		t.Fatalf("stdout = %s", stdout.String())
	}
}

func TestRunAskReadsQuestionFromStdin(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		gotBody = string(raw)
		_, _ = w.Write([]byte(customersResponse))
	}))
	defer srv.Close()

	code := Run(context.Background(), []string{"--api-url", srv.URL}, Options{Stdin: strings.NewReader("who is raj\n")})
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if gotBody != `{"query":"who is raj"}` {
		t.Fatalf("body = %s", gotBody)
	}
}

func TestRunAskReportsServiceDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"Invalid API Key"}`))
	}))
	defer srv.Close()

	var stdout, stderr bytes.Buffer
	code := Run(context.Background(), []string{"--api-url", srv.URL, "ask", "everyone"}, Options{Stdout: &stdout, Stderr: &stderr})
	if code != 1 {
		t.Fatalf("exit code = %d", code)
	}
	if stderr.String() != "Error: Invalid API Key\n" {
		t.Fatalf("stderr = %q", stderr.String())
	}
	if stdout.Len() != 0 {
		t.Fatalf("stdout = %q", stdout.String())
	}
}

func TestRunAskTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	var stderr bytes.Buffer
	code := Run(context.Background(), []string{"--api-url", url, "ask", "everyone"}, Options{Stderr: &stderr})
	if code != 1 {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.HasPrefix(stderr.String(), "Error: ") {
		t.Fatalf("stderr = %q", stderr.String())
	}
}

func TestRunUsageErrors(t *testing.T) {
	tests := [][]string{
		{"--no-such-flag"},
		{"ask", "--format", "xml", "q"},
		{"ask"},
		{"--timeout", "-1s", "ask", "q"},
	}
	for _, args := range tests {
		var stderr bytes.Buffer
		code := Run(context.Background(), args, Options{Stderr: &stderr})
		if code != 2 {
			t.Fatalf("args %v exit code = %d stderr=%s", args, code, stderr.String())
		}
		if !strings.HasPrefix(stderr.String(), "Error: ") {
			t.Fatalf("args %v stderr = %q", args, stderr.String())
		}
	}
}
