package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
)

// env is an isolated working area for one CLI test.
type env struct {
	dir        string
	configPath string
	storePath  string
	historyDir string
}

// newEnv creates an empty config file so the home directory config is never read.
func newEnv(t *testing.T) *env {
	t.Helper()

	dir := t.TempDir()
	e := &env{
		dir:        dir,
		configPath: filepath.Join(dir, "config.yaml"),
		storePath:  filepath.Join(dir, "phrases.json"),
		historyDir: filepath.Join(dir, "history"),
	}
	if err := os.WriteFile(e.configPath, []byte("{}\n"), 0600); err != nil {
		t.Fatal(err)
	}
	return e
}

// run executes the root command with the environment's global flags.
func (e *env) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	full := append([]string{}, args...)
	full = append(full,
		"--config", e.configPath,
		"--store", e.storePath,
		"--history-dir", e.historyDir,
	)

	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(full)

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// site is a fake phrase site: E1 has a working detail page, E2 fails.
type site struct {
	srv    *httptest.Server
	e1Hits atomic.Int32
	e2Hits atomic.Int32
}

func newSite(t *testing.T) *site {
	t.Helper()

	s := &site{}
	mux := http.NewServeMux()
	mux.HandleFunc("/list", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><body>
<div class="course-content-item"><div class="img"><a><img src="/img/e1.jpg"></a></div>
  <div class="text"><h2><a href="/phrase/ep-E1">First</a></h2></div></div>
<div class="course-content-item"><div class="img"><a><img src="/img/e2.jpg"></a></div>
  <div class="text"><h2><a href="/phrase/ep-E2">Second</a></h2></div></div>
</body></html>`))
	})
	mux.HandleFunc("/phrase/ep-E1", func(w http.ResponseWriter, _ *http.Request) {
		s.e1Hits.Add(1)
		_, _ = w.Write([]byte(`<div class="widget-richtext"><div class="text"><p>D1</p>
<h3>例句</h3><p>one<br>two</p></div></div>`))
	})
	mux.HandleFunc("/phrase/ep-E2", func(w http.ResponseWriter, _ *http.Request) {
		s.e2Hits.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	})

	s.srv = httptest.NewServer(mux)
	t.Cleanup(s.srv.Close)
	return s
}

func (s *site) listingURL() string {
	return s.srv.URL + "/list"
}
