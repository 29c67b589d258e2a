package blackbox

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

// findFreePort picks an available TCP port on localhost.
func findFreePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	addr := ln.Addr().String()
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	var port int
	fmt.Sscanf(portStr, "%d", &port)
	return port
}

func projectRootFromThisFile(t *testing.T) string {
	t.Helper()
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("runtime.Caller failed")
	}
	// this file: <root>/tests/blackbox/blackbox_test.go
	bbDir := filepath.Dir(thisFile)
	return filepath.Dir(filepath.Dir(bbDir))
}

func buildBinary(t *testing.T) string {
	t.Helper()
	root := projectRootFromThisFile(t)
	binPath := filepath.Join(t.TempDir(), "minerd")
	cmd := exec.Command("go", "build", "-o", binPath, "./cmd/minerd")
	cmd.Dir = root
	cmd.Env = append(os.Environ(), "CGO_ENABLED=0")
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("go build failed: %v\n%s", err, string(out))
	}
	return binPath
}

// fakeRuntime stands in for the model-runtime server.
func fakeRuntime(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/init", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]bool{"ready": true})
	})
	mux.HandleFunc("/generate", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Prompt string `json:"prompt"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		// Behave like a causal LM: echo the prompt, then continue.
		json.NewEncoder(w).Encode(map[string]string{"text": req.Prompt + "Austin."})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func startMiner(t *testing.T, bin string, runtimeURL string, port int) {
	t.Helper()
	cmd := exec.Command(bin, "prompt",
		"--addr", fmt.Sprintf(":%d", port),
		"--runtime-url", runtimeURL,
		"--log-level", "error",
	)
	if err := cmd.Start(); err != nil {
		t.Fatalf("start minerd: %v", err)
	}
	t.Cleanup(func() {
		cmd.Process.Kill()
		cmd.Wait()
	})
	// Poll readiness.
	base := fmt.Sprintf("http://127.0.0.1:%d", port)
	deadline := time.Now().Add(15 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(base + "/readyz")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatal("miner never became ready")
}

func TestPromptMinerEndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping blackbox test in -short mode")
	}
	bin := buildBinary(t)
	rt := fakeRuntime(t)
	port := findFreePort(t)
	startMiner(t, bin, rt.URL, port)
	base := fmt.Sprintf("http://127.0.0.1:%d", port)

	body := `{"messages":[{"role":"user","content":"What is the capital of Texas?"}]}`
	resp, err := http.Post(base+"/synapse/prompt", "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d", resp.StatusCode)
	}
	var pr struct {
		Completion string `json:"completion"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if pr.Completion != "Austin." {
		t.Fatalf("completion=%q", pr.Completion)
	}
	if strings.Contains(pr.Completion, "<human>:") {
		t.Fatalf("echoed transcript leaked: %q", pr.Completion)
	}

	// Status reflects the served request.
	sresp, err := http.Get(base + "/status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	defer sresp.Body.Close()
	var st struct {
		Miner       string `json:"miner"`
		ServedTotal uint64 `json:"served_total"`
	}
	if err := json.NewDecoder(sresp.Body).Decode(&st); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if st.Miner != "prompt" || st.ServedTotal != 1 {
		t.Fatalf("status=%+v", st)
	}

	// Metrics endpoint is live.
	mresp, err := http.Get(base + "/metrics")
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	mresp.Body.Close()
	if mresp.StatusCode != http.StatusOK {
		t.Fatalf("metrics status=%d", mresp.StatusCode)
	}
}

func TestUnknownModelFailsFast(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping blackbox test in -short mode")
	}
	bin := buildBinary(t)
	out, err := exec.Command(bin, "embed", "--model-name", "no-such-model").CombinedOutput()
	if err == nil {
		t.Fatalf("expected startup failure, got:\n%s", out)
	}
	if !strings.Contains(string(out), "choices") {
		t.Fatalf("expected choices in error output, got:\n%s", out)
	}
}
