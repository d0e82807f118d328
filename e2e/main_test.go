package e2e

import (
	"bufio"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var (
	apiURL  string
	ctlPath string
)

// Seeded by mockapi on startup.
const (
	seedEmail    = "e2e@example.com"
	seedPassword = "e2epass123"
)

func TestMain(m *testing.M) {
	os.Exit(runTestMain(m))
}

func runTestMain(m *testing.M) int {
	// 1. Build the binaries
	// We assume the test is run from the e2e directory (via go test ./e2e/...)
	root := ".."
	if _, err := os.Stat("../cmd/expensectl"); os.IsNotExist(err) {
		if _, err := os.Stat("cmd/expensectl"); err == nil {
			root = "."
		} else {
			fmt.Println("Could not find cmd/expensectl to build")
			return 1
		}
	}

	binDir, err := os.MkdirTemp("", "expensectl-e2e")
	if err != nil {
		fmt.Printf("Failed to create build dir: %v\n", err)
		return 1
	}
	defer os.RemoveAll(binDir)

	ctlPath = filepath.Join(binDir, "expensectl")
	apiPath := filepath.Join(binDir, "mockapi")
	for out, pkg := range map[string]string{ctlPath: "./cmd/expensectl", apiPath: "./cmd/mockapi"} {
		cmd := exec.Command("go", "build", "-o", out, pkg)
		cmd.Dir = root
		if output, err := cmd.CombinedOutput(); err != nil {
			fmt.Printf("Failed to build %s: %v\n%s\n", pkg, err, output)
			return 1
		}
	}

	// 2. Start the mock API on a free port
	serverCmd := exec.Command(apiPath,
		"-addr", "127.0.0.1:0",
		"-user", "e2e",
		"-email", seedEmail,
		"-password", seedPassword,
		"-log-level", "warn",
	)
	serverCmd.Stderr = os.Stderr
	stdout, err := serverCmd.StdoutPipe()
	if err != nil {
		fmt.Printf("Failed to capture server output: %v\n", err)
		return 1
	}
	if err := serverCmd.Start(); err != nil {
		fmt.Printf("Failed to start server: %v\n", err)
		return 1
	}
	defer serverCmd.Process.Kill()

	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		if line := scanner.Text(); strings.HasPrefix(line, "listening on ") {
			apiURL = strings.TrimPrefix(line, "listening on ")
			break
		}
	}
	if apiURL == "" {
		fmt.Println("Server did not report its address")
		return 1
	}

	// Wait for server to be ready
	ready := false
	for range 50 {
		resp, err := http.Get(apiURL + "/health")
		if err == nil && resp.StatusCode == http.StatusOK {
			ready = true
			resp.Body.Close()
			break
		}
		time.Sleep(100 * time.Millisecond)
	}
	if !ready {
		fmt.Println("Server failed to start or is not reachable")
		return 1
	}

	// 3. Run tests
	return m.Run()
}
