// Package testing holds helpers for tests that need a real browser.
package testing

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"testing"
	"time"
)

const (
	dockerImage = "chromedp/headless-shell:latest"
)

// chromeBinaries are probed on PATH in order
var chromeBinaries = []string{
	"headless-shell",
	"google-chrome",
	"google-chrome-stable",
	"chromium",
	"chromium-browser",
}

// GetFreePort asks the kernel for a free open port that is ready to use
func GetFreePort() (port int, err error) {
	var a *net.TCPAddr
	if a, err = net.ResolveTCPAddr("tcp", "localhost:0"); err == nil {
		var l *net.TCPListener
		if l, err = net.ListenTCP("tcp", a); err == nil {
			defer l.Close()
			return l.Addr().(*net.TCPAddr).Port, nil
		}
	}
	return
}

// ChromePath returns a local Chrome executable, honouring CHROME_PATH.
// It returns "" when none is installed.
func ChromePath() string {
	if p := os.Getenv("CHROME_PATH"); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, name := range chromeBinaries {
		if p, err := exec.LookPath(name); err == nil {
			return p
		}
	}
	return ""
}

// RequireChrome skips the test unless a local Chrome is available
func RequireChrome(t *testing.T) string {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	p := ChromePath()
	if p == "" {
		t.Skip("Chrome not available, skipping browser test")
	}
	return p
}

// StartDockerChrome starts the chromedp headless-shell container and returns
// the DevTools websocket URL of the browser. The container is stopped when
// the test finishes.
func StartDockerChrome(t *testing.T) string {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	if err := exec.Command("docker", "version").Run(); err != nil {
		t.Skip("Docker not available, skipping browser test")
	}

	if err := exec.Command("docker", "image", "inspect", dockerImage).Run(); err != nil {
		t.Log("Pulling chromedp/headless-shell Docker image...")
		pullCmd := exec.Command("docker", "pull", dockerImage)
		if err := pullCmd.Start(); err != nil {
			t.Fatalf("Failed to start docker pull: %v", err)
		}

		pullDone := make(chan error, 1)
		go func() {
			pullDone <- pullCmd.Wait()
		}()

		select {
		case err := <-pullDone:
			if err != nil {
				t.Skipf("Failed to pull Docker image: %v", err)
			}
		case <-time.After(60 * time.Second):
			pullCmd.Process.Kill()
			t.Skip("Docker pull timed out after 60 seconds")
		}
	}

	debugPort, err := GetFreePort()
	if err != nil {
		t.Fatalf("Failed to find free port: %v", err)
	}

	containerName := fmt.Sprintf("docpreview-chrome-%d", debugPort)
	cmd := exec.Command("docker", "run", "--rm",
		"-p", fmt.Sprintf("%d:9222", debugPort),
		"--name", containerName,
		dockerImage,
	)
	if err := cmd.Start(); err != nil {
		t.Fatalf("Failed to start Chrome Docker container: %v", err)
	}
	t.Cleanup(func() { stopDockerChrome(t, cmd, containerName) })

	versionURL := fmt.Sprintf("http://localhost:%d/json/version", debugPort)
	for i := 0; i < 60; i++ { // 60 iterations × 500ms = 30 seconds
		resp, err := http.Get(versionURL)
		if err == nil {
			resp.Body.Close()
			return fmt.Sprintf("ws://localhost:%d", debugPort)
		}
		time.Sleep(500 * time.Millisecond)
	}

	t.Fatal("Chrome failed to start within 30 seconds")
	return ""
}

func stopDockerChrome(t *testing.T, cmd *exec.Cmd, containerName string) {
	t.Helper()

	stopCmd := exec.Command("docker", "stop", "-t", "2", containerName)
	stopDone := make(chan error, 1)
	go func() {
		stopDone <- stopCmd.Run()
	}()

	select {
	case err := <-stopDone:
		if err != nil {
			t.Logf("Warning: Failed to stop Docker container: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Logf("Warning: docker stop timed out, forcing kill")
		exec.Command("docker", "kill", containerName).Run()
	}

	if cmd.Process != nil {
		cmd.Process.Kill()
	}
}
