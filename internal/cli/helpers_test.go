package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/valter-silva-au/story-digest/internal/core"
	"github.com/valter-silva-au/story-digest/internal/storage"
)

const dashboardTranscript = `Alice: We need a sales dashboard for the regional managers.
Bob: The dashboard should show a table of revenue per region.
Alice: Managers must be able to export the table to CSV.
Bob: The login page should support single sign-on with Google.
Alice: Users must reset their password by email.
`

// captureStdout runs fn and returns what it wrote to os.Stdout.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	origStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("creating pipe: %v", err)
	}
	os.Stdout = w

	done := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		done <- buf.String()
	}()

	defer func() {
		os.Stdout = origStdout
	}()
	fn()

	w.Close()
	return <-done
}

// setupDigest points the package services at a fresh orchestrator over a
// temporary directory and restores the originals when the test ends.
func setupDigest(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	origDigest, origReady, origConfig := Digest, ReadyQueue, Config
	origConfigMgr, origBase, origSession, origStdin := ConfigMgr, BasePath, sessionFlag, Stdin
	t.Cleanup(func() {
		Digest, ReadyQueue, Config = origDigest, origReady, origConfig
		ConfigMgr, BasePath, sessionFlag, Stdin = origConfigMgr, origBase, origSession, origStdin
	})

	cfg := core.DefaultConfig()
	backend := storage.NewFileBackend(dir)
	ready := storage.NewReadyQueueManager(backend)
	Digest = core.NewOrchestrator(core.OrchestratorDeps{
		Config:     cfg,
		Docs:       storage.NewDocumentStore(backend),
		Registry:   storage.NewSessionRegistry(backend),
		Ready:      ready,
		SessionIDs: core.NewSessionIDGenerator(dir),
		ReadyIDs:   core.NewIDGenerator(dir, ".ready_counter", cfg.ReadyPrefix, cfg.ReadyPadWidth),
	})
	ReadyQueue = ready
	Config = cfg
	ConfigMgr = core.NewConfigurationManager(dir)
	BasePath = dir
	sessionFlag = ""
	return dir
}

// writeTranscript writes content to a file under dir and returns its path.
func writeTranscript(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "meeting.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing transcript: %v", err)
	}
	return path
}

// runCmd runs a command's RunE and fails the test on error.
func runCmd(t *testing.T, run func() error) string {
	t.Helper()
	var err error
	out := captureStdout(t, func() { err = run() })
	if err != nil {
		t.Fatalf("unexpected error: %v\noutput:\n%s", err, out)
	}
	return out
}

// digestThroughPass4 creates a session from the dashboard transcript and
// runs passes 2 to 4.
func digestThroughPass4(t *testing.T, dir string) {
	t.Helper()
	path := writeTranscript(t, dir, dashboardTranscript)
	runCmd(t, func() error { return newCmd.RunE(newCmd, []string{path}) })
	runCmd(t, func() error { return pass2Cmd.RunE(pass2Cmd, nil) })
	runCmd(t, func() error { return pass3Cmd.RunE(pass3Cmd, nil) })
	runCmd(t, func() error { return pass4Cmd.RunE(pass4Cmd, nil) })
}

// answerAll keeps asking and answering until no question is pending.
func answerAll(t *testing.T) {
	t.Helper()
	for round := 0; round < 20; round++ {
		res, err := Digest.Questions(handle())
		if err != nil {
			t.Fatalf("questions: %v", err)
		}
		if len(res.Batch) == 0 {
			return
		}
		var reply strings.Builder
		for i := range res.Batch {
			fmt.Fprintf(&reply, "%d. Both are needed for launch ", i+1)
		}
		if _, err := Digest.Answer(handle(), reply.String(), false); err != nil {
			t.Fatalf("answer: %v", err)
		}
	}
	t.Fatal("questions still pending after 20 rounds")
}
