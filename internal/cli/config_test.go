package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/valter-silva-au/story-digest/internal/core"
)

func TestConfigShowCmd(t *testing.T) {
	dir := setupDigest(t)
	cfg := "defaults:\n  locale: es\n  role: analyst\nclarify:\n  batch_size: 3\n"
	if err := os.WriteFile(filepath.Join(dir, core.ConfigFileName), []byte(cfg), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	out := runCmd(t, func() error { return configShowCmd.RunE(configShowCmd, nil) })
	for _, want := range []string{core.ConfigFileName, "locale: es", "default_role: analyst", "batch_size: 3", "max_words: 3000"} {
		if !strings.Contains(out, want) {
			t.Errorf("config output missing %q:\n%s", want, out)
		}
	}
}

func TestConfigValidateCmd(t *testing.T) {
	setupDigest(t)

	out := runCmd(t, func() error { return configValidateCmd.RunE(configValidateCmd, nil) })
	if !strings.Contains(out, "Configuration is valid.") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestConfigValidateCmd_Invalid(t *testing.T) {
	dir := setupDigest(t)
	cfg := "clarify:\n  batch_size: 0\nready_queue:\n  prefix: lower\n"
	if err := os.WriteFile(filepath.Join(dir, core.ConfigFileName), []byte(cfg), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	err := configValidateCmd.RunE(configValidateCmd, nil)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "clarify.batch_size") {
		t.Errorf("expected batch size in error: %v", err)
	}
}

func TestConfigCmds_NilManager(t *testing.T) {
	orig := ConfigMgr
	defer func() { ConfigMgr = orig }()
	ConfigMgr = nil

	for _, run := range []func() error{
		func() error { return configShowCmd.RunE(configShowCmd, nil) },
		func() error { return configValidateCmd.RunE(configValidateCmd, nil) },
	} {
		if err := run(); err == nil || !strings.Contains(err.Error(), "not initialized") {
			t.Errorf("expected not initialized error, got %v", err)
		}
	}
}

func TestReadyListCmd_FiltersAndEmpty(t *testing.T) {
	setupDigest(t)

	origJSON, origPri, origSess, origTags := readyListJSON, readyListPriority, readyListSession, readyListTags
	defer func() {
		readyListJSON, readyListPriority, readyListSession, readyListTags = origJSON, origPri, origSess, origTags
	}()
	readyListJSON, readyListPriority, readyListSession, readyListTags = false, nil, "", nil

	out := runCmd(t, func() error { return readyListCmd.RunE(readyListCmd, nil) })
	if !strings.Contains(out, "Ready queue is empty.") {
		t.Errorf("unexpected output:\n%s", out)
	}

	dir := BasePath
	digestThroughPass4(t, dir)
	answerAll(t)
	runCmd(t, func() error { return generateStoriesCmd.RunE(generateStoriesCmd, nil) })
	runCmd(t, func() error { return presentCmd.RunE(presentCmd, nil) })
	runCmd(t, func() error { return approveCmd.RunE(approveCmd, nil) })
	origForce := finalizeForce
	defer func() { finalizeForce = origForce }()
	finalizeForce = true
	runCmd(t, func() error { return finalizeCmd.RunE(finalizeCmd, nil) })

	readyListSession = "SESS-00099"
	out = runCmd(t, func() error { return readyListCmd.RunE(readyListCmd, nil) })
	if !strings.Contains(out, "Ready queue is empty.") {
		t.Errorf("expected no tasks for another session:\n%s", out)
	}

	readyListSession = "SESS-00001"
	readyListJSON = true
	out = runCmd(t, func() error { return readyListCmd.RunE(readyListCmd, nil) })
	if !strings.Contains(out, "TASK-00001") || !strings.Contains(out, "story-digest") {
		t.Errorf("expected the task as JSON:\n%s", out)
	}
}
