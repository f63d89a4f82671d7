package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/99designs/keyring"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nhle/inbox-agent/internal/credential"
	"github.com/nhle/inbox-agent/internal/insight"
	"github.com/nhle/inbox-agent/internal/model"
	"github.com/nhle/inbox-agent/internal/store"
)

type replyInvoker string

func (r replyInvoker) Invoke(ctx context.Context, prompt string) (string, error) {
	return string(r), nil
}

// setupCmdTest points the commands at a temp database, an in-memory
// keyring and a model that always replies with reply.
func setupCmdTest(t *testing.T, reply string) (*credential.Store, func()) {
	t.Helper()
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	t.Setenv(credential.EnvVar(""), "")
	t.Setenv(credential.EnvVar("anthropic"), "")

	origCfg, origLogger := cfg, logger
	origSecrets, origConnector := openSecrets, connector

	var err error
	cfg, err = model.LoadConfig(filepath.Join(tmpDir, "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	cfg.Database = filepath.Join(tmpDir, "data", "inbox.db")
	logger = zap.NewNop()

	keys := credential.NewStore(keyring.NewArrayKeyring(nil))
	openSecrets = func() (*credential.Store, error) { return keys, nil }
	connector = func(provider, apiKey string) (insight.Invoker, error) {
		return replyInvoker(reply), nil
	}

	seedFile, processOnly, keyProvider, keyStdin = "", "", "", false
	listCategories, listSearch, listUnread, listLimit = nil, "", false, 0

	return keys, func() {
		cfg, logger = origCfg, origLogger
		openSecrets, connector = origSecrets, origConnector
	}
}

// testCmd creates a minimal *cobra.Command with a background context and
// captured output.
func testCmd() (*cobra.Command, *bytes.Buffer) {
	cmd := &cobra.Command{Use: "test"}
	cmd.SetContext(context.Background())
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	return cmd, out
}

func run(t *testing.T, c *cobra.Command, args ...string) string {
	t.Helper()
	cmd, out := testCmd()
	if err := c.RunE(cmd, args); err != nil {
		t.Fatalf("%s %v: %v", c.Name(), args, err)
	}
	return out.String()
}

func storeKey(t *testing.T, keys *credential.Store) {
	t.Helper()
	if err := keys.Set(credential.KeyName(cfg.AI.Provider), "test-key"); err != nil {
		t.Fatalf("storing key: %v", err)
	}
}

func allEmails(t *testing.T) []model.Email {
	t.Helper()
	st, err := store.NewSQLiteStore(cfg.Database)
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	defer st.Close()
	emails, err := st.GetEmails(context.Background(), store.EmailFilter{})
	if err != nil {
		t.Fatalf("GetEmails: %v", err)
	}
	return emails
}

func TestSeedAndList(t *testing.T) {
	_, cleanup := setupCmdTest(t, "")
	defer cleanup()

	out := run(t, seedCmd)
	if !strings.HasPrefix(out, "Loaded ") {
		t.Errorf("seed output = %q", out)
	}
	emails := allEmails(t)
	if len(emails) == 0 {
		t.Fatal("seed loaded no emails")
	}

	out = run(t, listCmd)
	if !strings.Contains(out, emails[0].Subject) || !strings.Contains(out, model.LabelNew) {
		t.Errorf("list output missing newest email:\n%s", out)
	}

	listSearch = "no-such-text-anywhere"
	if out := run(t, listCmd); !strings.Contains(out, "No emails.") {
		t.Errorf("filtered list = %q", out)
	}
}

func TestSeedFromFile(t *testing.T) {
	_, cleanup := setupCmdTest(t, "")
	defer cleanup()

	path := filepath.Join(t.TempDir(), "inbox.yaml")
	fixture := `emails:
  - sender: boss@startup.io
    subject: Quick Sync
    body: Can you stay late?
    received_at: "2025-11-24 08:00"
`
	if err := os.WriteFile(path, []byte(fixture), 0o600); err != nil {
		t.Fatal(err)
	}

	seedFile = path
	if out := run(t, seedCmd); !strings.HasPrefix(out, "Loaded 1 emails") {
		t.Errorf("seed output = %q", out)
	}
}

func TestTriage(t *testing.T) {
	keys, cleanup := setupCmdTest(t, "Work")
	defer cleanup()
	storeKey(t, keys)

	run(t, seedCmd)
	out := run(t, triageCmd)
	if !strings.Contains(out, "Tagged ") {
		t.Errorf("triage output = %q", out)
	}
	for _, e := range allEmails(t) {
		if e.Category != "Work" {
			t.Errorf("email %s category = %q, want Work", e.ID, e.Category)
		}
	}

	if out := run(t, triageCmd); !strings.Contains(out, "All emails are already tagged!") {
		t.Errorf("second triage output = %q", out)
	}
}

func TestTriage_NoKey(t *testing.T) {
	_, cleanup := setupCmdTest(t, "Work")
	defer cleanup()

	cmd, _ := testCmd()
	err := triageCmd.RunE(cmd, nil)
	if !errors.Is(err, credential.ErrNoAPIKey) {
		t.Errorf("err = %v, want ErrNoAPIKey", err)
	}
}

func TestTriage_KeyFromEnv(t *testing.T) {
	_, cleanup := setupCmdTest(t, "Work")
	defer cleanup()
	t.Setenv(credential.EnvVar(cfg.AI.Provider), "env-key")

	var gotKey string
	connector = func(provider, apiKey string) (insight.Invoker, error) {
		gotKey = apiKey
		return replyInvoker("Work"), nil
	}

	run(t, seedCmd)
	run(t, triageCmd)
	if gotKey != "env-key" {
		t.Errorf("api key = %q, want env-key", gotKey)
	}
}

func TestProcess(t *testing.T) {
	reply := "```json\n{\"category\": \"Urgent\", \"action_items\": \"* Stay late\", \"draft_reply\": \"Sure.\"}\n```"
	keys, cleanup := setupCmdTest(t, reply)
	defer cleanup()
	storeKey(t, keys)

	run(t, seedCmd)
	id := allEmails(t)[0].ID

	out := run(t, processCmd, id)
	for _, want := range []string{"Category:\nUrgent", "* Stay late", "Sure."} {
		if !strings.Contains(out, want) {
			t.Errorf("process output missing %q:\n%s", want, out)
		}
	}

	e := allEmails(t)[0]
	if e.Category != "Urgent" || e.DraftReply != "Sure." {
		t.Errorf("stored insights = %q / %q", e.Category, e.DraftReply)
	}
}

func TestProcess_ParseFailure(t *testing.T) {
	keys, cleanup := setupCmdTest(t, "not json")
	defer cleanup()
	storeKey(t, keys)

	run(t, seedCmd)
	id := allEmails(t)[0].ID

	cmd, _ := testCmd()
	err := processCmd.RunE(cmd, []string{id})
	if err == nil || !strings.Contains(err.Error(), insight.CategoryParseError) {
		t.Errorf("err = %v, want parsing error", err)
	}
	if e := allEmails(t)[0]; e.HasCategory() {
		t.Errorf("failed process stored category %q", e.Category)
	}
}

func TestProcess_InvalidOnly(t *testing.T) {
	keys, cleanup := setupCmdTest(t, "Work")
	defer cleanup()
	storeKey(t, keys)

	run(t, seedCmd)
	processOnly = "summary"
	cmd, _ := testCmd()
	if err := processCmd.RunE(cmd, []string{allEmails(t)[0].ID}); err == nil {
		t.Error("expected error for unknown --only value")
	}
}

func TestScheduleAndWeek(t *testing.T) {
	keys, cleanup := setupCmdTest(t, "* Submit the report by Friday")
	defer cleanup()
	storeKey(t, keys)

	if out := run(t, weekCmd); !strings.Contains(out, "No Pending Actions") {
		t.Errorf("empty week output = %q", out)
	}

	run(t, seedCmd)
	e := allEmails(t)[0]
	if out := run(t, scheduleCmd, e.ID); !strings.Contains(out, "Added to Calendar!") {
		t.Errorf("schedule output = %q", out)
	}

	out := run(t, weekCmd)
	if !strings.Contains(out, "Approaching Deadlines") || !strings.Contains(out, "1. "+e.Sender+": Submit the report by Friday") {
		t.Errorf("week output:\n%s", out)
	}
}

func TestAsk(t *testing.T) {
	keys, cleanup := setupCmdTest(t, "You have one urgent email.")
	defer cleanup()
	storeKey(t, keys)

	run(t, seedCmd)
	if out := run(t, askCmd, "anything", "urgent?"); out != "You have one urgent email.\n" {
		t.Errorf("ask output = %q", out)
	}
}

func TestImport(t *testing.T) {
	_, cleanup := setupCmdTest(t, "")
	defer cleanup()

	dir := t.TempDir()
	msg := "From: \"Sam Boss\" <boss@startup.io>\r\n" +
		"Subject: Quick Sync\r\n" +
		"Date: Mon, 24 Nov 2025 08:00:00 +0000\r\n" +
		"Message-Id: <sync-1@startup.io>\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" +
		"Can you stay 15 mins late today?\r\n"
	if err := os.WriteFile(filepath.Join(dir, "sync.eml"), []byte(msg), 0o600); err != nil {
		t.Fatal(err)
	}

	if out := run(t, importCmd, dir); !strings.Contains(out, "1 imported, 0 duplicate, 0 failed") {
		t.Errorf("import output = %q", out)
	}
	if out := run(t, importCmd, dir); !strings.Contains(out, "0 imported, 1 duplicate") {
		t.Errorf("re-import output = %q", out)
	}
}

func TestWatchOnce(t *testing.T) {
	_, cleanup := setupCmdTest(t, "")
	defer cleanup()
	cfg.Inbox.AutoTag = false

	watchDir, watchOnce = t.TempDir(), true
	defer func() { watchDir, watchOnce = "", false }()

	if out := run(t, watchCmd); !strings.Contains(out, "No new mail") {
		t.Errorf("watch output = %q", out)
	}
}

func TestWatch_NoDir(t *testing.T) {
	_, cleanup := setupCmdTest(t, "")
	defer cleanup()

	cmd, _ := testCmd()
	if err := watchCmd.RunE(cmd, nil); err == nil {
		t.Error("expected error without a folder")
	}
}

func TestPromptsExportImport(t *testing.T) {
	_, cleanup := setupCmdTest(t, "")
	defer cleanup()

	out := run(t, promptsExportCmd)
	if !strings.Contains(out, "[prompts]") {
		t.Fatalf("export output = %q", out)
	}

	path := filepath.Join(t.TempDir(), "prompts.toml")
	pack := `[prompts]
categorize = "Classify into one of these categories: [Work, Travel]."
`
	if err := os.WriteFile(path, []byte(pack), 0o600); err != nil {
		t.Fatal(err)
	}
	if out := run(t, promptsImportCmd, path); !strings.Contains(out, "[Work Travel]") {
		t.Errorf("import output = %q", out)
	}
	if out := run(t, promptsExportCmd); !strings.Contains(out, "Travel") {
		t.Errorf("exported prompts missing imported category:\n%s", out)
	}

	run(t, promptsRestoreCmd)
	if out := run(t, promptsExportCmd); strings.Contains(out, "Travel") {
		t.Error("restore kept imported prompt")
	}
}

func TestKeySetStdinAndDelete(t *testing.T) {
	keys, cleanup := setupCmdTest(t, "")
	defer cleanup()

	keyStdin = true
	cmd, out := testCmd()
	cmd.SetIn(strings.NewReader("  secret-key\n"))
	if err := keySetCmd.RunE(cmd, nil); err != nil {
		t.Fatalf("key set: %v", err)
	}
	if !strings.Contains(out.String(), "stored") {
		t.Errorf("key set output = %q", out.String())
	}

	got, err := credential.APIKey(cfg.AI.Provider, func(string) string { return "" }, keys)
	if err != nil || got != "secret-key" {
		t.Errorf("APIKey = %q, %v", got, err)
	}

	if out := run(t, keyStatusCmd); !strings.Contains(out, "from keyring") {
		t.Errorf("key status = %q", out)
	}

	run(t, keyDeleteCmd)
	if _, err := keys.Get(credential.KeyName(cfg.AI.Provider)); err == nil {
		t.Error("key still present after delete")
	}
	if out := run(t, keyStatusCmd); !strings.Contains(out, "not configured") {
		t.Errorf("key status after delete = %q", out)
	}
}

func TestKeySet_EmptyStdin(t *testing.T) {
	_, cleanup := setupCmdTest(t, "")
	defer cleanup()

	keyStdin = true
	cmd, _ := testCmd()
	cmd.SetIn(strings.NewReader("\n"))
	if err := keySetCmd.RunE(cmd, nil); err == nil {
		t.Error("expected error for empty key")
	}
}

func TestPing(t *testing.T) {
	keys, cleanup := setupCmdTest(t, " Pong \n")
	defer cleanup()
	storeKey(t, keys)

	if out := run(t, pingCmd); !strings.Contains(out, `replied "Pong"`) {
		t.Errorf("ping output = %q", out)
	}
}

func TestConfigInitAndProvider(t *testing.T) {
	_, cleanup := setupCmdTest(t, "")
	defer cleanup()

	origFile := cfgFile
	cfgFile = filepath.Join(t.TempDir(), "config.yaml")
	defer func() { cfgFile, configForce = origFile, false }()

	if out := run(t, configInitCmd); !strings.Contains(out, cfgFile) {
		t.Errorf("config init output = %q", out)
	}
	cmd, _ := testCmd()
	if err := configInitCmd.RunE(cmd, nil); err == nil {
		t.Error("expected error when the config file exists")
	}

	run(t, configProviderCmd, "Anthropic")
	got, err := model.LoadConfig(cfgFile)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if got.AI.Provider != "anthropic" || got.AI.Model != "" {
		t.Errorf("ai = %+v, want anthropic with default model", got.AI)
	}

	cmd, _ = testCmd()
	if err := configProviderCmd.RunE(cmd, []string{"openai"}); err == nil {
		t.Error("expected error for unknown provider")
	}
}
