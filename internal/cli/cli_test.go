package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"

	"github.com/autobrr/go-charcard/internal/charcard"
)

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	t.Setenv(ConfigEnv, "")
	var stdout, stderr bytes.Buffer
	code := Run(append([]string{"charcard"}, args...), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func writeTemp(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestEmbedThenExtract(t *testing.T) {
	dir := t.TempDir()
	cardPath := writeTemp(t, dir, "aria.json", `{
  // v3 card
  "spec": "chara_card_v3",
  "spec_version": "3.0",
  "data": {"name": "Aria", "description": "test", "tags": ["bard"]},
}`)
	outPath := filepath.Join(dir, "aria.png")

	code, _, stderr := runCLI(t, "embed", "--card", cardPath, "-o", outPath)
	if code != exitOK {
		t.Fatalf("embed exit=%d stderr=%s", code, stderr)
	}

	img, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	chunks, err := charcard.ReadChunks(img)
	if err != nil {
		t.Fatalf("ReadChunks: %v", err)
	}
	var keywords []string
	for _, c := range chunks {
		if c.Type == "tEXt" {
			k, _, _ := c.TextKeyword()
			keywords = append(keywords, k)
		}
	}
	if diff := cmp.Diff([]string{"chara", "ccv3"}, keywords); diff != "" {
		t.Fatalf("keywords (-want +got):\n%s", diff)
	}

	code, stdout, stderr := runCLI(t, "extract", "--compact", outPath)
	if code != exitOK {
		t.Fatalf("extract exit=%d stderr=%s", code, stderr)
	}
	var got map[string]any
	if err := json.Unmarshal([]byte(stdout), &got); err != nil {
		t.Fatalf("extract output not json: %v\n%s", err, stdout)
	}
	want := map[string]any{
		"spec":         "chara_card_v3",
		"spec_version": "3.0",
		"data":         map[string]any{"name": "Aria", "description": "test", "tags": []any{"bard"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("payload (-want +got):\n%s", diff)
	}
	if strings.Count(strings.TrimSpace(stdout), "\n") != 0 {
		t.Fatalf("compact output spans lines:\n%s", stdout)
	}
}

func TestExtractFormats(t *testing.T) {
	dir := t.TempDir()
	cardPath := writeTemp(t, dir, "bob.json", `{"name": "Bob", "first_mes": "Hi"}`)

	code, stdout, stderr := runCLI(t, "extract", "--format", "yaml", cardPath)
	if code != exitOK {
		t.Fatalf("exit=%d stderr=%s", code, stderr)
	}
	var got map[string]any
	if err := yaml.Unmarshal([]byte(stdout), &got); err != nil {
		t.Fatalf("yaml output: %v", err)
	}
	if got["name"] != "Bob" {
		t.Fatalf("yaml name=%v", got["name"])
	}

	code, stdout, stderr = runCLI(t, "extract", "-f", "text", cardPath)
	if code != exitOK {
		t.Fatalf("exit=%d stderr=%s", code, stderr)
	}
	for _, line := range []string{"Version", "V1", "Name", "Bob", "First message"} {
		if !strings.Contains(stdout, line) {
			t.Fatalf("text output missing %q:\n%s", line, stdout)
		}
	}
}

func TestExtractNotFound(t *testing.T) {
	dir := t.TempDir()
	img, err := charcard.BlankPNG(1, 1)
	if err != nil {
		t.Fatalf("BlankPNG: %v", err)
	}
	path := writeTemp(t, dir, "plain.png", string(img))
	good := writeTemp(t, dir, "good.json", `{"name":"Ok"}`)

	code, stdout, stderr := runCLI(t, "extract", path, good)
	if code != exitError {
		t.Fatalf("exit=%d want %d", code, exitError)
	}
	if !strings.Contains(stderr, "plain.png: no character data found") {
		t.Fatalf("stderr=%s", stderr)
	}
	if !strings.Contains(stdout, `"Ok"`) {
		t.Fatalf("readable file not printed: %s", stdout)
	}
}

func TestInspectCommand(t *testing.T) {
	dir := t.TempDir()
	blank, err := charcard.BlankPNG(3, 2)
	if err != nil {
		t.Fatalf("BlankPNG: %v", err)
	}
	img, err := charcard.Embed(blank, charcard.Payload{"name": "Inspect"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	path := writeTemp(t, dir, "card.png", string(img))

	code, stdout, stderr := runCLI(t, "inspect", path)
	if code != exitOK {
		t.Fatalf("exit=%d stderr=%s", code, stderr)
	}
	for _, want := range []string{"3 pixels", "tEXt", "chara", "Found (tEXt chunk)"} {
		if !strings.Contains(stdout, want) {
			t.Fatalf("inspect output missing %q:\n%s", want, stdout)
		}
	}

	code, stdout, _ = runCLI(t, "inspect", "--format", "json", path)
	if code != exitOK {
		t.Fatalf("json exit=%d", code)
	}
	var parsed map[string]any
	if err := json.Unmarshal([]byte(stdout), &parsed); err != nil {
		t.Fatalf("inspect json invalid: %v\n%s", err, stdout)
	}
	if parsed["strategy"] != "tEXt chunk" {
		t.Fatalf("strategy=%v", parsed["strategy"])
	}
}

func TestUsageErrors(t *testing.T) {
	cases := []struct {
		name string
		args []string
		want int
	}{
		{name: "no command", args: nil, want: exitUsage},
		{name: "unknown command", args: []string{"frobnicate"}, want: exitUsage},
		{name: "unknown flag", args: []string{"--nope"}, want: exitUsage},
		{name: "extract without files", args: []string{"extract"}, want: exitUsage},
		{name: "extract bad format", args: []string{"extract", "-f", "xml", "x.json"}, want: exitUsage},
		{name: "embed without card", args: []string{"embed", "-o", "x.png"}, want: exitUsage},
		{name: "bad log level", args: []string{"--log-level", "loud", "version"}, want: exitUsage},
		{name: "bad log format", args: []string{"--log-format", "jsno", "version"}, want: exitUsage},
		{name: "help", args: []string{"--help"}, want: exitOK},
		{name: "sub help", args: []string{"extract", "--help"}, want: exitOK},
		{name: "version", args: []string{"version"}, want: exitOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if code, _, stderr := runCLI(t, tc.args...); code != tc.want {
				t.Fatalf("exit=%d want %d stderr=%s", code, tc.want, stderr)
			}
		})
	}
}

func TestLogFormatFlagValidated(t *testing.T) {
	code, stdout, stderr := runCLI(t, "--log-format", "jsno", "version")
	if code != exitUsage {
		t.Fatalf("exit=%d want %d", code, exitUsage)
	}
	if stdout != "" || !strings.Contains(stderr, `log.format "jsno"`) {
		t.Fatalf("stdout=%q stderr=%q", stdout, stderr)
	}
	if code, _, stderr := runCLI(t, "--log-format", "json", "version"); code != exitOK {
		t.Fatalf("json exit=%d stderr=%s", code, stderr)
	}
}

func TestMissingFileIsReadError(t *testing.T) {
	code, _, stderr := runCLI(t, "inspect", filepath.Join(t.TempDir(), "gone.png"))
	if code != exitError {
		t.Fatalf("exit=%d want %d", code, exitError)
	}
	if !strings.Contains(stderr, "read ") {
		t.Fatalf("stderr=%s", stderr)
	}
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeTemp(t, dir, "charcard.yaml", `
log:
  level: debug
  format: json
output:
  format: text
embed:
  keywords: [ccv2]
  width: 8
  height: 8
`)
	cardPath := writeTemp(t, dir, "c.json", `{"name":"Cfg"}`)
	outPath := filepath.Join(dir, "c.png")

	code, _, stderr := runCLI(t, "--config", cfgPath, "embed", "--card", cardPath, "-o", outPath)
	if code != exitOK {
		t.Fatalf("embed exit=%d stderr=%s", code, stderr)
	}
	if !strings.Contains(stderr, `"message":"Embedded character card"`) {
		t.Fatalf("json log line missing:\n%s", stderr)
	}
	img, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Contains(img, []byte("ccv2\x00")) || bytes.Contains(img, []byte("chara\x00")) {
		t.Fatalf("configured keyword not used")
	}

	var stdout, errOut bytes.Buffer
	t.Setenv(ConfigEnv, cfgPath)
	if code := Run([]string{"charcard", "extract", outPath}, &stdout, &errOut); code != exitOK {
		t.Fatalf("extract exit=%d stderr=%s", code, errOut.String())
	}
	if !strings.Contains(stdout.String(), "Cfg") || strings.HasPrefix(stdout.String(), "{") {
		t.Fatalf("config output format not applied:\n%s", stdout.String())
	}
}

func TestLoadConfigValidation(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig default: %v", err)
	}
	if cfg.Output.Format != "json" || *cfg.Output.Indent != 2 || cfg.Log.Level != "warn" {
		t.Fatalf("defaults=%+v", cfg)
	}

	zero := writeTemp(t, dir, "zero.yaml", "output:\n  indent: 0\n")
	cfg, err = LoadConfig(zero)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if *cfg.Output.Indent != 0 {
		t.Fatalf("indent=%d want 0", *cfg.Output.Indent)
	}

	bad := writeTemp(t, dir, "bad.yaml", "output:\n  format: xml\n")
	if _, err := LoadConfig(bad); err == nil {
		t.Fatalf("expected validation error")
	}
	if _, err := LoadConfig(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatalf("expected read error")
	}
}
