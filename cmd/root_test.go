package cmd

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/tokencount/internal/config"
	"github.com/mark3labs/tokencount/internal/counter"
	"github.com/tidwall/gjson"
)

func TestRootMissingArguments(t *testing.T) {
	useTestCounter(t)

	for _, args := range [][]string{{}, {"Hello"}, {"Hello", "llama"}} {
		var stdout, stderr bytes.Buffer
		err := executeArgs(context.Background(), args, &stdout, &stderr)
		if !errors.Is(err, errMissingArguments) {
			t.Errorf("args %q: error = %v, want errMissingArguments", args, err)
		}
		if stdout.Len() != 0 {
			t.Errorf("args %q: stdout = %q, want nothing", args, stdout.String())
		}
		if got := stderr.String(); got != "Error: Missing required arguments\n" {
			t.Errorf("args %q: stderr = %q", args, got)
		}
	}
}

func TestRootCount(t *testing.T) {
	useTestCounter(t)

	var stdout, stderr bytes.Buffer
	if err := executeArgs(context.Background(), []string{"Hello world", "llama", "llama-3.1-8b"}, &stdout, &stderr); err != nil {
		t.Fatalf("execute error = %v", err)
	}

	out := stdout.String()
	if !strings.HasSuffix(out, "}\n") {
		t.Errorf("stdout should be one JSON line, got %q", out)
	}
	if !gjson.Valid(out) {
		t.Fatalf("invalid JSON: %s", out)
	}
	if !gjson.Get(out, "success").Bool() {
		t.Errorf("success = false: %s", out)
	}
	if n := gjson.Get(out, "tokenCount").Int(); n != 6 {
		t.Errorf("tokenCount = %d, want 6", n)
	}
	if got := gjson.Get(out, "visualization.tokens.0").String(); got != "He" {
		t.Errorf("first token = %q, want He", got)
	}
	if got := gjson.Get(out, "visualization.charToToken.#").Int(); got != 11 {
		t.Errorf("charToToken has %d entries, want 11", got)
	}
}

func TestRootUnsupportedProvider(t *testing.T) {
	useTestCounter(t)

	var stdout, stderr bytes.Buffer
	if err := executeArgs(context.Background(), []string{"Hello", "foo", "bar"}, &stdout, &stderr); err != nil {
		t.Fatalf("execute error = %v", err)
	}
	want := `{"success":false,"error":"unsupported provider: foo"}` + "\n"
	if got := stdout.String(); got != want {
		t.Errorf("stdout = %q, want %q", got, want)
	}
}

func TestRootInitFailure(t *testing.T) {
	useTestCounter(t)

	var stdout, stderr bytes.Buffer
	if err := executeArgs(context.Background(), []string{"Hello", "anthropic", "claude-3-opus"}, &stdout, &stderr); err != nil {
		t.Fatalf("execute error = %v", err)
	}
	out := stdout.String()
	if gjson.Get(out, "success").Bool() {
		t.Fatalf("expected a failure envelope: %s", out)
	}
	if got := gjson.Get(out, "error").String(); got != "failed to initialize anthropic tokenizer: missing API key" {
		t.Errorf("error = %q", got)
	}
}

func TestRootSetupFailure(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	prev := buildCounter
	buildCounter = func(*config.Settings, *log.Logger) (*counter.Counter, error) {
		return nil, errors.New("failed to read pricing file prices.yml: no such file")
	}
	t.Cleanup(func() { buildCounter = prev })

	var stdout, stderr bytes.Buffer
	err := executeArgs(context.Background(), []string{"Hello", "llama", "llama-3.1-8b"}, &stdout, &stderr)
	if err == nil {
		t.Fatal("expected an error so the process exits non-zero")
	}
	want := `{"success":false,"error":"failed to read pricing file prices.yml: no such file"}` + "\n"
	if got := stdout.String(); got != want {
		t.Errorf("stdout = %q, want %q", got, want)
	}
}

func TestRootDashText(t *testing.T) {
	useTestCounter(t)

	tests := []struct {
		name string
		args []string
		text string
	}{
		{name: "list item", args: []string{"- item one", "llama", "llama-3.1-8b"}, text: "- item one"},
		{name: "negative number", args: []string{"-5 degrees", "llama", "llama-3.1-8b"}, text: "-5 degrees"},
		{name: "long flag lookalike", args: []string{"--help me", "llama", "llama-3.1-8b"}, text: "--help me"},
		{name: "lone dash", args: []string{"-", "llama", "llama-3.1-8b"}, text: "-"},
		{name: "help subcommand name", args: []string{"help", "llama", "llama-3.1-8b"}, text: "help"},
		{name: "completion subcommand name", args: []string{"completion", "llama", "llama-3.1-8b"}, text: "completion"},
		{name: "with a flag", args: []string{"--debug", "-5 degrees", "llama", "llama-3.1-8b"}, text: "-5 degrees"},
		{name: "explicit terminator", args: []string{"--", "-x", "llama", "llama-3.1-8b"}, text: "-x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if err := executeArgs(context.Background(), tt.args, &stdout, &stderr); err != nil {
				t.Fatalf("execute error = %v (stderr %q)", err, stderr.String())
			}
			out := stdout.String()
			if !gjson.Get(out, "success").Bool() {
				t.Fatalf("expected a count, got %q", out)
			}
			if got := gjson.Get(out, "visualization.text").String(); got != tt.text {
				t.Errorf("text = %q, want %q", got, tt.text)
			}
			if got := gjson.Get(out, "visualization.charToToken.#").Int(); got != int64(len(tt.text)) {
				t.Errorf("charToToken has %d entries, want %d", got, len(tt.text))
			}
		})
	}
}

func TestCountArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{
			name: "plain count",
			args: []string{"Hello", "llama", "m"},
			want: []string{"--", "Hello", "llama", "m"},
		},
		{
			name: "flags keep their values",
			args: []string{"--pricing-file", "p.yml", "-5", "llama", "m", "--debug"},
			want: []string{"--pricing-file", "p.yml", "--debug", "--", "-5", "llama", "m"},
		},
		{
			name: "inline flag value",
			args: []string{"--config=c.yml", "help", "llama", "m"},
			want: []string{"--config=c.yml", "--", "help", "llama", "m"},
		},
		{
			name: "show",
			args: []string{"show", "--width", "40", "- a", "llama", "m"},
			want: []string{"show", "--width", "40", "--", "- a", "llama", "m"},
		},
		{
			name: "serve",
			args: []string{"serve", "--addr", ":9000"},
			want: []string{"serve", "--addr", ":9000"},
		},
		{
			name: "models",
			args: []string{"models", "--json", "llama"},
			want: []string{"models", "--json", "llama"},
		},
		{
			name: "completion script",
			args: []string{"completion", "bash"},
			want: []string{"completion", "bash"},
		},
		{
			name: "help",
			args: []string{"--help"},
			want: []string{"--help"},
		},
		{
			name: "missing arguments",
			args: []string{"Hello", "llama"},
			want: []string{"Hello", "llama"},
		},
		{
			name: "shell completion request",
			args: []string{"__complete", "llama", ""},
			want: []string{"__complete", "llama", ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := countArgs(tt.args); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("countArgs(%q) = %q, want %q", tt.args, got, tt.want)
			}
		})
	}
}

func TestShowCommand(t *testing.T) {
	useTestCounter(t)

	var stdout, stderr bytes.Buffer
	if err := executeArgs(context.Background(), []string{"show", "--width", "40", "Hello world", "llama", "llama-3.1-8b"}, &stdout, &stderr); err != nil {
		t.Fatalf("execute error = %v", err)
	}
	out := stdout.String()
	for _, want := range []string{"llama-3.1-8b", "Tokens: ", "6", "$0.000001"} {
		if !strings.Contains(out, want) {
			t.Errorf("show output missing %q:\n%s", want, out)
		}
	}

	stdout.Reset()
	err := executeArgs(context.Background(), []string{"show", "Hello", "foo", "bar"}, &stdout, &stderr)
	if err == nil {
		t.Error("expected an error for an unsupported provider")
	}
	if !strings.Contains(stdout.String(), "unsupported provider: foo") {
		t.Errorf("show output missing the error:\n%s", stdout.String())
	}
}

func TestModelsCommand(t *testing.T) {
	useTestCounter(t)

	var stdout, stderr bytes.Buffer
	if err := executeArgs(context.Background(), []string{"models", "--json", "anthropic"}, &stdout, &stderr); err != nil {
		t.Fatalf("execute error = %v", err)
	}
	out := stdout.String()
	if n := gjson.Get(out, "#").Int(); n != 3 {
		t.Errorf("got %d models, want 3: %s", n, out)
	}
	if p := gjson.Get(out, `#(id=="claude-3-opus").pricePer1K`).Float(); p != 0.015 {
		t.Errorf("claude-3-opus price = %v", p)
	}

	if err := executeArgs(context.Background(), []string{"models", "--json", "foo"}, &stdout, &stderr); err == nil {
		t.Error("expected an error for an unknown provider")
	}
}
