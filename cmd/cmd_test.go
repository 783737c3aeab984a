package cmd

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("SLIDECAST_CONFIG", "")
	t.Setenv("REDIS_HOST", "")
	t.Setenv("MINIO_ENDPOINT", "")
	t.Setenv("SCRATCH_DIR", t.TempDir())

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestSubcommandsRegistered(t *testing.T) {
	want := map[string]bool{"server": false, "slide": false, "combine": false, "redis": false, "minio": false}
	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestSlideRequiresImage(t *testing.T) {
	slideImage, slideText, slideTextFile = "", "", ""
	out := filepath.Join(t.TempDir(), "out.mp4")

	_, err := execute(t, "slide", "--text", "Hello world", "-o", out)
	if err == nil || !strings.Contains(err.Error(), "please upload an image slide") {
		t.Errorf("error = %v, want missing image", err)
	}
}

func TestCombineRequiresArgs(t *testing.T) {
	if _, err := execute(t, "combine"); err == nil {
		t.Error("combine without inputs should fail")
	}
}

func TestBackendsRequireConfig(t *testing.T) {
	tests := []struct {
		cmd  string
		want string
	}{
		{"redis", "REDIS_HOST"},
		{"minio", "MINIO_ENDPOINT"},
	}

	for _, tt := range tests {
		_, err := execute(t, tt.cmd)
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Errorf("%s error = %v, want mention of %s", tt.cmd, err, tt.want)
		}
	}
}

func TestInvalidConfiguration(t *testing.T) {
	t.Setenv("TTS_PROVIDER", "espeak")

	if _, err := execute(t, "combine", "a.mp4"); err == nil || !strings.Contains(err.Error(), "invalid configuration") {
		t.Errorf("error = %v, want invalid configuration", err)
	}
}
