package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"github.com/matzehuels/flowscope/pkg/config"
	flowio "github.com/matzehuels/flowscope/pkg/io"
)

const diamondTrace = "../../examples/diamond.json"

const tinyNetwork = `3 2 0 2
0-(4)>1
1-(3)>2
`

func TestParseFormats(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty defaults to svg", "", []string{"svg"}},
		{"single format", "svg", []string{"svg"}},
		{"multiple formats", "svg,dot,png", []string{"svg", "dot", "png"}},
		{"trims and lowercases", " SVG , Json ", []string{"svg", "json"}},
		{"skips empty parts", "svg,,pdf", []string{"svg", "pdf"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseFormats(tt.input); !slices.Equal(got, tt.want) {
				t.Errorf("parseFormats(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseFrames(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []int
		wantErr bool
	}{
		{"empty selects all", "", nil, false},
		{"single", "4", []int{4}, false},
		{"list", "0,2", []int{0, 2}, false},
		{"range", "3-5", []int{3, 4, 5}, false},
		{"mixed", "0, 3-4, 9", []int{0, 3, 4, 9}, false},
		{"not a number", "x", nil, true},
		{"reversed range", "5-3", nil, true},
		{"open range", "2-", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseFrames(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseFrames(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && !slices.Equal(got, tt.want) {
				t.Errorf("parseFrames(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestBaseName(t *testing.T) {
	if got := baseName("traces/diamond.json"); got != "diamond" {
		t.Errorf("baseName = %q, want diamond", got)
	}
}

func parseConfigFlags(t *testing.T, args ...string) (*configFlags, *pflag.FlagSet) {
	t.Helper()
	var f configFlags
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	f.register(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse %v: %v", args, err)
	}
	return &f, fs
}

func TestConfigFlagsDefaults(t *testing.T) {
	f, fs := parseConfigFlags(t)
	if f.changed(fs) {
		t.Error("changed() = true without flags")
	}
	cfg, err := f.load(fs)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if def := config.Default(); cfg.Width != def.Width || cfg.Height != def.Height {
		t.Errorf("canvas = %vx%v, want %vx%v", cfg.Width, cfg.Height, def.Width, def.Height)
	}
	if !cfg.Display.PhysicsDrag {
		t.Error("physics drag should be on by default")
	}
}

func TestConfigFlagsOverride(t *testing.T) {
	f, fs := parseConfigFlags(t, "--width", "640", "--seed", "7", "--direct-drag", "--heights=false")
	if !f.changed(fs) {
		t.Error("changed() = false with flags set")
	}
	cfg, err := f.load(fs)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Width != 640 || cfg.Height != 600 {
		t.Errorf("canvas = %vx%v, want 640x600", cfg.Width, cfg.Height)
	}
	if cfg.Simulation.Seed != 7 {
		t.Errorf("seed = %d, want 7", cfg.Simulation.Seed)
	}
	if cfg.Display.PhysicsDrag {
		t.Error("--direct-drag should turn physics drag off")
	}
	if cfg.Display.Heights {
		t.Error("--heights=false should hide heights")
	}
}

func TestConfigFlagsFileThenFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flowscope.toml")
	if err := os.WriteFile(path, []byte("width = 1000\nheight = 700\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	f, fs := parseConfigFlags(t, "--config", path, "--height", "500")
	cfg, err := f.load(fs)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Width != 1000 {
		t.Errorf("width = %v, want 1000 from the file", cfg.Width)
	}
	if cfg.Height != 500 {
		t.Errorf("height = %v, want 500 from the flag", cfg.Height)
	}
}

func TestConfigFlagsInvalid(t *testing.T) {
	f, fs := parseConfigFlags(t, "--width", "-1")
	if _, err := f.load(fs); err == nil {
		t.Error("load accepted a negative width")
	}

	f, fs = parseConfigFlags(t, "--config", filepath.Join(t.TempDir(), "missing.toml"))
	if _, err := f.load(fs); err == nil {
		t.Error("load accepted a missing config file")
	}
}

func TestRootCommandSubcommands(t *testing.T) {
	root := New(&bytes.Buffer{}, log.InfoLevel).RootCommand()

	want := []string{"validate", "render", "play", "serve", "convert", "cache", "completion"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestLoadTrace(t *testing.T) {
	g, err := loadTrace(diamondTrace)
	if err != nil {
		t.Fatalf("loadTrace: %v", err)
	}
	if g.NodeCount() != 4 || g.EdgeCount() != 5 {
		t.Errorf("got %d nodes, %d edges", g.NodeCount(), g.EdgeCount())
	}
	last := g.Frame(g.FrameCount() - 1)
	if v := flowValue(g, last); v != 5 {
		t.Errorf("final flow = %v, want 5", v)
	}
	if v := flowValue(g, g.Frame(0)); v != 0 {
		t.Errorf("initial flow = %v, want 0", v)
	}

	summary := kindSummary(g)
	for _, part := range []string{"1 initial", "2 relabel", "1 path", "1 final"} {
		if !strings.Contains(summary, part) {
			t.Errorf("kindSummary = %q, missing %q", summary, part)
		}
	}
}

func TestLoadTraceMissing(t *testing.T) {
	if _, err := loadTrace(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("loadTrace of a missing file succeeded")
	}
}

func TestValidateCommand(t *testing.T) {
	root := New(&bytes.Buffer{}, log.InfoLevel).RootCommand()
	root.SetArgs([]string{"validate", diamondTrace, "--frames"})
	if err := root.Execute(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestConvertCommand(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "tiny.txt")
	if err := os.WriteFile(in, []byte(tinyNetwork), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Run("to file", func(t *testing.T) {
		out := filepath.Join(dir, "tiny.json")
		root := New(&bytes.Buffer{}, log.InfoLevel).RootCommand()
		root.SetArgs([]string{"convert", in, out})
		if err := root.Execute(); err != nil {
			t.Fatalf("convert: %v", err)
		}
		doc, err := flowio.ImportDocument(out)
		if err != nil {
			t.Fatalf("import converted: %v", err)
		}
		if len(doc.Nodes) != 3 || len(doc.Links) != 2 || len(doc.Frames) != 1 {
			t.Errorf("converted document has %d nodes, %d links, %d frames", len(doc.Nodes), len(doc.Links), len(doc.Frames))
		}
	})

	t.Run("to stdout", func(t *testing.T) {
		var stdout bytes.Buffer
		root := New(&bytes.Buffer{}, log.InfoLevel).RootCommand()
		root.SetOut(&stdout)
		root.SetArgs([]string{"convert", in, "--stdout"})
		if err := root.Execute(); err != nil {
			t.Fatalf("convert: %v", err)
		}
		if !strings.Contains(stdout.String(), `"capacity": 4`) {
			t.Errorf("stdout does not hold the document:\n%s", stdout.String())
		}
	})

	t.Run("invalid input", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.txt")
		if err := os.WriteFile(bad, []byte("3 2 0 2\n0-(4)>1\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		root := New(&bytes.Buffer{}, log.InfoLevel).RootCommand()
		root.SetOut(&bytes.Buffer{})
		root.SetErr(&bytes.Buffer{})
		root.SetArgs([]string{"convert", bad, "--stdout"})
		if err := root.Execute(); err == nil {
			t.Error("convert accepted a network with a missing edge")
		}
	})
}
