package exiftool

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"testing"
)

func TestNewCLIWithBinary(t *testing.T) {
	cli := NewCLI(WithBinary("/opt/exiftool"))
	if cli.binary != "/opt/exiftool" {
		t.Fatalf("expected binary override to be applied, got %q", cli.binary)
	}
}

func TestReadTagsRequiresPath(t *testing.T) {
	cli := NewCLI()
	if _, err := cli.ReadTags(context.Background()); err == nil {
		t.Fatal("expected error when no paths are given")
	}
}

func TestReadTagsParsesPerPath(t *testing.T) {
	payload := `[
		{"SourceFile":"/a/IMG_1.nef","Label":"Select","Headline":"Birthday Party","DateTimeOriginal":"2007:06:03 14:05:59","FileTypeExtension":"nef"},
		{"SourceFile":"/a/IMG_1.xmp","Label":"Select"}
	]`
	captured := stubCommand(t, "json", payload)

	cli := NewCLI()
	sets, err := cli.ReadTags(context.Background(), "/a/IMG_1.nef", "/a/IMG_1.xmp")
	if err != nil {
		t.Fatalf("ReadTags returned error: %v", err)
	}
	if len(sets) != 2 {
		t.Fatalf("expected 2 tag sets, got %d", len(sets))
	}

	primary := sets[0]
	if primary.Path != "/a/IMG_1.nef" {
		t.Fatalf("unexpected primary path: %q", primary.Path)
	}
	if !primary.Label.Filled() || primary.Label.Value != "Select" {
		t.Fatalf("unexpected label: %+v", primary.Label)
	}
	if !primary.Headline.Filled() || primary.Headline.Value != "Birthday Party" {
		t.Fatalf("unexpected headline: %+v", primary.Headline)
	}
	if primary.TakenAt.Value != "2007:06:03 14:05:59" {
		t.Fatalf("unexpected taken at: %+v", primary.TakenAt)
	}

	sidecar := sets[1]
	if !sidecar.Label.Filled() {
		t.Fatalf("expected sidecar label present: %+v", sidecar.Label)
	}
	if sidecar.Headline.Present {
		t.Fatalf("expected sidecar headline absent: %+v", sidecar.Headline)
	}

	args := *captured
	if len(args) < 4 || args[0] != "-j" || args[1] != "-m" {
		t.Fatalf("unexpected exiftool arguments: %v", args)
	}
	if args[len(args)-2] != "/a/IMG_1.nef" || args[len(args)-1] != "/a/IMG_1.xmp" {
		t.Fatalf("paths missing from arguments: %v", args)
	}
}

func TestReadTagsEmptyValueStaysPresent(t *testing.T) {
	stubCommand(t, "json", `[{"SourceFile":"/a/IMG_2.jpg","Label":"","Headline":"  "}]`)

	cli := NewCLI()
	sets, err := cli.ReadTags(context.Background(), "/a/IMG_2.jpg")
	if err != nil {
		t.Fatalf("ReadTags returned error: %v", err)
	}
	if !sets[0].Label.Present || sets[0].Label.Filled() {
		t.Fatalf("expected present but unfilled label: %+v", sets[0].Label)
	}
	if !sets[0].Headline.Present || sets[0].Headline.Filled() {
		t.Fatalf("expected present but unfilled headline: %+v", sets[0].Headline)
	}
}

func TestReadTagsMissingEntryYieldsEmptySet(t *testing.T) {
	stubCommand(t, "json", `[{"SourceFile":"/a/IMG_1.nef","Label":"Select"}]`)

	cli := NewCLI()
	sets, err := cli.ReadTags(context.Background(), "/a/IMG_1.nef", "/a/other.nef")
	if err != nil {
		t.Fatalf("ReadTags returned error: %v", err)
	}
	if len(sets) != 2 {
		t.Fatalf("expected 2 tag sets, got %d", len(sets))
	}
	if sets[1].Path != "/a/other.nef" {
		t.Fatalf("unexpected path: %q", sets[1].Path)
	}
	if sets[1].Label.Present || sets[1].Headline.Present {
		t.Fatalf("expected tagless set, got %+v", sets[1])
	}
}

func TestReadTagsFailure(t *testing.T) {
	stubCommand(t, "fail", "")

	cli := NewCLI()
	if _, err := cli.ReadTags(context.Background(), "/a/IMG_1.nef"); err == nil {
		t.Fatal("expected error when exiftool fails without output")
	}
}

func TestReadTagsPartialOutputWins(t *testing.T) {
	stubCommand(t, "partial", `[{"SourceFile":"/a/IMG_1.nef","Headline":"Kept"}]`)

	cli := NewCLI()
	sets, err := cli.ReadTags(context.Background(), "/a/IMG_1.nef", "/a/broken.nef")
	if err != nil {
		t.Fatalf("expected usable output to win over exit status, got %v", err)
	}
	if !sets[0].Headline.Filled() {
		t.Fatalf("expected headline from partial output: %+v", sets[0])
	}
	if sets[1].Label.Present {
		t.Fatalf("expected broken file to stay tagless: %+v", sets[1])
	}
}

func TestVersion(t *testing.T) {
	stubCommand(t, "json", "13.10\n")

	cli := NewCLI()
	version, err := cli.Version(context.Background())
	if err != nil {
		t.Fatalf("Version returned error: %v", err)
	}
	if version != "13.10" {
		t.Fatalf("unexpected version: %q", version)
	}
}

func stubCommand(t *testing.T, mode, payload string) *[]string {
	t.Helper()
	var captured []string
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		captured = append([]string(nil), args...)
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(),
			"GO_WANT_HELPER_PROCESS=1",
			"EXIFTOOL_HELPER_MODE="+mode,
			"EXIFTOOL_HELPER_PAYLOAD="+payload,
		)
		return cmd
	}
	t.Cleanup(func() { commandContext = original })
	return &captured
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	defer os.Exit(0)

	switch os.Getenv("EXIFTOOL_HELPER_MODE") {
	case "json":
		fmt.Print(os.Getenv("EXIFTOOL_HELPER_PAYLOAD"))
	case "fail":
		fmt.Fprintln(os.Stderr, "File not found")
		os.Exit(1)
	case "partial":
		fmt.Print(os.Getenv("EXIFTOOL_HELPER_PAYLOAD"))
		os.Exit(1)
	}
}
