package icons

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
	"golang.org/x/image/bmp"
)

func pngBytes(t *testing.T, c color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}

func bmpBytes(t *testing.T, c color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := bmp.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode bmp: %v", err)
	}
	return buf.Bytes()
}

func TestLoadSortsIconsByName(t *testing.T) {
	fs := afero.NewMemMapFs()
	red := color.RGBA{R: 255, A: 255}
	for _, name := range []string{"icons/unable-to-open-document.png", "icons/blocked-by-group-policy.png", "icons/something-went-wrong.png"} {
		if err := afero.WriteFile(fs, name, pngBytes(t, red), 0o644); err != nil {
			t.Fatalf("failed to write icon: %v", err)
		}
	}

	library, err := Load(fs, "icons")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var names []string
	for _, icon := range library {
		names = append(names, icon.Name)
	}
	expected := []string{"blocked-by-group-policy", "something-went-wrong", "unable-to-open-document"}
	if diff := cmp.Diff(expected, names); diff != "" {
		t.Errorf("unexpected icon order: %s", diff)
	}
}

func TestLoadDecodesBmpAndIgnoresOtherFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "icons/legacy-error.bmp", bmpBytes(t, color.RGBA{G: 255, A: 255}), 0o644); err != nil {
		t.Fatalf("failed to write icon: %v", err)
	}
	if err := afero.WriteFile(fs, "icons/README.txt", []byte("not an image"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	library, err := Load(fs, "icons")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(library) != 1 {
		t.Fatalf("expected a single icon, got %d", len(library))
	}
	if library[0].Name != "legacy-error" {
		t.Errorf("expected icon name legacy-error, got %q", library[0].Name)
	}
	if got := library[0].Image.Bounds(); got.Dx() != 4 || got.Dy() != 4 {
		t.Errorf("expected a 4x4 icon, got %v", got)
	}
}

func TestLoadFailsWithoutIcons(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := fs.MkdirAll("icons", 0o755); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	if _, err := Load(fs, "icons"); err == nil {
		t.Error("expected an error for an icon directory without images")
	}
}

func TestLoadFailsOnCorruptIcon(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "icons/broken.png", []byte("not a png"), 0o644); err != nil {
		t.Fatalf("failed to write icon: %v", err)
	}
	if _, err := Load(fs, "icons"); err == nil {
		t.Error("expected an error for a corrupt icon file")
	}
}
