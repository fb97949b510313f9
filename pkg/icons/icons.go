// Package icons loads the library of known failure glyphs that window
// screenshots are matched against.
package icons

import (
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"golang.org/x/image/bmp"
)

// Icon is a single named reference bitmap. The name is the file base name
// without extension and is used verbatim in failure reasons.
type Icon struct {
	Name  string
	Image *image.RGBA
}

// Library is an ordered, read-only collection of failure icons. It is loaded
// once at startup and shared by all test cases.
type Library []Icon

// Load reads every .png and .bmp file directly inside dir, keyed by base
// name. Icons are ordered by name so that matching does not depend on
// directory enumeration order.
func Load(fs afero.Fs, dir string) (Library, error) {
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read icon directory %s: %w", dir, err)
	}

	var library Library
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".png" && ext != ".bmp" {
			logrus.WithField("file", entry.Name()).Debug("Ignoring non-image file in icon directory")
			continue
		}
		img, err := decode(fs, filepath.Join(dir, entry.Name()), ext)
		if err != nil {
			return nil, fmt.Errorf("failed to load icon %s: %w", entry.Name(), err)
		}
		library = append(library, Icon{
			Name:  strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name())),
			Image: img,
		})
	}
	if len(library) == 0 {
		return nil, fmt.Errorf("icon directory %s contains no .png or .bmp files", dir)
	}

	sort.Slice(library, func(i, j int) bool { return library[i].Name < library[j].Name })
	return library, nil
}

func decode(fs afero.Fs, path, ext string) (*image.RGBA, error) {
	file, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var img image.Image
	switch ext {
	case ".png":
		img, err = png.Decode(file)
	case ".bmp":
		img, err = bmp.Decode(file)
	}
	if err != nil {
		return nil, err
	}

	if rgba, ok := img.(*image.RGBA); ok {
		return rgba, nil
	}
	rgba := image.NewRGBA(img.Bounds())
	draw.Draw(rgba, rgba.Rect, img, img.Bounds().Min, draw.Src)
	return rgba, nil
}
