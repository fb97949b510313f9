// Package imagematch implements the visual template matching used to find
// known failure glyphs in window screenshots. Similarity is a scalar distance
// in [0,1]; lower means more similar.
package imagematch

import (
	"fmt"
	"image"
	"math"

	"golang.org/x/image/draw"
)

// DefaultThreshold is the similarity below which a template is considered
// present in an image.
const DefaultThreshold = 0.1

// DownscaleFactor is applied to both the screenshot and the reference icon
// before searching. Matching at a third of the linear resolution loses some
// precision but the search runs once per window and icon on every poll.
const DownscaleFactor = 3

// Downscale shrinks img by the given linear factor, each dimension rounded to
// the nearest integer independently.
func Downscale(img image.Image, factor int) *image.RGBA {
	bounds := img.Bounds()
	width := int(math.Round(float64(bounds.Dx()) / float64(factor)))
	height := int(math.Round(float64(bounds.Dy()) / float64(factor)))
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, bounds, draw.Src, nil)
	return dst
}

// Search slides needle over every placement inside haystack and returns the
// smallest mean absolute channel difference, normalized to [0,1]. Identical
// images yield 0. Transparent needle pixels are ignored so that clipped
// screenshot regions and icon masks do not count against a match.
func Search(haystack, needle *image.RGBA) (float64, error) {
	hw, hh := haystack.Rect.Dx(), haystack.Rect.Dy()
	nw, nh := needle.Rect.Dx(), needle.Rect.Dy()
	if nw > hw || nh > hh {
		return 0, fmt.Errorf("template %dx%d does not fit into image %dx%d", nw, nh, hw, hh)
	}
	if nw == 0 || nh == 0 {
		return 0, fmt.Errorf("template has no area")
	}

	best := math.Inf(1)
	for oy := 0; oy <= hh-nh; oy++ {
		for ox := 0; ox <= hw-nw; ox++ {
			d := distanceAt(haystack, needle, ox, oy, best)
			if d < best {
				best = d
				if best == 0 {
					return 0, nil
				}
			}
		}
	}
	return best, nil
}

// distanceAt computes the normalized mean absolute difference of needle laid
// over haystack at (ox,oy). The accumulation aborts early once the distance
// cannot undercut limit anymore.
func distanceAt(haystack, needle *image.RGBA, ox, oy int, limit float64) float64 {
	nw, nh := needle.Rect.Dx(), needle.Rect.Dy()
	maxSum := float64(nw*nh*3) * 255
	limitSum := limit * maxSum

	var sum float64
	var opaque int
	for y := 0; y < nh; y++ {
		hi := haystack.PixOffset(haystack.Rect.Min.X+ox, haystack.Rect.Min.Y+oy+y)
		ni := needle.PixOffset(needle.Rect.Min.X, needle.Rect.Min.Y+y)
		for x := 0; x < nw; x++ {
			if needle.Pix[ni+3] != 0 && haystack.Pix[hi+3] != 0 {
				sum += absDiff(haystack.Pix[hi], needle.Pix[ni])
				sum += absDiff(haystack.Pix[hi+1], needle.Pix[ni+1])
				sum += absDiff(haystack.Pix[hi+2], needle.Pix[ni+2])
				opaque++
			} else {
				// A pixel present in only one of the images is a full miss.
				if needle.Pix[ni+3] != haystack.Pix[hi+3] {
					sum += 3 * 255
					opaque++
				}
			}
			hi += 4
			ni += 4
			if sum > limitSum {
				return math.Inf(1)
			}
		}
	}
	if opaque == 0 {
		// Nothing comparable at this placement.
		return math.Inf(1)
	}
	return sum / (float64(opaque*3) * 255)
}

func absDiff(a, b uint8) float64 {
	if a > b {
		return float64(a - b)
	}
	return float64(b - a)
}
