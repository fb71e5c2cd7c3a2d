// Package avatar renders deterministic identicon avatars for accounts that
// did not bring one from an OAuth provider.
package avatar

import (
	"bytes"
	"crypto/sha256"
	"image"
	"image/color"
	"image/png"

	"golang.org/x/image/draw"
)

const (
	gridSize  = 5
	imageSize = 256
)

// Generate returns a PNG identicon derived from the seed (typically the user
// ID). The same seed always yields the same image.
func Generate(seed string) ([]byte, error) {
	sum := sha256.Sum256([]byte(seed))

	fg := color.NRGBA{R: sum[0], G: sum[1], B: sum[2], A: 255}
	bg := color.NRGBA{R: 240, G: 240, B: 240, A: 255}

	// Mirror the left half onto the right so the pattern is symmetric.
	grid := image.NewNRGBA(image.Rect(0, 0, gridSize, gridSize))
	for y := 0; y < gridSize; y++ {
		for x := 0; x <= gridSize/2; x++ {
			c := bg
			if sum[3+y*(gridSize/2+1)+x]%2 == 0 {
				c = fg
			}
			grid.SetNRGBA(x, y, c)
			grid.SetNRGBA(gridSize-1-x, y, c)
		}
	}

	out := image.NewNRGBA(image.Rect(0, 0, imageSize, imageSize))
	draw.NearestNeighbor.Scale(out, out.Bounds(), grid, grid.Bounds(), draw.Src, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
