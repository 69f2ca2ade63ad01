package transfer

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/meshforge/sktransfer/internal/logger"
	"github.com/meshforge/sktransfer/pkg/math"
	"github.com/meshforge/sktransfer/pkg/raster"
)

// RasterDumper writes intermediate transfer rasters as PNG images for
// visual debugging. Values are normalised to the 0-255 range using the
// buffer's own min and max; a constant buffer comes out black.
type RasterDumper struct {
	outputDir string
	prefix    string
}

// NewRasterDumper creates a dumper writing prefix-<name>.png files into
// outputDir.
func NewRasterDumper(outputDir, prefix string) *RasterDumper {
	return &RasterDumper{outputDir: outputDir, prefix: prefix}
}

// DumpCounts saves the sparse raster's sample counts as a grayscale
// image.
func (d *RasterDumper) DumpCounts(sparse *raster.ScatterRaster) {
	counts := sparse.Counts()
	vals := make([]float32, len(counts))
	for i, c := range counts {
		vals[i] = float32(c)
	}
	path, err := d.saveGray("counts", sparse.Width(), sparse.Height(), vals)
	d.report("counts", path, err)
}

// DumpMeans saves the sparse raster's mean displacements as an RGB
// image.
func (d *RasterDumper) DumpMeans(sparse *raster.ScatterRaster) {
	path, err := d.saveRGB("deltas", sparse.Width(), sparse.Height(), sparse.Means())
	d.report("deltas", path, err)
}

// DumpFilled saves the dense raster as an RGB image.
func (d *RasterDumper) DumpFilled(dense *raster.DenseRaster) {
	path, err := d.saveRGB("filled", dense.Width(), dense.Height(), dense.Values())
	d.report("filled", path, err)
}

// report logs a dump result. Failures are diagnostic-only and never
// abort the transfer.
func (d *RasterDumper) report(name string, path string, err error) {
	if err != nil {
		logger.Warn("saving debug image failed", zap.String("image", name), zap.Error(err))
		return
	}
	logger.Info("saved debug image", zap.String("path", path))
}

func (d *RasterDumper) saveGray(name string, w, h int, vals []float32) (string, error) {
	lo, hi := minMax(vals)
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: normalize(vals[y*w+x], lo, hi)})
		}
	}
	return d.save(name, img)
}

func (d *RasterDumper) saveRGB(name string, w, h int, vals []math.Vec3) (string, error) {
	flat := make([]float32, 0, len(vals)*3)
	for _, v := range vals {
		flat = append(flat, v.X, v.Y, v.Z)
	}
	lo, hi := minMax(flat)

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := vals[y*w+x]
			img.SetRGBA(x, y, color.RGBA{
				R: normalize(v.X, lo, hi),
				G: normalize(v.Y, lo, hi),
				B: normalize(v.Z, lo, hi),
				A: 255,
			})
		}
	}
	return d.save(name, img)
}

func (d *RasterDumper) save(name string, img image.Image) (string, error) {
	if d.outputDir != "" {
		if err := os.MkdirAll(d.outputDir, 0755); err != nil {
			return "", fmt.Errorf("creating output dir: %w", err)
		}
	}
	filename := filepath.Join(d.outputDir, fmt.Sprintf("%s-%s.png", d.prefix, name))

	file, err := os.Create(filename)
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		return "", fmt.Errorf("encoding PNG: %w", err)
	}
	return filename, nil
}

// minMax returns the smallest and largest value in vals.
func minMax(vals []float32) (lo, hi float32) {
	if len(vals) == 0 {
		return 0, 0
	}
	lo, hi = vals[0], vals[0]
	for _, v := range vals[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// normalize maps v from [lo, hi] to 0-255; a constant buffer maps to 0.
func normalize(v, lo, hi float32) uint8 {
	if hi <= lo {
		return 0
	}
	return uint8(255 * (v - lo) / (hi - lo))
}
