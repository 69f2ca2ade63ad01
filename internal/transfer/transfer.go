// Package transfer moves a shape key between meshes through a shared UV
// parameterization: the source deformation is scattered into a UV
// raster, triangulated, filled, and resampled through the destination
// mesh's UV loops into a new shape key.
package transfer

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/meshforge/sktransfer/internal/logger"
	"github.com/meshforge/sktransfer/pkg/delaunay"
	"github.com/meshforge/sktransfer/pkg/math"
	"github.com/meshforge/sktransfer/pkg/mesh"
	"github.com/meshforge/sktransfer/pkg/raster"
)

// Options controls a transfer invocation.
type Options struct {
	// Width and Height set the UV raster resolution; both must be >= 1.
	Width  int
	Height int

	// SaveDebugImages dumps the intermediate rasters as PNGs into
	// DebugDir. Dump failures are logged and never abort the transfer.
	SaveDebugImages bool
	DebugDir        string
}

// Transfer resamples shape key srcKey of src through UV layer srcUV onto
// dst via its UV layer dstUV, creating a new shape key on dst with the
// source key's name and slider range. dst is left unmodified on error;
// the key is created only after the whole deformation buffer has been
// computed.
//
// Destination loops that fall outside the convex hull of the source
// samples receive a zero delta; the transfer does not extrapolate.
func Transfer(src *mesh.Mesh, srcKey, srcUV int, dst *mesh.Mesh, dstUV int, opts Options) (*mesh.ShapeKey, error) {
	if err := src.Validate(); err != nil {
		return nil, fmt.Errorf("source mesh: %w", err)
	}
	if err := dst.Validate(); err != nil {
		return nil, fmt.Errorf("destination mesh: %w", err)
	}
	key, err := src.Key(srcKey)
	if err != nil {
		return nil, fmt.Errorf("source mesh: %w", err)
	}

	sparse, err := raster.Sample(src, srcKey, srcUV, opts.Width, opts.Height)
	if err != nil {
		return nil, fmt.Errorf("sampling source mesh %q: %w", src.Name, err)
	}
	logCoverage(sparse)

	var dumper *RasterDumper
	if opts.SaveDebugImages {
		prefix := fmt.Sprintf("%s-sk%d-uv%d-%dx%d", src.Name, srcKey, srcUV, opts.Width, opts.Height)
		dumper = NewRasterDumper(opts.DebugDir, prefix)
		dumper.DumpCounts(sparse)
		dumper.DumpMeans(sparse)
	}

	points := sparse.Points()
	tris := delaunay.Triangulate(toDelaunayPoints(points))
	logger.Info("triangulated samples",
		zap.Int("points", len(points)),
		zap.Int("triangles", len(tris)))

	dense, err := raster.FillTriangles(opts.Width, opts.Height, toValuedTriangles(tris, sparse))
	if err != nil {
		return nil, err
	}
	if dumper != nil {
		dumper.DumpFilled(dense)
	}

	positions, err := resample(dst, dstUV, dense)
	if err != nil {
		return nil, fmt.Errorf("resampling onto mesh %q: %w", dst.Name, err)
	}

	out, err := dst.AddShapeKey(key.Name, positions)
	if err != nil {
		return nil, err
	}
	out.SliderMin = key.SliderMin
	out.SliderMax = key.SliderMax

	logger.Info("shape key created",
		zap.String("mesh", dst.Name),
		zap.String("key", out.Name))
	return out, nil
}

// toDelaunayPoints converts occupied raster cells to triangulator input.
func toDelaunayPoints(points []raster.GridPoint) []delaunay.Point {
	out := make([]delaunay.Point, len(points))
	for i, p := range points {
		out[i] = delaunay.Point{X: p.X, Y: p.Y}
	}
	return out
}

// toValuedTriangles attaches each triangle corner's mean displacement,
// read from the sparse raster cell under it.
func toValuedTriangles(tris []delaunay.Triangle, sparse *raster.ScatterRaster) []raster.Triangle {
	out := make([]raster.Triangle, len(tris))
	for i, t := range tris {
		for k, p := range t {
			out[i][k] = raster.ValuedVertex{X: p.X, Y: p.Y, Val: sparse.MeanAt(p.X, p.Y)}
		}
	}
	return out
}

// resample reads a delta for every destination loop from the dense
// raster, using the same UV rounding as the sampler, and returns the
// destination's absolute positions. Vertices not referenced by any loop
// keep their reference position.
func resample(dst *mesh.Mesh, uvIdx int, dense *raster.DenseRaster) ([]math.Vec3, error) {
	ref, err := dst.ReferenceKey()
	if err != nil {
		return nil, err
	}
	layer, err := dst.UVLayer(uvIdx)
	if err != nil {
		return nil, err
	}

	positions := append([]math.Vec3(nil), ref.Positions...)
	for _, poly := range dst.Polygons {
		for ci, v := range poly.Vertices {
			uv := layer.UV[poly.LoopStart+ci]
			p, err := raster.MapUV(uv.X, uv.Y, dense.Width(), dense.Height())
			if err != nil {
				return nil, fmt.Errorf("vertex %d: %w", v, err)
			}
			positions[v] = ref.Positions[v].Add(dense.At(p.X, p.Y))
		}
	}
	return positions, nil
}

// logCoverage reports how many raster cells received samples and the
// sample-count histogram, mirroring the cell statistics a transfer is
// usually judged by.
func logCoverage(sparse *raster.ScatterRaster) {
	hist := make(map[int]int)
	occupied := 0
	for _, c := range sparse.Counts() {
		if c > 0 {
			occupied++
			hist[c]++
		}
	}
	logger.Info("scattered source samples",
		zap.Int("cells", sparse.Width()*sparse.Height()),
		zap.Int("occupied", occupied))

	counts := make([]int, 0, len(hist))
	for c := range hist {
		counts = append(counts, c)
	}
	sort.Ints(counts)
	for _, c := range counts {
		logger.Debug("sample count", zap.Int("samples", c), zap.Int("cells", hist[c]))
	}
}
