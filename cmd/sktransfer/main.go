// sktransfer is a CLI utility for transferring shape keys between meshes
// that share a UV parameterization.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/meshforge/sktransfer/internal/config"
	"github.com/meshforge/sktransfer/internal/logger"
	"github.com/meshforge/sktransfer/internal/transfer"
	"github.com/meshforge/sktransfer/pkg/formats"
	"github.com/meshforge/sktransfer/pkg/mesh"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "transfer":
		cmdTransfer(args)
	case "info":
		cmdInfo(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`sktransfer - UV-space shape key transfer

Usage:
  sktransfer <command> [options]

Commands:
  transfer -src <obj> -key <obj> -dst <obj> -out <obj>
           Transfer the deformation between -src and -key onto -dst
  info <file.obj>
           Show mesh statistics

Examples:
  sktransfer transfer -src body.obj -key body_smile.obj -dst body_v2.obj -out body_v2_smile.obj
  sktransfer transfer -src a.obj -key a_fat.obj -dst b.obj -out out.obj -res 512x512 -debug-images
  sktransfer info body.obj`)
}

func cmdTransfer(args []string) {
	fs := flag.NewFlagSet("transfer", flag.ExitOnError)
	srcPath := fs.String("src", "", "Source mesh OBJ in its rest pose")
	keyPath := fs.String("key", "", "Source mesh OBJ deformed by the shape key")
	dstPath := fs.String("dst", "", "Destination mesh OBJ")
	outPath := fs.String("out", "", "Output OBJ for the deformed destination")
	res := fs.String("res", "", "Raster resolution as WxH (overrides config)")
	srcUV := fs.Int("src-uv", 0, "Source UV layer index")
	dstUV := fs.Int("dst-uv", 0, "Destination UV layer index")
	debugImages := fs.Bool("debug-images", false, "Save intermediate rasters as PNGs")
	debugDir := fs.String("debug-dir", "", "Directory for debug images (overrides config)")
	configPath := fs.String("config", "", "Config file path")
	logLevel := fs.String("log-level", "", "Log level: debug, info, warn, error (overrides config)")
	logFile := fs.String("log-file", "", "Log file path (overrides config)")
	fs.Parse(args)

	for _, req := range []struct{ name, val string }{
		{"src", *srcPath}, {"key", *keyPath}, {"dst", *dstPath}, {"out", *outPath},
	} {
		if req.val == "" {
			fmt.Fprintf(os.Stderr, "Missing required flag -%s\n", req.name)
			fs.Usage()
			os.Exit(1)
		}
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatal(err)
	}
	if *res != "" {
		w, h, err := parseResolution(*res)
		if err != nil {
			fatal(err)
		}
		cfg.Raster.Width, cfg.Raster.Height = w, h
	}
	if *debugImages {
		cfg.Debug.SaveImages = true
	}
	if *debugDir != "" {
		cfg.Debug.OutputDir = *debugDir
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if *logFile != "" {
		cfg.Logging.LogFile = *logFile
	}

	if err := logger.Init(logger.Options{
		Level:   cfg.Logging.Level,
		File:    cfg.Logging.LogFile,
		Console: true,
	}); err != nil {
		fatal(err)
	}
	defer logger.Sync()

	srcMesh, err := loadMesh(*srcPath)
	if err != nil {
		fatal(err)
	}
	keyOBJ, err := formats.LoadOBJ(*keyPath)
	if err != nil {
		fatal(err)
	}
	if _, err := srcMesh.AddShapeKey(meshName(*keyPath), keyOBJ.Positions); err != nil {
		fatal(fmt.Errorf("%s: %w", *keyPath, err))
	}

	dstOBJ, err := formats.LoadOBJ(*dstPath)
	if err != nil {
		fatal(err)
	}
	dstMesh, err := dstOBJ.Mesh(meshName(*dstPath))
	if err != nil {
		fatal(fmt.Errorf("%s: %w", *dstPath, err))
	}

	sk, err := transfer.Transfer(srcMesh, 1, *srcUV, dstMesh, *dstUV, transfer.Options{
		Width:           cfg.Raster.Width,
		Height:          cfg.Raster.Height,
		SaveDebugImages: cfg.Debug.SaveImages,
		DebugDir:        cfg.Debug.OutputDir,
	})
	if err != nil {
		fatal(err)
	}

	if err := formats.SaveOBJ(*outPath, dstOBJ, sk.Positions); err != nil {
		fatal(err)
	}
	fmt.Printf("Transferred %q onto %s (%d vertices) -> %s\n",
		sk.Name, meshName(*dstPath), dstMesh.NumVertices, *outPath)
}

func cmdInfo(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: sktransfer info <file.obj>")
		os.Exit(1)
	}

	o, err := formats.LoadOBJ(args[0])
	if err != nil {
		fatal(err)
	}

	loops := 0
	for _, f := range o.Faces {
		loops += len(f.Corners)
	}

	fmt.Printf("Mesh:      %s\n", args[0])
	fmt.Printf("Vertices:  %d\n", len(o.Positions))
	fmt.Printf("TexCoords: %d\n", len(o.TexCoords))
	fmt.Printf("Faces:     %d\n", len(o.Faces))
	fmt.Printf("Loops:     %d\n", loops)

	if len(o.TexCoords) > 0 {
		minUV, maxUV := o.TexCoords[0], o.TexCoords[0]
		for _, uv := range o.TexCoords[1:] {
			if uv.X < minUV.X {
				minUV.X = uv.X
			}
			if uv.Y < minUV.Y {
				minUV.Y = uv.Y
			}
			if uv.X > maxUV.X {
				maxUV.X = uv.X
			}
			if uv.Y > maxUV.Y {
				maxUV.Y = uv.Y
			}
		}
		fmt.Printf("UV range:  (%g, %g) - (%g, %g)\n", minUV.X, minUV.Y, maxUV.X, maxUV.Y)
		if minUV.X < 0 || minUV.Y < 0 || maxUV.X > 1 || maxUV.Y > 1 {
			fmt.Println("Warning:   UVs leave the unit square; transfer will reject this mesh")
		}
	}
}

// loadMesh reads an OBJ file and converts it to a mesh named after the
// file.
func loadMesh(path string) (*mesh.Mesh, error) {
	o, err := formats.LoadOBJ(path)
	if err != nil {
		return nil, err
	}
	m, err := o.Mesh(meshName(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// meshName derives a mesh or shape key name from a file path.
func meshName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// parseResolution parses a "WxH" resolution string.
func parseResolution(s string) (w, h int, err error) {
	parts := strings.SplitN(s, "x", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid resolution %q, expected WxH", s)
	}
	w, err = strconv.Atoi(parts[0])
	if err == nil {
		h, err = strconv.Atoi(parts[1])
	}
	if err != nil || w < 1 || h < 1 {
		return 0, 0, fmt.Errorf("invalid resolution %q, expected WxH", s)
	}
	return w, h, nil
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
