package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/aukilabs/go-tooling/pkg/cli"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/encoding/json"
	"github.com/svanichkin/quad"
	"github.com/svanichkin/quad/imageio"
	"github.com/svanichkin/quad/pgm"
)

// Set at build.
var version = "v0.1.0"

const errTypeInvalidConfig = "invalid_config"

type config struct {
	Input       string `cli:""        env:"QUAD_INPUT"        help:"Image to compress (pgm, pgm.zst, png, jpeg, gif, bmp, tiff or webp)."`
	Output      string `cli:""        env:"QUAD_OUTPUT"       help:"Where the reconstructed image is written. Defaults to <input>.quad.png, or <input>.quad.pgm for pgm input."`
	MaxDepth    int    `cli:""        env:"QUAD_MAX_DEPTH"    help:"Maximum number of subdivision levels."`
	Threshold   int    `cli:""        env:"QUAD_THRESHOLD"    help:"Largest intensity spread a region may keep without being split."`
	MaxNodes    int    `cli:""        env:"QUAD_MAX_NODES"    help:"Node budget for one build; 0 disables the limit."`
	Fit         string `cli:""        env:"QUAD_FIT"          help:"How non square or non power-of-two images are fitted (pad|scale)."`
	Outline     bool   `cli:""        env:"QUAD_OUTLINE"      help:"Draw the leaf boundaries on the output."`
	OutlineGray int    `cli:",hidden" env:"QUAD_OUTLINE_GRAY" help:"Intensity used to draw leaf boundaries."`
	Stats       bool   `cli:""        env:"QUAD_STATS"        help:"Print tree statistics as JSON on stdout."`
	MetricsFile string `cli:""        env:"QUAD_METRICS_FILE" help:"Write Prometheus metrics to this file in text format."`
	LogLevel    string `cli:""        env:"QUAD_LOG_LEVEL"    help:"Log level (debug|info|warning|error)."`
	LogIndent   bool   `cli:""        env:"QUAD_LOG_INDENT"   help:"Indent logs."`
	Version     bool   `cli:""        env:"-"                 help:"Show version."`
	Help        bool   `cli:""        env:"-"                 help:"Show help."`
}

func main() {
	conf := config{
		MaxDepth:  16,
		Threshold: 10,
		Fit:       string(imageio.FitPad),
		LogLevel:  logs.InfoLevel.String(),
	}

	ctx, cancel := cli.ContextWithSignals(context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer cancel()

	cli.Register().
		Help("Compresses a grayscale image with a quadtree and writes the reconstruction.").
		Options(&conf)
	cli.Load()

	if conf.Version {
		fmt.Println(version)
		os.Exit(0)
	}

	logs.SetLevel(logs.ParseLevel(conf.LogLevel))
	logs.Encoder = json.Marshal
	if conf.LogIndent {
		logs.Encoder = func(v any) ([]byte, error) {
			return json.MarshalIndent(v, "", "  ")
		}
	}
	errors.Encoder = json.Marshal

	if err := validateConfig(conf); err != nil {
		logs.Fatal(err)
	}
	if conf.Output == "" {
		conf.Output = defaultOutput(conf.Input)
	}

	runID := uuid.NewString()

	stats, err := run(ctx, conf)
	if err != nil {
		logs.Fatal(errors.New("compression failed").
			WithTag("run_id", runID).
			WithTag("input", conf.Input).
			Wrap(err))
	}

	logs.WithTag("run_id", runID).
		WithTag("input", conf.Input).
		WithTag("output", conf.Output).
		WithTag("nodes", stats.Nodes).
		WithTag("leaves", stats.Leaves).
		WithTag("depth", stats.Depth).
		WithTag("ratio", stats.Ratio).
		Info("image compressed")

	if conf.Stats {
		b, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			logs.Fatal(errors.New("encoding stats failed").Wrap(err))
		}
		fmt.Println(string(b))
	}

	if conf.MetricsFile != "" {
		if err := prometheus.WriteToTextfile(conf.MetricsFile, prometheus.DefaultGatherer); err != nil {
			logs.Warn(errors.New("writing metrics file failed").
				WithTag("path", conf.MetricsFile).
				Wrap(err))
		}
	}
}

func validateConfig(conf config) error {
	if conf.Input == "" {
		return errors.New("input is not set").
			WithType(errTypeInvalidConfig)
	}
	if conf.MaxDepth < 0 {
		return errors.New("max depth must not be negative").
			WithType(errTypeInvalidConfig).
			WithTag("max_depth", conf.MaxDepth)
	}
	if conf.Threshold < 0 {
		return errors.New("threshold must not be negative").
			WithType(errTypeInvalidConfig).
			WithTag("threshold", conf.Threshold)
	}
	if conf.MaxNodes < 0 {
		return errors.New("max nodes must not be negative").
			WithType(errTypeInvalidConfig).
			WithTag("max_nodes", conf.MaxNodes)
	}
	if _, err := imageio.ParseFitMode(conf.Fit); err != nil {
		return errors.New("invalid fit mode").
			WithType(errTypeInvalidConfig).
			Wrap(err)
	}
	return nil
}

// defaultOutput derives the output path from the input path.
func defaultOutput(input string) string {
	if pgm.IsPGMPath(input) {
		base := input
		if strings.HasSuffix(strings.ToLower(base), pgm.ZstdExt) {
			base = base[:len(base)-len(pgm.ZstdExt)]
		}
		return strings.TrimSuffix(base, filepath.Ext(base)) + ".quad.pgm"
	}
	return strings.TrimSuffix(input, filepath.Ext(input)) + ".quad.png"
}

// run loads the input, builds its quadtree, renders the reconstruction and
// saves it.
func run(ctx context.Context, conf config) (quad.Stats, error) {
	src, maxVal, err := imageio.Load(conf.Input)
	if err != nil {
		return quad.Stats{}, err
	}

	mode, err := imageio.ParseFitMode(conf.Fit)
	if err != nil {
		return quad.Stats{}, err
	}
	fitted, err := imageio.Fit(src, mode)
	if err != nil {
		return quad.Stats{}, err
	}

	b := quad.Builder{
		MaxDepth:  conf.MaxDepth,
		Threshold: conf.Threshold,
	}
	if conf.MaxNodes > 0 {
		b.Allocator = quad.NewPool(conf.MaxNodes)
	}

	root, err := b.BuildBuffer(fitted)
	if err != nil {
		return quad.Stats{}, err
	}
	defer b.Destroy(root)

	if err := ctx.Err(); err != nil {
		return quad.Stats{}, err
	}

	out := quad.NewGray(fitted.Width(), fitted.Height())
	quad.Render(out, root)
	if conf.Outline {
		quad.RenderOutline(out, root, conf.OutlineGray)
	}

	restored, err := imageio.Restore(out, src.Width(), src.Height(), mode)
	if err != nil {
		return quad.Stats{}, err
	}
	if err := imageio.Save(conf.Output, restored, maxVal); err != nil {
		return quad.Stats{}, err
	}

	return quad.Collect(root), nil
}
