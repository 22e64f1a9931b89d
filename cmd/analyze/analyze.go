package analyze

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/cheggaaa/pb/v3"
	"github.com/spf13/cobra"

	"github.com/swimform/swimform-go/internal/analysis"
	"github.com/swimform/swimform-go/internal/config"
	"github.com/swimform/swimform-go/internal/pipeline"
)

const progressTemplate = `{{ string . "prefix" }} {{counters . "%s/%s" "%s frames"}} {{bar . }} {{percent . "%.01f%%" "?"}} {{etime . "%s elapsed"}}`

type options struct {
	input      string
	output     string
	annotated  string
	records    bool
	noProgress bool
}

// Command creates the analyze command.
func Command(ctx *config.Context) *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "analyze [input.rgb]",
		Short: "Analyze a raw rgb24 video stream",
		Long: `Analyze a raw rgb24 video stream read from a file or stdin. Decode video
with ffmpeg, for example:

  ffmpeg -i swim.mp4 -f rawvideo -pix_fmt rgb24 - | swimform analyze --width 1280 --height 720 --fps 30`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.input = args[0]
			}
			return run(cmd, ctx, opts)
		},
	}

	if err := setupFlags(cmd, ctx, opts); err != nil {
		panic(err)
	}
	return cmd
}

// setupFlags configures flags specific to the analyze command.
func setupFlags(cmd *cobra.Command, ctx *config.Context, opts *options) error {
	flags := cmd.Flags()
	flags.StringVarP(&opts.output, "output", "o", "-", "Write the JSON report to this file, - for stdout")
	flags.StringVar(&opts.annotated, "annotated-output", "", "Write annotated rgb24 frames to this file, - for stdout")
	flags.BoolVar(&opts.records, "records", false, "Include per-frame records in the JSON report")
	flags.BoolVar(&opts.noProgress, "no-progress", false, "Disable the progress bar")

	flags.Int("width", 0, "Frame width in pixels")
	flags.Int("height", 0, "Frame height in pixels")
	flags.Float64("fps", 0, "Frame rate of the stream")
	flags.String("view", "", "Force the camera view: side, front or top")
	flags.String("water", "", "Force the water position: underwater, above_water or mixed")
	flags.String("replay", "", "Read landmarks from a JSON lines file instead of the pose service")
	flags.Bool("annotate", false, "Draw the pose overlay on retained frames")

	bindings := map[string]string{
		"width":    "analysis.video.width",
		"height":   "analysis.video.height",
		"fps":      "analysis.video.fps",
		"view":     "analysis.view",
		"water":    "analysis.water",
		"replay":   "pose.replay_file",
		"annotate": "analysis.annotate",
	}
	for name, key := range bindings {
		if err := ctx.Viper.BindPFlag(key, flags.Lookup(name)); err != nil {
			return fmt.Errorf("error binding flag %s: %w", name, err)
		}
	}
	return nil
}

func run(cmd *cobra.Command, ctx *config.Context, opts *options) error {
	if opts.annotated == "-" && opts.output == "-" {
		return fmt.Errorf("--annotated-output and --output cannot both use stdout")
	}

	input, total, closeInput, err := openInput(opts.input, ctx)
	if err != nil {
		return err
	}
	defer closeInput()

	annotated, closeAnnotated, err := openOutput(opts.annotated)
	if err != nil {
		return err
	}
	defer closeAnnotated()

	var bar *pb.ProgressBar
	if !opts.noProgress {
		bar = pb.ProgressBarTemplate(progressTemplate).New(total)
		bar.SetWriter(cmd.ErrOrStderr())
		bar.Set("prefix", "analyzing")
		bar.Start()
	}

	pipelineOpts := pipeline.Options{
		Input:  input,
		Source: sourceName(opts.input),
		OnFrame: func(analysis.FrameResult) {
			if bar != nil {
				bar.Increment()
			}
		},
	}
	if annotated != nil {
		pipelineOpts.AnnotatedOutput = annotated
	}

	res, err := pipeline.Run(cmd.Context(), ctx, pipelineOpts)
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return err
	}

	if !opts.records {
		res.Report.Records = nil
	}
	out, closeOut, err := openOutput(opts.output)
	if err != nil {
		return err
	}
	defer closeOut()
	if out == nil {
		out = cmd.OutOrStdout()
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// openInput opens path, or stdin for "" and "-". total is the number of
// whole frames in a regular file, zero when unknown.
func openInput(path string, ctx *config.Context) (r io.Reader, total int, closeFn func(), err error) {
	if path == "" || path == "-" {
		return os.Stdin, 0, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, nil, fmt.Errorf("open input: %w", err)
	}
	if info, err := f.Stat(); err == nil && info.Mode().IsRegular() {
		v := ctx.Settings.Analysis.Video
		if frameSize := v.Width * v.Height * 3; frameSize > 0 {
			total = int(info.Size() / int64(frameSize))
		}
	}
	return f, total, func() { _ = f.Close() }, nil
}

// openOutput creates path. It returns a nil writer for "" and stdout for "-".
func openOutput(path string) (io.Writer, func(), error) {
	switch path {
	case "":
		return nil, func() {}, nil
	case "-":
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

func sourceName(path string) string {
	if path == "" || path == "-" {
		return "stdin"
	}
	return path
}
