// Command convgen writes a single-Conv ONNX model and the NumPy dump of its
// weights, for use as a fixture by convolution kernel tests.
//
//	convgen -o conv_test.onnx -in-channels 3 -out-channels 16 -kernel 5 -pad 2
//
// Writes conv_test.onnx and conv_test_weights.npy.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/hipdnn-ep/convgen/internal/fixture"
)

// options holds the parsed command line.
type options struct {
	output      string
	batch       int
	inChannels  int
	outChannels int
	height      int
	width       int
	kernel      int
	pad         int
	stride      int
	seed        int64
	verify      bool
	version     bool
}

func registerFlags(fs *flag.FlagSet) *options {
	def := fixture.DefaultConfig()
	o := &options{}
	fs.StringVar(&o.output, "output", def.Output, "Path of the ONNX model. Weights go next to it with an _weights.npy suffix.")
	fs.StringVar(&o.output, "o", def.Output, "Shorthand for -output.")
	fs.IntVar(&o.batch, "batch", def.Batch, "Batch size N of input X.")
	fs.IntVar(&o.inChannels, "in-channels", def.InChannels, "Input channels C.")
	fs.IntVar(&o.outChannels, "out-channels", def.OutChannels, "Output channels M (number of kernels).")
	fs.IntVar(&o.height, "height", def.Height, "Input height H.")
	fs.IntVar(&o.width, "width", def.Width, "Input width W.")
	fs.IntVar(&o.kernel, "kernel", def.KernelH, "Kernel size, used for both spatial axes.")
	fs.IntVar(&o.pad, "pad", def.PadH, "Symmetric padding, used for both spatial axes.")
	fs.IntVar(&o.stride, "stride", def.StrideH, "Stride, used for both spatial axes.")
	fs.Int64Var(&o.seed, "seed", -1, "Seed for the weights. Negative draws a fresh seed every run.")
	fs.BoolVar(&o.verify, "verify", false, "Reload both files after writing and compare them with what was generated.")
	fs.BoolVar(&o.version, "version", false, "Print the version and exit.")
	return o
}

// config maps the flags onto a fixture configuration.
func (o *options) config() fixture.Config {
	cfg := fixture.DefaultConfig()
	cfg.Output = o.output
	cfg.Batch = o.batch
	cfg.InChannels = o.inChannels
	cfg.OutChannels = o.outChannels
	cfg.Height, cfg.Width = o.height, o.width
	cfg.KernelH, cfg.KernelW = o.kernel, o.kernel
	cfg.PadH, cfg.PadW = o.pad, o.pad
	cfg.StrideH, cfg.StrideW = o.stride, o.stride
	if o.seed >= 0 {
		seed := uint64(o.seed)
		cfg.Seed = &seed
	}
	return cfg
}

func main() {
	klog.InitFlags(nil)
	opts := registerFlags(flag.CommandLine)
	flag.Parse()

	if len(flag.Args()) > 0 {
		klog.Errorf("Unexpected arguments %q. See 'convgen -help'.", flag.Args())
		os.Exit(1)
	}
	if err := run(opts, os.Stdout); err != nil {
		klog.Errorf("%+v", err)
		klog.Flush()
		os.Exit(1)
	}
	klog.Flush()
}

func run(opts *options, out io.Writer) error {
	if opts.version {
		_, err := fmt.Fprintf(out, "convgen %s\n", fixture.Version)
		return err
	}

	if err := fixture.Probe(fixture.OpsetVersion, fixture.IRVersion); err != nil {
		return errors.WithMessage(err, "the ONNX layer cannot build a Conv model for this opset, rebuild convgen with Conv schema support")
	}

	res, err := fixture.Generate(opts.config())
	if err != nil {
		return err
	}
	printResult(out, res)

	if opts.verify {
		if err := fixture.Verify(res); err != nil {
			return err
		}
		fmt.Fprintln(out, "Verified model and weights")
	}
	return nil
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Padding(1, 0, 0, 0)
	cellStyle  = lipgloss.NewStyle().PaddingLeft(1).PaddingRight(1)
)

func printResult(out io.Writer, res *fixture.Result) {
	f, a := res.Fixture, res.Artifacts
	fmt.Fprintf(out, "Saved model to %s\n", a.ModelPath)
	fmt.Fprintf(out, "  Input shape: %s\n", f.InputShape)
	fmt.Fprintf(out, "  Weight shape: %s\n", f.Weight.Shape)
	fmt.Fprintf(out, "  Output shape: %s\n", f.OutputShape)
	fmt.Fprintf(out, "Saved weights to %s\n", a.WeightsPath)

	table := lgtable.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("99"))).
		StyleFunc(func(row, col int) lipgloss.Style {
			if col == 0 {
				return cellStyle.Align(lipgloss.Right)
			}
			return cellStyle.Align(lipgloss.Left)
		})
	table.Row("model", a.ModelPath, humanize.Bytes(uint64(a.ModelBytes)))
	table.Row("weights", a.WeightsPath, humanize.Bytes(uint64(a.WeightsBytes)))
	table.Row("parameters", humanize.Comma(int64(len(f.Weight.Values))), "")
	fmt.Fprintln(out, titleStyle.Render("Summary"))
	fmt.Fprintln(out, table.Render())
}
