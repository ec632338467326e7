package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/igorwolfs/bldc-pysim/internal/bldc"
	"github.com/igorwolfs/bldc-pysim/internal/storage"
)

// Figure is a column of stacked time plots sharing the time axis.
type Figure struct {
	Name    string
	Title   string
	Columns []string
	Units   []string
}

var Figures = []Figure{
	{
		Name:    "state",
		Title:   "State",
		Columns: bldc.StateLabels,
		Units:   []string{"rad", "rad/s", "A", "A", "A"},
	},
	{
		Name:    "switches",
		Title:   "Switch commands",
		Columns: bldc.SwitchLabels,
	},
	{
		Name:    "debug",
		Title:   "Back-EMF and phase voltages",
		Columns: bldc.DebugLabels,
		Units:   []string{"V", "V", "V", "V", "V", "V", "V"},
	},
}

const (
	figureWidth = 10.24 * vg.Inch
	rowHeight   = 1.2 * vg.Inch
)

// SaveFigure renders fig from series. The output format follows the file
// extension (png, svg, pdf, ...).
func SaveFigure(series *storage.Series, fig Figure, path string) error {
	format := strings.TrimPrefix(filepath.Ext(path), ".")
	if format == "" {
		return fmt.Errorf("export: %s has no extension", path)
	}

	rows := make([][]*plot.Plot, len(fig.Columns))
	for i, name := range fig.Columns {
		ys, err := series.Column(name)
		if err != nil {
			return err
		}
		p, err := linePlot(series.Times, ys, i)
		if err != nil {
			return err
		}
		p.Y.Label.Text = name
		if i < len(fig.Units) && fig.Units[i] != "" {
			p.Y.Label.Text += " (" + fig.Units[i] + ")"
		}
		if i == 0 {
			p.Title.Text = fig.Title
		}
		if i == len(fig.Columns)-1 {
			p.X.Label.Text = "time (s)"
		}
		rows[i] = []*plot.Plot{p}
	}

	c, err := draw.NewFormattedCanvas(figureWidth, rowHeight*vg.Length(len(rows)), format)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}

	tiles := draw.Tiles{
		Rows:      len(rows),
		Cols:      1,
		PadX:      vg.Millimeter,
		PadY:      vg.Millimeter,
		PadTop:    vg.Points(4),
		PadBottom: vg.Points(4),
		PadLeft:   vg.Points(4),
		PadRight:  vg.Points(8),
	}
	canvases := plot.Align(rows, tiles, draw.New(c))
	for i := range rows {
		rows[i][0].Draw(canvases[i][0])
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cannot create directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := c.WriteTo(f); err != nil {
		return fmt.Errorf("cannot write %s: %w", format, err)
	}
	return f.Close()
}

// SaveRun writes every figure of [Figures] into dir as <name>.<format> and
// returns the paths written.
func SaveRun(series *storage.Series, dir, format string) ([]string, error) {
	paths := make([]string, 0, len(Figures))
	for _, fig := range Figures {
		path := filepath.Join(dir, fig.Name+"."+format)
		if err := SaveFigure(series, fig, path); err != nil {
			return paths, fmt.Errorf("%s: %w", fig.Name, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func linePlot(xs, ys []float64, colour int) (*plot.Plot, error) {
	if len(xs) != len(ys) || len(xs) == 0 {
		return nil, fmt.Errorf("plot data invalid")
	}
	p := plot.New()

	pts := make(plotter.XYs, len(xs))
	for i := range xs {
		pts[i].X = xs[i]
		pts[i].Y = ys[i]
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, err
	}
	line.LineStyle.Width = vg.Points(1)
	line.LineStyle.Color = plotutil.Color(colour)
	p.Add(line)
	p.Add(plotter.NewGrid())
	return p, nil
}
