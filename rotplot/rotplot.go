/*
 * rotplot.go, part of dunbrack.
 *
 * Copyright 2024 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

//Package rotplot draws the backbone dependence of rotamer libraries.
package rotplot

import (
	"fmt"
	"image/color"
	"math"

	dunbrack "github.com/MoritzErtelt/rosetta-sub000"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

//Quantity is what a Surface shows.
type Quantity int

const (
	Probability Quantity = iota
	Energy               //-ln(p)
	Entropy              //the entropy correction of the library
)

func (q Quantity) String() string {
	switch q {
	case Probability:
		return "probability"
	case Energy:
		return "-ln(p)"
	case Entropy:
		return "entropy"
	}
	return "unknown"
}

//Surface is a quantity of one rotamer sampled on a square grid over two backbone axes.
//It implements plotter.GridXYZ.
type Surface struct {
	n     int
	step  float64
	z     []float64 //row-major, rows along the y axis
	XAxis int       //1-based
	YAxis int
}

//NewSurface samples what for rotamer id of L at n x n points over axes xaxis and yaxis (1-based).
//The other axes take their values from fixed, which needs one element per axis of the library.
func NewSurface(L *dunbrack.Library, id dunbrack.RotamerID, what Quantity, xaxis, yaxis int, fixed []float64, n int) (*Surface, error) {
	N := L.N()
	if xaxis < 1 || xaxis > N || yaxis < 1 || yaxis > N || xaxis == yaxis {
		return nil, fmt.Errorf("dunbrack/rotplot: bad axes %d and %d for a library with %d", xaxis, yaxis, N)
	}
	if len(fixed) < N {
		return nil, fmt.Errorf("dunbrack/rotplot: %d fixed angles for %d axes", len(fixed), N)
	}
	if n < 2 {
		return nil, fmt.Errorf("dunbrack/rotplot: resolution %d too small", n)
	}
	S := &Surface{n: n, step: 360 / float64(n), z: make([]float64, n*n), XAxis: xaxis, YAxis: yaxis}
	bb := make(dunbrack.Angles, N)
	copy(bb, fixed)
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			bb[xaxis-1] = S.X(c)
			bb[yaxis-1] = S.Y(r)
			var v float64
			switch what {
			case Entropy:
				s, _, err := L.Entropy(bb)
				if err != nil {
					return nil, err
				}
				v = s
			default:
				I, err := L.Interpolate(bb, id)
				if err != nil {
					return nil, err
				}
				v = I.Prob
				if what == Energy {
					v = I.NegLnProb
				}
			}
			S.z[r*n+c] = v
		}
	}
	return S, nil
}

func (S *Surface) Dims() (c, r int)   { return S.n, S.n }
func (S *Surface) Z(c, r int) float64 { return S.z[r*S.n+c] }
func (S *Surface) X(c int) float64    { return -180 + (float64(c)+0.5)*S.step }
func (S *Surface) Y(r int) float64    { return -180 + (float64(r)+0.5)*S.step }

//Range returns the smallest and largest values in the surface.
func (S *Surface) Range() (min, max float64) {
	min, max = math.Inf(1), math.Inf(-1)
	for _, v := range S.z {
		min = math.Min(min, v)
		max = math.Max(max, v)
	}
	return min, max
}

func basicRotPlot(title, xlabel, ylabel string) *plot.Plot {
	p := plot.New()
	p.Title.Padding = 3 * vg.Millimeter
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.Y.Label.Text = ylabel
	//Constant axes
	p.X.Min = -180
	p.X.Max = 180
	p.Y.Min = -180
	p.Y.Max = 180
	return p
}

func axisName(L *dunbrack.Library, axis int) string {
	axes := L.Config().Axes()
	if axes[axis-1].Name != "" {
		return axes[axis-1].Name
	}
	return fmt.Sprintf("bb%d", axis)
}

//RotamerHeatMap saves a heat map of S to filename. The format is taken from the extension.
//Points in overlay (pairs of x,y angles) are drawn on top, and those with indexes
//in tag (maximum 4) are highlighted.
func RotamerHeatMap(L *dunbrack.Library, S *Surface, title, filename string, overlay [][]float64, tag []int) error {
	p := basicRotPlot(title, axisName(L, S.XAxis), axisName(L, S.YAxis))
	h := plotter.NewHeatMap(S, palette.Heat(12, 1))
	p.Add(h)
	p.Add(plotter.NewGrid())
	temp := make(plotter.XYs, 1)
	var tagged int //How many points have been tagged?
	for key, val := range overlay {
		if len(val) < 2 {
			return fmt.Errorf("dunbrack/rotplot: overlay point %d has %d coordinates", key, len(val))
		}
		temp[0].X = dunbrack.PeriodicRange(val[0], 360)
		temp[0].Y = dunbrack.PeriodicRange(val[1], 360)
		s, err := plotter.NewScatter(temp)
		if err != nil {
			return err
		}
		r, g, b := colors(key, len(overlay))
		if isInInt(tag, key) {
			//the error only means that we ran out of shapes, the point is drawn anyway.
			s.GlyphStyle.Shape, _ = getShape(tagged)
			tagged++
		}
		s.GlyphStyle.Color = color.RGBA{R: r, B: b, G: g, A: 255}
		p.Add(s)
	}
	return p.Save(5*vg.Inch, 5*vg.Inch, filename)
}

//takes hue (0-360), v and s (0-1), returns r,g,b (0-255)
func iHVS2RGB(h, v, s float64) (uint8, uint8, uint8) {
	maxcolor := 255.0
	conversion := maxcolor * v
	if s == 0.0 {
		return uint8(conversion), uint8(conversion), uint8(conversion)
	}
	h = h / 60
	i := math.Floor(h)
	f := h - i
	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))
	var r, g, b float64
	switch int(i) {
	case 0:
		r, g, b = v, t, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, t
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = t, p, v
	default: //case 5
		r, g, b = v, p, q
	}
	return uint8(r * conversion), uint8(g * conversion), uint8(b * conversion)
}

//colors spreads steps colors over the hues, skipping the yellows of the heat palette.
func colors(key, steps int) (r, g, b uint8) {
	norm := 260.0 / float64(steps)
	hp := float64(key)*norm + 20.0
	h := hp + 20.0
	if hp < 55 {
		h = hp - 20.0
	}
	return iHVS2RGB(h, 1, 1)
}

func getShape(tagged int) (draw.GlyphDrawer, error) {
	switch tagged {
	case 0:
		return draw.PyramidGlyph{}, nil
	case 1:
		return draw.CircleGlyph{}, nil
	case 2:
		return draw.SquareGlyph{}, nil
	case 3:
		return draw.CrossGlyph{}, nil
	default:
		return draw.RingGlyph{}, fmt.Errorf("Maximun number of taggable points is 4")
	}
}

//isInInt returns true if test is in container, false otherwise.
func isInInt(container []int, test int) bool {
	for _, i := range container {
		if test == i {
			return true
		}
	}
	return false
}
