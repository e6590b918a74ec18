/*
 * binning.go, part of dunbrack.
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

package dunbrack

import (
	"math"
)

//PeriodicRange returns the angle a, with period period, in [-period/2, period/2).
func PeriodicRange(a, period float64) float64 {
	half := period / 2
	r := math.Mod(a+half, period)
	if r < 0 {
		r += period
	}
	return r - half
}

//NonNegativePrincipal returns the angle a in [0, 360).
func NonNegativePrincipal(a float64) float64 {
	r := math.Mod(a, 360)
	if r < 0 {
		r += 360
	}
	return r
}

//mod returns a modulo b, always in [0,b).
func mod(a, b int) int {
	r := a % b
	if r < 0 {
		r += b
	}
	return r
}

//BinCoordinate is the position of a backbone conformation in the bin grid.
//Bins are numbered from 1.
type BinCoordinate struct {
	Bin   []int
	Next  []int
	Alpha []float64 //fraction of the way from Bin to Next, in [0,1)
}

//NewBinCoordinate returns a zeroed coordinate for n axes.
func NewBinCoordinate(n int) BinCoordinate {
	return BinCoordinate{Bin: make([]int, n), Next: make([]int, n), Alpha: make([]float64, n)}
}

//binAngle puts the angle in one of nbins bins of width step, starting at start.
func binAngle(start, step float64, nbins int, angle float64) (bin, next int, alpha float64) {
	pos := (angle - start) / step
	prev := math.Floor(pos)
	bin = 1 + mod(int(prev), nbins)
	next = mod(bin, nbins) + 1
	alpha = pos - prev
	return bin, next, alpha
}

//Binner maps backbone dihedrals to bin coordinates.
type Binner struct {
	axes   []Axis
	widths []float64
}

//NewBinner returns a Binner for the given axes.
func NewBinner(axes []Axis) *Binner {
	B := &Binner{axes: axes, widths: make([]float64, len(axes))}
	for i, v := range axes {
		B.widths[i] = v.BinWidth()
	}
	return B
}

//N returns the number of axes
func (B *Binner) N() int { return len(B.axes) }

//Dims returns the number of bins in each axis.
func (B *Binner) Dims() []int {
	ret := make([]int, len(B.axes))
	for i, v := range B.axes {
		ret[i] = v.Bins
	}
	return ret
}

//Widths returns the bin width of each axis. The slice must not be modified.
func (B *Binner) Widths() []float64 { return B.widths }

//Bin puts the dihedrals bbs in the grid. The result is stored in dest
//if given. context is included in the error, if any.
func (B *Binner) Bin(bbs []float64, context string, dest ...BinCoordinate) (BinCoordinate, error) {
	var c BinCoordinate
	if len(dest) > 0 && len(dest[0].Bin) == len(B.axes) {
		c = dest[0]
	} else {
		c = NewBinCoordinate(len(B.axes))
	}
	for i, ax := range B.axes {
		ang := bbs[i]
		if math.IsNaN(ang) || math.IsInf(ang, 0) {
			return c, &GeometryError{Axis: i + 1, Angle: ang, Residue: context, deco: []string{"Bin"}}
		}
		if len(ax.Segments) == 0 {
			c.Bin[i], c.Next[i], c.Alpha[i] = binAngle(-180, B.widths[i], ax.Bins, PeriodicRange(ang, 360))
		} else {
			c.Bin[i], c.Next[i], c.Alpha[i] = segmentedBin(ax, B.widths[i], PeriodicRange(ang, 360))
		}
		if c.Bin[i] < 1 || c.Bin[i] > ax.Bins || c.Next[i] < 1 || c.Next[i] > ax.Bins {
			return c, &GeometryError{Axis: i + 1, Angle: ang, Bin: c.Bin[i], Next: c.Next[i], Residue: context, deco: []string{"Bin"}}
		}
	}
	return c, nil
}

//segmentedBin bins an angle in [-180,180) on an axis with breakpoints.
//A return of 0,0 means that no segment covers the angle.
func segmentedBin(ax Axis, width float64, a float64) (int, int, float64) {
	for _, s := range ax.Segments {
		if a < s.Lo || a >= s.Hi {
			continue
		}
		ang := a
		if s.NonNegative {
			ang = NonNegativePrincipal(a)
		}
		if s.Clamp != nil {
			ang = *s.Clamp
		}
		bin, next, alpha := binAngle(s.Start, width, ax.Bins, ang)
		bin = mod(bin+s.Offset-1, ax.Bins) + 1
		next = mod(next+s.Offset-1, ax.Bins) + 1
		return bin, next, alpha
	}
	return 0, 0, 0
}
