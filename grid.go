/*
 * grid.go, part of dunbrack.
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

import "fmt"

//Grid is the mixed-radix encoding of N-dimensional bin coordinates into
//a flat index. Axis 1 varies slowest. Every table addressing in the package goes
//through a Grid, in memory and on disk.
type Grid struct {
	dims    []int
	strides []int
	size    int
}

//NewGrid returns a grid with the given number of bins per axis.
func NewGrid(dims ...int) Grid {
	G := Grid{dims: append([]int(nil), dims...), strides: make([]int, len(dims))}
	G.size = 1
	for i := len(dims) - 1; i >= 0; i-- {
		G.strides[i] = G.size
		G.size *= dims[i]
	}
	return G
}

//N returns the number of axes.
func (G Grid) N() int { return len(G.dims) }

//Size returns the total number of bins.
func (G Grid) Size() int { return G.size }

//Dims returns a copy of the number of bins per axis.
func (G Grid) Dims() []int { return append([]int(nil), G.dims...) }

//Corners returns the number of corners of a grid cell, 2^N.
func (G Grid) Corners() int { return 1 << uint(len(G.dims)) }

//Check checks that the 1-based bins are within range.
//if pan is given and true, it panics if any is out of range,
//otherwise, it returns an error.
func (G Grid) Check(bins []int, pan ...bool) error {
	var err error
	if len(bins) != len(G.dims) {
		err = fmt.Errorf("dunbrack/Grid: %d bins given for %d axes", len(bins), len(G.dims))
	} else {
		for i, v := range bins {
			if v < 1 || v > G.dims[i] {
				err = fmt.Errorf("dunbrack/Grid: bin %d out of range in axis %d", v, i+1)
				break
			}
		}
	}
	if err != nil && len(pan) > 0 && pan[0] {
		panic(err.Error())
	}
	return err
}

//Flatten returns the flat index for the 1-based bins. It panics if
//a bin is out of range.
func (G Grid) Flatten(bins []int) int {
	G.Check(bins, true)
	flat := 0
	for i, v := range bins {
		flat += (v - 1) * G.strides[i]
	}
	return flat
}

//Unflatten returns the 1-based bins for the flat index. The result is put in dest, if given.
func (G Grid) Unflatten(flat int, dest ...[]int) []int {
	var ret []int
	if len(dest) > 0 && len(dest[0]) == len(G.dims) {
		ret = dest[0]
	} else {
		ret = make([]int, len(G.dims))
	}
	for i := range G.dims {
		ret[i] = flat/G.strides[i] + 1
		flat %= G.strides[i]
	}
	return ret
}

//cornerBit returns true if corner (or derivative) k uses the "next" bin
//(or the second derivative) on axis, for n axes.
func cornerBit(k, axis, n int) bool {
	return k&(1<<uint(n-1-axis)) != 0
}

//Corner returns the flat index of corner k of the cell at c. Corner k takes
//the next bin on every axis whose bit is set, axis 1 being the most significant bit.
func (G Grid) Corner(k int, c BinCoordinate) int {
	n := len(G.dims)
	flat := 0
	for i := 0; i < n; i++ {
		b := c.Bin[i]
		if cornerBit(k, i, n) {
			b = c.Next[i]
		}
		flat += (b - 1) * G.strides[i]
	}
	return flat
}

//Step returns the flat index of the bin delta steps away from flat along
//axis (0-based), wrapping around.
func (G Grid) Step(flat, axis, delta int) int {
	n := G.dims[axis]
	s := G.strides[axis]
	cur := (flat / s) % n
	return flat + (mod(cur+delta, n)-cur)*s
}

//Each calls f with the 1-based bins of every bin in the grid, in flat order.
//The slice given to f is reused between calls.
func (G Grid) Each(f func(flat int, bins []int)) {
	bins := make([]int, len(G.dims))
	for flat := 0; flat < G.size; flat++ {
		f(flat, G.Unflatten(flat, bins))
	}
}
