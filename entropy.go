/*
 * entropy.go, part of dunbrack.
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

//entropyTable computes, for every bin, S = sum(P * ln p) over the rotamers of the bin,
//with P the probabilities normalized within the bin, and the finite-difference
//estimates of its second derivatives, laid out like the derivative tensors of the table.
func entropyTable(T *Table, widths []float64) []float64 {
	G := T.grid
	n := G.N()
	nd := G.Corners()
	size := G.Size()
	ret := make([]float64, size*nd)
	for flat := 0; flat < size; flat++ {
		var psum float64
		for rank := 1; rank <= T.nrot; rank++ {
			psum += T.Prob(flat, rank)
		}
		var S float64
		for rank := 1; rank <= T.nrot; rank++ {
			S += -T.NDerivs(flat, rank)[0] * T.Prob(flat, rank) / psum
		}
		ret[flat*nd] = S
	}
	for flat := 0; flat < size; flat++ {
		for d := 1; d < nd; d++ {
			v := 1.0
			for a := 0; a < n; a++ {
				if !cornerBit(d, a, n) {
					continue
				}
				next := G.Step(flat, a, 1)
				prev := G.Step(flat, a, -1)
				v *= (ret[next*nd] - ret[prev*nd]) / (4 * widths[a] * widths[a])
			}
			ret[flat*nd+d] = v
		}
	}
	return ret
}

//Entropy returns the entropy correction at the backbone of res and its derivatives.
//It returns 0 and nil if the library has no entropy correction.
func (L *Library) Entropy(res Backbone) (float64, []float64, error) {
	if L.entropy == nil {
		return 0, nil, nil
	}
	c, missing, err := L.locate(res)
	if err != nil {
		return 0, nil, errDecorate(err, "Entropy")
	}
	nc := L.table.grid.Corners()
	nds := make([][]float64, nc)
	for k := range nds {
		f := L.table.grid.Corner(k, c)
		nds[k] = L.entropy[f*nc : (f+1)*nc]
	}
	d := make([]float64, L.N())
	S := polycubic(nds, c.Alpha, L.widths, d)
	for i, m := range missing {
		if m {
			d[i] = 0
		}
	}
	if res.Mirrored() {
		for i := range d {
			d[i] = -d[i]
		}
	}
	return S, d, nil
}
