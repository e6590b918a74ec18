/*
 * spline.go, part of dunbrack.
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

	"gonum.org/v1/gonum/mat"
)

//splineOperator returns the n x n matrix that takes the values of a periodic
//function on n evenly spaced nodes, h degrees apart, to the second derivatives
//of the periodic cubic spline through them. It solves
//	M[i-1] + 4 M[i] + M[i+1] = 6 (y[i-1] - 2 y[i] + y[i+1]) / h^2
//for every node, with indexes wrapping around.
func splineOperator(n int, h float64) (*mat.Dense, error) {
	A := mat.NewDense(n, n, nil)
	B := mat.NewDense(n, n, nil)
	k := 6 / (h * h)
	for i := 0; i < n; i++ {
		prev := mod(i-1, n)
		next := mod(i+1, n)
		A.Set(i, i, A.At(i, i)+4)
		A.Set(i, prev, A.At(i, prev)+1)
		A.Set(i, next, A.At(i, next)+1)
		B.Set(i, i, B.At(i, i)-2*k)
		B.Set(i, prev, B.At(i, prev)+k)
		B.Set(i, next, B.At(i, next)+k)
	}
	var D mat.Dense
	if err := D.Solve(A, B); err != nil {
		return nil, err
	}
	return &D, nil
}

//applyAxis applies the operator D to every line of in along axis, putting the result in out.
func applyAxis(G Grid, D *mat.Dense, axis int, in, out []float64) {
	n := G.dims[axis]
	stride := G.strides[axis]
	line := mat.NewVecDense(n, nil)
	res := mat.NewVecDense(n, nil)
	for flat := 0; flat < G.size; flat++ {
		if (flat/stride)%n != 0 {
			continue
		}
		for i := 0; i < n; i++ {
			line.SetVec(i, in[flat+i*stride])
		}
		res.MulVec(D, line)
		for i := 0; i < n; i++ {
			out[flat+i*stride] = res.AtVec(i)
		}
	}
}

//secondDerivatives returns, for every derivative index d, the values of vals
//differentiated twice along each axis whose bit is set in d. The result is [d][flat].
func secondDerivatives(G Grid, ops []*mat.Dense, vals []float64) [][]float64 {
	n := G.N()
	ret := make([][]float64, G.Corners())
	tmp := make([]float64, G.size)
	for d := range ret {
		cur := append([]float64(nil), vals...)
		for axis := 0; axis < n; axis++ {
			if !cornerBit(d, axis, n) {
				continue
			}
			applyAxis(G, ops[axis], axis, cur, tmp)
			cur, tmp = tmp, cur
		}
		ret[d] = cur
	}
	return ret
}

func axisOperators(G Grid, widths []float64) ([]*mat.Dense, error) {
	ops := make([]*mat.Dense, G.N())
	for i := range ops {
		var err error
		ops[i], err = splineOperator(G.dims[i], widths[i])
		if err != nil {
			return nil, err
		}
	}
	return ops, nil
}

//trainSplines fills the derivative tensors of the table with -ln(p) and its
//periodic spline second derivatives, one rotamer ID at a time.
func (T *Table) trainSplines(widths []float64) error {
	ops, err := axisOperators(T.grid, widths)
	if err != nil {
		return err
	}
	size := T.grid.Size()
	energy := make([]float64, size)
	for id := RotamerID(1); int(id) <= T.nrot; id++ {
		for flat := 0; flat < size; flat++ {
			energy[flat] = -math.Log(T.prob[T.row(flat, T.SortedRank(flat, id))])
		}
		derivs := secondDerivatives(T.grid, ops, energy)
		for flat := 0; flat < size; flat++ {
			nd := T.NDerivs(flat, T.SortedRank(flat, id))
			for d := range derivs {
				nd[d] = derivs[d][flat]
			}
		}
	}
	return nil
}
