/*
 * interp.go, part of dunbrack.
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

//polylinear interpolates vals, one per cell corner, at alpha. The derivatives
//with respect to each axis, in units of the bin widths given, are put in dval.
//If angles is true, the values are periodic angles: every corner is first
//moved to within 180 degrees of corner 0, and the result is wrapped.
func polylinear(vals, alpha, width []float64, angles bool, dval []float64) float64 {
	n := len(alpha)
	for i := range dval {
		dval[i] = 0
	}
	ref := vals[0]
	var val float64
	for c := range vals {
		v := vals[c]
		if angles {
			v = ref + PeriodicRange(v-ref, 360)
		}
		w := 1.0
		for a := 0; a < n; a++ {
			if cornerBit(c, a, n) {
				w *= alpha[a]
			} else {
				w *= 1 - alpha[a]
			}
		}
		val += w * v
		for a := 0; a < n; a++ {
			dw := 1.0
			for b := 0; b < n; b++ {
				switch {
				case b == a && cornerBit(c, b, n):
				case b == a:
					dw = -dw
				case cornerBit(c, b, n):
					dw *= alpha[b]
				default:
					dw *= 1 - alpha[b]
				}
			}
			dval[a] += dw * v / width[a]
		}
	}
	if angles {
		val = PeriodicRange(val, 360)
	}
	return val
}

//cubicWeights returns, for one axis, the weights of the value (index 0,2) and
//the second derivative (1,3) at the lower (0,1) and upper (2,3) nodes of a cubic
//spline segment, and their derivatives with respect to the angle.
func cubicWeights(alpha, h float64) (w, dw [4]float64) {
	x := alpha
	y := 1 - alpha
	h6 := h * h / 6
	w = [4]float64{y, (y*y*y - y) * h6, x, (x*x*x - x) * h6}
	dw = [4]float64{-1 / h, -(3*y*y - 1) * h / 6, 1 / h, (3*x*x - 1) * h / 6}
	return w, dw
}

//polycubic interpolates a function from its values and second derivatives at
//the cell corners, with a tensor product of cubic splines. nd[c][d] holds,
//for corner c, the value (d=0) or the derivative with respect to every axis
//whose bit is set in d. The derivatives of the result are put in dval.
func polycubic(nd [][]float64, alpha, width []float64, dval []float64) float64 {
	n := len(alpha)
	w := make([][4]float64, n)
	dw := make([][4]float64, n)
	for a := 0; a < n; a++ {
		w[a], dw[a] = cubicWeights(alpha[a], width[a])
	}
	for i := range dval {
		dval[i] = 0
	}
	var val float64
	idx := make([]int, n)
	for c := range nd {
		for d, v := range nd[c] {
			if v == 0 {
				continue
			}
			for a := 0; a < n; a++ {
				idx[a] = 0
				if cornerBit(c, a, n) {
					idx[a] = 2
				}
				if cornerBit(d, a, n) {
					idx[a]++
				}
			}
			p := v
			for a := 0; a < n; a++ {
				p *= w[a][idx[a]]
			}
			val += p
			for k := 0; k < n; k++ {
				p := v
				for a := 0; a < n; a++ {
					if a == k {
						p *= dw[a][idx[a]]
					} else {
						p *= w[a][idx[a]]
					}
				}
				dval[k] += p
			}
		}
	}
	return val
}

//Interpolated is a rotamer interpolated at some backbone conformation.
//Derivatives are per degree, and DChiMean and DChiSD are [chi][axis].
type Interpolated struct {
	RotNo         RotamerID
	Prob          float64 //exp(-NegLnProb)
	NegLnProb     float64
	DNegLnProb    []float64
	BilinearProb  float64
	DBilinearProb []float64
	ChiMean       []float64
	ChiSD         []float64
	DChiMean      [][]float64
	DChiSD        [][]float64
	Entropy       float64
	DEntropy      []float64
}

func newInterpolated(n, nchi int) Interpolated {
	I := Interpolated{
		DNegLnProb:    make([]float64, n),
		DBilinearProb: make([]float64, n),
		ChiMean:       make([]float64, nchi),
		ChiSD:         make([]float64, nchi),
		DChiMean:      make([][]float64, nchi),
		DChiSD:        make([][]float64, nchi),
		DEntropy:      make([]float64, n),
	}
	for i := 0; i < nchi; i++ {
		I.DChiMean[i] = make([]float64, n)
		I.DChiSD[i] = make([]float64, n)
	}
	return I
}

//interpolate interpolates rotamer id at c. With the nearest-centroid classification,
//each corner uses the rotamer closest to chi (if useChi) or to the chi means of id in the
//bin of c.
func (L *Library) interpolate(id RotamerID, c BinCoordinate, chi []float64, useChi bool) Interpolated {
	T := L.table
	G := T.grid
	n := G.N()
	nc := G.Corners()
	nchi := T.nchi
	out := newInterpolated(n, nchi)
	out.RotNo = id
	here := G.Flatten(c.Bin)
	flats := make([]int, nc)
	ranks := make([]int, nc)
	for k := 0; k < nc; k++ {
		flats[k] = G.Corner(k, c)
		cid := id
		if L.voronoi {
			cid = L.closestInBin(here, flats[k], id, chi, useChi)
		}
		ranks[k] = T.SortedRank(flats[k], cid)
	}
	vals := make([]float64, nc)
	nds := make([][]float64, nc)
	for k := 0; k < nc; k++ {
		p := T.Prob(flats[k], ranks[k])
		if p <= ProbabilityFloor {
			p = ProbabilityFloor
		}
		vals[k] = p
		nds[k] = T.NDerivs(flats[k], ranks[k])
	}
	out.BilinearProb = polylinear(vals, c.Alpha, L.widths, false, out.DBilinearProb)
	if L.bicubic {
		out.NegLnProb = polycubic(nds, c.Alpha, L.widths, out.DNegLnProb)
		out.Prob = math.Exp(-out.NegLnProb)
	} else {
		out.Prob = out.BilinearProb
		out.NegLnProb = -math.Log(out.BilinearProb)
		for i, v := range out.DBilinearProb {
			out.DNegLnProb[i] = -v / out.BilinearProb
		}
	}
	if L.entropy != nil {
		for k := 0; k < nc; k++ {
			nds[k] = L.entropy[flats[k]*nc : (flats[k]+1)*nc]
		}
		out.Entropy = polycubic(nds, c.Alpha, L.widths, out.DEntropy)
	}
	for i := 0; i < nchi; i++ {
		for k := 0; k < nc; k++ {
			vals[k] = T.ChiMean(flats[k], ranks[k])[i]
		}
		out.ChiMean[i] = polylinear(vals, c.Alpha, L.widths, true, out.DChiMean[i])
		for k := 0; k < nc; k++ {
			vals[k] = T.ChiSD(flats[k], ranks[k])[i]
		}
		out.ChiSD[i] = polylinear(vals, c.Alpha, L.widths, false, out.DChiSD[i])
	}
	return out
}

//chiDistance returns the sum of squared periodic differences between a and b.
func chiDistance(a, b []float64) float64 {
	var d float64
	for i, v := range a {
		x := PeriodicRange(v-b[i], 360)
		d += x * x
	}
	return d
}

//closestInBin returns the rotamer in bin flat closest to chi (if useChi) or to
//the chi means of id in bin here. Ties go to the most probable rotamer.
func (L *Library) closestInBin(here, flat int, id RotamerID, chi []float64, useChi bool) RotamerID {
	if here == flat {
		return id
	}
	T := L.table
	ref := chi
	if !useChi {
		ref = T.ChiMean(here, T.SortedRank(here, id))
	}
	best := T.RotNo(flat, 1)
	min := chiDistance(ref, T.ChiMean(flat, 1))
	for rank := 2; rank <= T.nrot; rank++ {
		d := chiDistance(ref, T.ChiMean(flat, rank))
		if d < min {
			min = d
			best = T.RotNo(flat, rank)
		}
	}
	return best
}
