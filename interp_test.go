/*
 * interp_test.go, part of dunbrack.
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
	"fmt"
	"math"
	"math/rand"
	"testing"
)

func TestPolylinear(Te *testing.T) {
	width := []float64{10, 10}
	d := make([]float64, 2)
	v := polylinear([]float64{1, 2, 3, 4}, []float64{0, 0}, width, false, d)
	if v != 1 {
		Te.Errorf("corner value %v", v)
	}
	v = polylinear([]float64{1, 2, 3, 4}, []float64{0.5, 0.5}, width, false, d)
	if !near(v, 2.5, 1e-12) || !near(d[0], 0.2, 1e-12) || !near(d[1], 0.1, 1e-12) {
		Te.Errorf("center value %v derivatives %v", v, d)
	}
	//the two corners are 20 degrees apart across the discontinuity
	v = polylinear([]float64{170, -170, 170, -170}, []float64{0, 0.5}, width, true, d)
	if !near(PeriodicRange(v-180, 360), 0, 1e-9) || v < -180 || v >= 180 {
		Te.Errorf("angle blend gave %v, want -180", v)
	}
	if !near(d[1], 2, 1e-9) {
		Te.Errorf("angle blend derivative %v, want 2", d[1])
	}
}

func TestPolycubicCorner(Te *testing.T) {
	r := rand.New(rand.NewSource(1))
	nd := make([][]float64, 4)
	for i := range nd {
		nd[i] = []float64{r.Float64(), r.NormFloat64(), r.NormFloat64(), r.NormFloat64()}
	}
	d := make([]float64, 2)
	if v := polycubic(nd, []float64{0, 0}, []float64{10, 10}, d); !near(v, nd[0][0], 1e-12) {
		Te.Errorf("polycubic at corner 0 gave %v, want %v", v, nd[0][0])
	}
}

func TestPolycubicDerivatives(Te *testing.T) {
	r := rand.New(rand.NewSource(2))
	nd := make([][]float64, 4)
	for i := range nd {
		nd[i] = []float64{r.Float64(), 0.01 * r.NormFloat64(), 0.01 * r.NormFloat64(), 1e-4 * r.NormFloat64()}
	}
	width := []float64{10, 15}
	alpha := []float64{0.3, 0.6}
	d := make([]float64, 2)
	scratch := make([]float64, 2)
	polycubic(nd, alpha, width, d)
	eps := 1e-5
	for a := 0; a < 2; a++ {
		up := append([]float64(nil), alpha...)
		down := append([]float64(nil), alpha...)
		up[a] += eps
		down[a] -= eps
		num := (polycubic(nd, up, width, scratch) - polycubic(nd, down, width, scratch)) / (2 * eps * width[a])
		if !near(num, d[a], 1e-6) {
			Te.Errorf("axis %d: analytical derivative %v, numerical %v", a+1, d[a], num)
		}
	}
}

//The periodic spline through sin on a 10 degree grid must reproduce sin
//between the nodes, and -sin as second derivative.
func TestSplineSine(Te *testing.T) {
	n, h := 36, 10.0
	D, err := splineOperator(n, h)
	if err != nil {
		Te.Fatal(err)
	}
	deg := math.Pi / 180
	y := make([]float64, n)
	for i := range y {
		y[i] = math.Sin(nodeAngle(i+1) * deg)
	}
	M := make([]float64, n)
	for i := range M {
		for j := range y {
			M[i] += D.At(i, j) * y[j]
		}
		if want := -y[i] * deg * deg; math.Abs(M[i]-want) > 0.01*deg*deg {
			Te.Errorf("node %d: second derivative %v, want %v", i, M[i], want)
		}
	}
	d := make([]float64, 1)
	for i := 0; i < n; i++ {
		next := (i + 1) % n
		nd := [][]float64{{y[i], M[i]}, {y[next], M[next]}}
		v := polycubic(nd, []float64{0.5}, []float64{h}, d)
		want := math.Sin((nodeAngle(i+1) + 5) * deg)
		if math.Abs(v-want) > 1e-4 {
			Te.Errorf("midpoint %d: %v, want %v", i, v, want)
		}
		if dw := math.Cos((nodeAngle(i+1)+5)*deg) * deg; math.Abs(d[0]-dw) > 1e-4*deg {
			Te.Errorf("midpoint %d: derivative %v, want %v", i, d[0], dw)
		}
	}
	fmt.Println("spline second derivatives at 90 degrees:", M[27], -deg*deg)
}

func TestSplineSmallAxes(Te *testing.T) {
	for _, n := range []int{1, 2, 3} {
		if _, err := splineOperator(n, 360/float64(n)); err != nil {
			Te.Errorf("%d nodes: %v", n, err)
		}
	}
}

//At the grid nodes the interpolation must give back the stored values.
func TestInterpolateNodes(Te *testing.T) {
	for _, bicubic := range []bool{true, false} {
		cfg := testConfig()
		cfg.UseBicubic = bicubic
		L := testLibrary(Te, cfg)
		T := L.Table()
		for _, b := range [][2]int{{1, 1}, {12, 30}, {36, 36}, {20, 2}} {
			flat := T.Grid().Flatten(b[:])
			for rank := 1; rank <= T.NRot(); rank++ {
				id := T.RotNo(flat, rank)
				I, err := L.Interpolate(Angles{nodeAngle(b[0]), nodeAngle(b[1])}, id)
				if err != nil {
					Te.Fatal(err)
				}
				p := T.Prob(flat, rank)
				if !near(I.Prob, p, 1e-9) || !near(I.NegLnProb, -math.Log(p), 1e-9) {
					Te.Errorf("bicubic %v bin %v rank %d: prob %v -lnp %v, want %v", bicubic, b, rank, I.Prob, I.NegLnProb, p)
				}
				for i, m := range T.ChiMean(flat, rank) {
					if !near(PeriodicRange(I.ChiMean[i]-m, 360), 0, 1e-9) || !near(I.ChiSD[i], T.ChiSD(flat, rank)[i], 1e-9) {
						Te.Errorf("bin %v rank %d chi %d: mean %v sd %v", b, rank, i+1, I.ChiMean[i], I.ChiSD[i])
					}
				}
			}
		}
	}
}

//The multilinear probabilities of all the rotamers must add to at most 1.
func TestProbabilitySum(Te *testing.T) {
	L := testLibrary(Te, testConfig())
	r := rand.New(rand.NewSource(3))
	for i := 0; i < 50; i++ {
		bb := Angles{r.Float64()*360 - 180, r.Float64()*360 - 180}
		samples, err := L.AllRotamerSamples(bb)
		if err != nil {
			Te.Fatal(err)
		}
		var sum float64
		for _, s := range samples {
			p, err := L.ProbabilityForRotamer(bb, s.Rank)
			if err != nil {
				Te.Fatal(err)
			}
			if p < 0 {
				Te.Errorf("negative probability %v at %v", p, bb)
			}
			sum += p
		}
		if sum > 1+ProbEpsilon {
			Te.Errorf("probabilities at %v add to %v", bb, sum)
		}
		for j := 1; j < len(samples); j++ {
			if samples[j].Rank != samples[j-1].Rank+1 {
				Te.Errorf("samples out of rank order")
			}
		}
	}
}

func TestPeptoidNoBicubic(Te *testing.T) {
	cfg := DefaultConfig(PeptoidClass("NPT", 1))
	var recs []Record
	NewGrid(14, 36, 36).Each(func(flat int, bins []int) {
		recs = append(recs, Record{Bins: append([]int(nil), bins...), Wells: []int{1}, Prob: 0.6, ChiMean: []float64{60}, ChiSD: []float64{10}})
		recs = append(recs, Record{Bins: append([]int(nil), bins...), Wells: []int{2}, Prob: 0.4, ChiMean: []float64{180}, ChiSD: []float64{10}})
	})
	L, err := NewLibrary("peptoid", cfg, recs)
	if err != nil {
		Te.Fatal(err)
	}
	if L.bicubic {
		Te.Errorf("peptoid library uses splines")
	}
	I, err := L.Interpolate(Angles{175, -60, 140}, 1)
	if err != nil {
		Te.Fatal(err)
	}
	if !near(I.Prob, 0.6, 1e-9) {
		Te.Errorf("peptoid probability %v", I.Prob)
	}
}

//tricubicLibrary is a library with three uniform 30 degree axes and two rotamers.
func tricubicLibrary(Te *testing.T) *Library {
	class := ResidueClass{Name: "TRI", NChi: 1, Canonical: true,
		Axes: []Axis{Uniform("a", 12, 0), Uniform("b", 12, 0), Uniform("c", 12, 0)}}
	deg := math.Pi / 180
	var recs []Record
	NewGrid(12, 12, 12).Each(func(_ int, bins []int) {
		a, b, c := nodeAngle3(bins[0])*deg, nodeAngle3(bins[1])*deg, nodeAngle3(bins[2])*deg
		p := 0.5 + 0.2*math.Sin(a)*math.Cos(b) + 0.15*math.Cos(c)
		bb := append([]int(nil), bins...)
		recs = append(recs, Record{Bins: bb, Wells: []int{1}, Prob: p, ChiMean: []float64{60 + 5*math.Sin(a)}, ChiSD: []float64{10 + 2*math.Cos(c)}})
		recs = append(recs, Record{Bins: bb, Wells: []int{2}, Prob: 1 - p, ChiMean: []float64{180}, ChiSD: []float64{12}})
	})
	L, err := NewLibrary("tricubic", DefaultConfig(class), recs)
	if err != nil {
		Te.Fatal(err)
	}
	return L
}

func nodeAngle3(bin int) float64 { return -180 + float64(bin-1)*30 }

func TestTricubicLibrary(Te *testing.T) {
	L := tricubicLibrary(Te)
	T := L.Table()
	for _, b := range [][]int{{1, 1, 1}, {4, 7, 12}, {12, 12, 12}, {9, 2, 6}} {
		flat := T.Grid().Flatten(b)
		for rank := 1; rank <= T.NRot(); rank++ {
			id := T.RotNo(flat, rank)
			I, err := L.Interpolate(Angles{nodeAngle3(b[0]), nodeAngle3(b[1]), nodeAngle3(b[2])}, id)
			if err != nil {
				Te.Fatal(err)
			}
			p := T.Prob(flat, rank)
			if !near(I.NegLnProb, -math.Log(p), 1e-9) {
				Te.Errorf("bin %v rank %d: -lnp %v, want %v", b, rank, I.NegLnProb, -math.Log(p))
			}
		}
	}
	chi := []float64{62}
	bb := Angles{-47.3, 118.9, 21.4}
	E, err := L.Energy(bb, chi)
	if err != nil {
		Te.Fatal(err)
	}
	if !intsEqual(L.WellsOf(E.RotNo), []int{1}) {
		Te.Errorf("wrong rotamer %v", L.WellsOf(E.RotNo))
	}
	fmt.Printf("tricubic: total %.4f rot %.4f dev %.4f\n", E.Total, E.Rot, E.Dev)
	eps := 1e-4
	for a := range bb {
		up := append(Angles(nil), bb...)
		down := append(Angles(nil), bb...)
		up[a] += eps
		down[a] -= eps
		Eu, err := L.Energy(up, chi)
		if err != nil {
			Te.Fatal(err)
		}
		Ed, _ := L.Energy(down, chi)
		if num := (Eu.Total - Ed.Total) / (2 * eps); !near(num, E.DBackbone[a], 1e-5) {
			Te.Errorf("dE/dbb%d analytical %v numerical %v", a+1, E.DBackbone[a], num)
		}
		if num := (Eu.Rot - Ed.Rot) / (2 * eps); !near(num, E.DBackboneRot[a], 1e-5) {
			Te.Errorf("dErot/dbb%d analytical %v numerical %v", a+1, E.DBackboneRot[a], num)
		}
	}
	E2, err := L.Energy(Angles{bb[0] + 360, bb[1] - 360, bb[2] + 720}, chi)
	if err != nil {
		Te.Fatal(err)
	}
	if !near(E.Total, E2.Total, 1e-9) || E.RotNo != E2.RotNo {
		Te.Errorf("energy not periodic: %v %v", E.Total, E2.Total)
	}
}
