/*
 * helpers_test.go, part of dunbrack.
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
	"testing"
)

//nodeAngle is the angle at the lower edge of bin b in a 36-bin axis.
func nodeAngle(b int) float64 { return -180 + float64(b-1)*10 }

var wellCenter = map[int]float64{1: 60, 2: 180, 3: -60}

//testRecords builds a smooth 2-chi table on the phi/psi grid, with every
//well combination except [3 3].
func testRecords() []Record {
	var wells [][]int
	for i := 1; i <= 3; i++ {
		for j := 1; j <= 3; j++ {
			if i == 3 && j == 3 {
				continue
			}
			wells = append(wells, []int{i, j})
		}
	}
	var recs []Record
	for b1 := 1; b1 <= 36; b1++ {
		for b2 := 1; b2 <= 36; b2++ {
			phi := nodeAngle(b1) * math.Pi / 180
			psi := nodeAngle(b2) * math.Pi / 180
			w := make([]float64, len(wells))
			var sum float64
			for k := range w {
				fk := float64(k)
				w[k] = math.Exp(0.3*fk + 0.5*math.Sin(phi+fk) + 0.4*math.Cos(psi-0.5*fk))
				sum += w[k]
			}
			for k, wl := range wells {
				r := Record{
					Bins:    []int{b1, b2},
					Wells:   wl,
					Prob:    w[k] / sum,
					ChiMean: []float64{wellCenter[wl[0]] + 5*math.Sin(phi), wellCenter[wl[1]] - 4*math.Cos(psi)},
					ChiSD:   []float64{10 + 2*math.Cos(psi), 12 + math.Sin(phi)},
				}
				recs = append(recs, r)
			}
		}
	}
	return recs
}

func testConfig() Config {
	return DefaultConfig(PeptideClass("TST", 2))
}

func testLibrary(Te *testing.T, cfg Config) *Library {
	L, err := NewLibrary("test", cfg, testRecords())
	if err != nil {
		Te.Fatal(err)
	}
	return L
}

//flatLibrary has 3 one-chi rotamers with the same probabilities, 0.5, 0.3 and 0.2, everywhere.
func flatLibrary(Te *testing.T, cfg Config) *Library {
	probs := map[int]float64{1: 0.5, 2: 0.3, 3: 0.2}
	var recs []Record
	for b1 := 1; b1 <= 36; b1++ {
		for b2 := 1; b2 <= 36; b2++ {
			for w := 1; w <= 3; w++ {
				recs = append(recs, Record{Bins: []int{b1, b2}, Wells: []int{w}, Prob: probs[w], ChiMean: []float64{wellCenter[w]}, ChiSD: []float64{10}})
			}
		}
	}
	L, err := NewLibrary("flat", cfg, recs)
	if err != nil {
		Te.Fatal(err)
	}
	return L
}

func flatConfig() Config {
	return DefaultConfig(PeptideClass("FLT", 1))
}

//fixedRand returns always the same numbers.
type fixedRand struct {
	f, n float64
}

func (r fixedRand) Float64() float64     { return r.f }
func (r fixedRand) NormFloat64() float64 { return r.n }

func near(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}
