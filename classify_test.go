/*
 * classify_test.go, part of dunbrack.
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
	"testing"
)

func TestClassifyIdempotent(Te *testing.T) {
	L := testLibrary(Te, testConfig())
	bb := Angles{-100, 150}
	samples, err := L.AllRotamerSamples(bb)
	if err != nil {
		Te.Fatal(err)
	}
	for _, s := range samples {
		id, err := L.Classify(bb, s.ChiMean)
		if err != nil {
			Te.Fatal(err)
		}
		if id != s.RotNo {
			Te.Errorf("rotamer %v classified as %v", s.Wells, L.WellsOf(id))
		}
		w, id2 := L.ClassifyWells(s.ChiMean)
		if id2 != id || !intsEqual(w, L.WellsOf(id)) {
			Te.Errorf("ClassifyWells gave %v (%d), Classify %d", w, id2, id)
		}
		if L.RotamerOf(L.WellsOf(id)) != id {
			Te.Errorf("RotamerOf and WellsOf don't match for %d", id)
		}
	}
}

func TestClassifyFallback(Te *testing.T) {
	L := testLibrary(Te, testConfig())
	chi := []float64{-60, -60}
	bb := Angles{-100, 150}
	if _, id := L.ClassifyWells(chi); id != NoRotamer {
		Te.Fatalf("[3 3] should not be tabulated")
	}
	id, err := L.Classify(bb, chi)
	if err != nil {
		Te.Fatal(err)
	}
	if w := L.WellsOf(id); !intsEqual(w, []int{3, 1}) {
		Te.Errorf("fallback gave %v, want [3 1]", w)
	}
	for i := 0; i < 5; i++ {
		if id2, _ := L.Classify(Angles{-100, -40}, chi); id2 != id {
			Te.Errorf("fallback not deterministic: %d vs %d", id2, id)
		}
	}
}

func TestClassifyMirrored(Te *testing.T) {
	L := testLibrary(Te, testConfig())
	id, err := L.Classify(Angles{-63, -41}, []float64{60, -170})
	if err != nil {
		Te.Fatal(err)
	}
	D := &Residue{Name: "DXX", BB: []float64{63, 41}, Chis: []float64{-60, 170}, Mirror: true}
	idm, err := L.Classify(D, D.Chis)
	if err != nil {
		Te.Fatal(err)
	}
	if id != idm {
		Te.Errorf("mirrored residue classified as %v, want %v", L.WellsOf(idm), L.WellsOf(id))
	}
}

func TestClassifyNearestCentroid(Te *testing.T) {
	cfg := testConfig()
	cfg.UseVoronoiCanonical = true
	L := testLibrary(Te, cfg)
	bb := Angles{-100, 150}
	samples, err := L.AllRotamerSamples(bb)
	if err != nil {
		Te.Fatal(err)
	}
	for _, s := range samples {
		chi := []float64{s.ChiMean[0] + 3, s.ChiMean[1] - 2}
		id, err := L.Classify(bb, chi)
		if err != nil {
			Te.Fatal(err)
		}
		if id != s.RotNo {
			Te.Errorf("chis near %v classified as %v", s.Wells, L.WellsOf(id))
		}
	}
	//[3 3] is not tabulated, the nearest centroid must be a tabulated rotamer anyway.
	id, err := L.Classify(bb, []float64{-60, -60})
	if err != nil || id == NoRotamer {
		Te.Errorf("no rotamer for an untabulated well combination: %v", err)
	}
}

func TestWellSets(Te *testing.T) {
	W := DefaultWells()
	cases := map[float64]int{60: 1, 0: 1, 119.9: 1, 120: 2, 180: 2, -180: 2, -120.1: 2, -120: 3, -0.1: 3}
	for chi, want := range cases {
		if w := W.Well(chi); w != want {
			Te.Errorf("chi %v in well %d, want %d", chi, w, want)
		}
	}
	P, _ := BuiltinClass("PRO")
	if w := P.WellSet(0).Well(30); w != 1 {
		Te.Errorf("proline chi 30 in well %d", w)
	}
	if w := P.WellSet(0).Well(-30); w != 2 {
		Te.Errorf("proline chi -30 in well %d", w)
	}
}
