/*
 * energy_test.go, part of dunbrack.
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
	"testing"
)

func energyConfigs() map[string]Config {
	plain := testConfig()
	lin := testConfig()
	lin.UseBicubic = false
	full := testConfig()
	full.EntropyCorrection = true
	full.NormalizeSD = true
	return map[string]Config{"plain": plain, "multilinear": lin, "entropy+normsd": full}
}

func TestEnergyDerivatives(Te *testing.T) {
	chi := []float64{55, -70}
	bb := []float64{-63.3, -41.7}
	eps := 1e-4
	for name, cfg := range energyConfigs() {
		L := testLibrary(Te, cfg)
		E, err := L.Energy(Angles(bb), chi)
		if err != nil {
			Te.Fatal(err)
		}
		if !intsEqual(L.WellsOf(E.RotNo), []int{1, 3}) {
			Te.Errorf("%s: wrong rotamer %v", name, L.WellsOf(E.RotNo))
		}
		fmt.Printf("%s: total %.4f rot %.4f dev %.4f\n", name, E.Total, E.Rot, E.Dev)
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
			num := (Eu.Total - Ed.Total) / (2 * eps)
			if !near(num, E.DBackbone[a], 1e-5) {
				Te.Errorf("%s: dE/dbb%d analytical %v numerical %v", name, a+1, E.DBackbone[a], num)
			}
			numrot := (Eu.Rot - Ed.Rot) / (2 * eps)
			if !near(numrot, E.DBackboneRot[a], 1e-5) {
				Te.Errorf("%s: dErot/dbb%d analytical %v numerical %v", name, a+1, E.DBackboneRot[a], numrot)
			}
		}
		for i := range chi {
			up := append([]float64(nil), chi...)
			down := append([]float64(nil), chi...)
			up[i] += eps
			down[i] -= eps
			Eu, _ := L.Energy(Angles(bb), up)
			Ed, _ := L.Energy(Angles(bb), down)
			num := (Eu.Total - Ed.Total) / (2 * eps)
			if !near(num, E.DChi[i], 1e-5) {
				Te.Errorf("%s: dE/dchi%d analytical %v numerical %v", name, i+1, E.DChi[i], num)
			}
		}
	}
}

func TestEnergyPeriodicity(Te *testing.T) {
	L := testLibrary(Te, testConfig())
	chi := []float64{170, 65}
	E1, err := L.Energy(Angles{-120.5, 133.3}, chi)
	if err != nil {
		Te.Fatal(err)
	}
	E2, err := L.Energy(Angles{-120.5 + 360, 133.3 - 720}, []float64{170 - 360, 65 + 360})
	if err != nil {
		Te.Fatal(err)
	}
	if !near(E1.Total, E2.Total, 1e-9) || E1.RotNo != E2.RotNo {
		Te.Errorf("energy not periodic: %v %v", E1.Total, E2.Total)
	}
}

func TestEnergyTerminus(Te *testing.T) {
	L := testLibrary(Te, testConfig())
	chi := []float64{-65, 178}
	res := &Residue{Name: "NTERM", BB: []float64{123, -41.7}, Chis: chi, Missing: []int{1}}
	E, err := L.Energy(res, ChiVector(res))
	if err != nil {
		Te.Fatal(err)
	}
	Eref, err := L.Energy(Angles{NeutralPhi, -41.7}, chi)
	if err != nil {
		Te.Fatal(err)
	}
	if !near(E.Total, Eref.Total, 1e-12) {
		Te.Errorf("terminal residue energy %v, want the one at neutral phi %v", E.Total, Eref.Total)
	}
	if E.DBackbone[0] != 0 || E.DBackboneRot[0] != 0 || E.DBackboneDev[0] != 0 {
		Te.Errorf("derivative on the missing torsion not zeroed: %v", E.DBackbone)
	}
	if !near(E.DBackbone[1], Eref.DBackbone[1], 1e-12) {
		Te.Errorf("psi derivative changed: %v %v", E.DBackbone[1], Eref.DBackbone[1])
	}
}

func TestEnergyMirror(Te *testing.T) {
	cfg := testConfig()
	cfg.EntropyCorrection = true
	L := testLibrary(Te, cfg)
	E, err := L.Energy(Angles{-63.3, -41.7}, []float64{55, -70})
	if err != nil {
		Te.Fatal(err)
	}
	D := &Residue{Name: "DXX", BB: []float64{63.3, 41.7}, Chis: []float64{-55, 70}, Mirror: true}
	Em, err := L.Energy(D, D.Chis)
	if err != nil {
		Te.Fatal(err)
	}
	if !near(E.Total, Em.Total, 1e-12) || E.RotNo != Em.RotNo {
		Te.Errorf("mirrored energy %v, want %v", Em.Total, E.Total)
	}
	for i := range E.DBackbone {
		if !near(E.DBackbone[i], -Em.DBackbone[i], 1e-12) {
			Te.Errorf("mirrored backbone derivative %d: %v, want %v", i, Em.DBackbone[i], -E.DBackbone[i])
		}
	}
	for i := range E.DChi {
		if !near(E.DChi[i], -Em.DChi[i], 1e-12) {
			Te.Errorf("mirrored chi derivative %d: %v, want %v", i, Em.DChi[i], -E.DChi[i])
		}
	}
}

func TestBestRotamerEnergy(Te *testing.T) {
	L := flatLibrary(Te, flatConfig())
	bb := Angles{-60, 140}
	best, err := L.BestRotamerEnergy(bb, nil, false)
	if err != nil {
		Te.Fatal(err)
	}
	if !near(best, -math.Log(0.5), 1e-9) {
		Te.Errorf("best rotamer energy %v", best)
	}
	cur, err := L.BestRotamerEnergy(bb, []float64{175}, true)
	if err != nil {
		Te.Fatal(err)
	}
	if !near(cur, -math.Log(0.3), 1e-9) {
		Te.Errorf("current rotamer energy %v", cur)
	}
	if _, err := L.Energy(bb, nil); !IsConfiguration(err) {
		Te.Errorf("expected a configuration error for missing chis, got %v", err)
	}
}
