/*
 * backbone_test.go, part of dunbrack.
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

package backbone

import (
	"fmt"
	"math"
	"strings"
	"testing"

	dunbrack "github.com/MoritzErtelt/rosetta-sub000"
	"gonum.org/v1/gonum/spatial/r3"
)

type testAtom struct {
	name, res string
	resid     int
	pos       r3.Vec
}

//tripeptide builds GLY-VAL-ALA with the given torsions for the VAL.
func tripeptide(phi, psi, omega, chi float64) []testAtom {
	N1 := r3.Vec{}
	CA1 := r3.Vec{X: 1.458}
	C1 := Place(r3.Vec{Y: 1}, N1, CA1, 1.525, 111.2, 60)
	N2 := Place(N1, CA1, C1, 1.329, 116.2, 140)
	CA2 := Place(CA1, C1, N2, 1.458, 121.7, omega)
	C2 := Place(C1, N2, CA2, 1.525, 111.2, phi)
	CB2 := Place(C2, N2, CA2, 1.53, 110.5, -122.8)
	CG12 := Place(N2, CA2, CB2, 1.53, 110.5, chi)
	N3 := Place(N2, CA2, C2, 1.329, 116.2, psi)
	CA3 := Place(CA2, C2, N3, 1.458, 121.7, 180)
	C3 := Place(C2, N3, CA3, 1.525, 111.2, -60)
	return []testAtom{
		{"N", "GLY", 1, N1}, {"CA", "GLY", 1, CA1}, {"C", "GLY", 1, C1},
		{"N", "VAL", 2, N2}, {"CA", "VAL", 2, CA2}, {"C", "VAL", 2, C2}, {"CB", "VAL", 2, CB2}, {"CG1", "VAL", 2, CG12},
		{"N", "ALA", 3, N3}, {"CA", "ALA", 3, CA3}, {"C", "ALA", 3, C3},
	}
}

func pdbText(atoms []testAtom) string {
	var b strings.Builder
	b.WriteString("REMARK test peptide\n")
	for i, a := range atoms {
		fmt.Fprintf(&b, "ATOM  %5d %-4s %3s %c%4d    %8.3f%8.3f%8.3f  1.00  0.00\n", i+1, a.name, a.res, 'A', a.resid, a.pos.X, a.pos.Y, a.pos.Z)
	}
	b.WriteString("END\n")
	return b.String()
}

func readResidues(Te *testing.T, atoms []testAtom) []*dunbrack.Residue {
	ats, err := ReadPDB(strings.NewReader(pdbText(atoms)))
	if err != nil {
		Te.Fatal(err)
	}
	if len(ats) != len(atoms) {
		Te.Fatalf("read %d atoms, want %d", len(ats), len(atoms))
	}
	class, _ := dunbrack.BuiltinClass("VAL")
	res, err := Residues(Group(ats), class, nil)
	if err != nil {
		Te.Fatal(err)
	}
	if len(res) != 1 {
		Te.Fatalf("%d VAL residues, want 1", len(res))
	}
	return res
}

func TestDihedral(Te *testing.T) {
	a, b, c := r3.Vec{X: 1, Y: 1}, r3.Vec{}, r3.Vec{X: 1.5}
	for _, want := range []float64{-170, -60, 0, 45, 120, 179} {
		d := Place(a, b, c, 1.5, 110, want)
		if got := Dihedral(a, b, c, d); math.Abs(got-want) > 1e-9 {
			Te.Errorf("placed at %v, measured %v", want, got)
		}
		if got := r3.Norm(r3.Sub(d, c)); math.Abs(got-1.5) > 1e-9 {
			Te.Errorf("bond length %v", got)
		}
	}
}

func TestResidues(Te *testing.T) {
	res := readResidues(Te, tripeptide(-65, -40, 178, 175))
	V := res[0]
	fmt.Println(V.Context(), V.Chis)
	//the PDB keeps 3 decimals
	if math.Abs(V.BB[0]+65) > 0.1 || math.Abs(V.BB[1]+40) > 0.1 || math.Abs(V.Chis[0]-175) > 0.1 {
		Te.Errorf("bad torsions %v %v", V.BB, V.Chis)
	}
	if len(V.Missing) != 0 || V.Mirror {
		Te.Errorf("missing %v mirror %v", V.Missing, V.Mirror)
	}
	//a D residue is the mirror image
	mirror := tripeptide(-65, -40, 178, 175)
	for i := range mirror {
		mirror[i].pos.Z = -mirror[i].pos.Z
	}
	D := readResidues(Te, mirror)[0]
	if !D.Mirror || math.Abs(D.BB[0]-65) > 0.1 || math.Abs(D.Chis[0]+175) > 0.1 {
		Te.Errorf("bad mirrored residue %v %v %v", D.Mirror, D.BB, D.Chis)
	}
	//chain break after the VAL
	broken := tripeptide(-65, -40, 178, 175)
	for i := range broken {
		if broken[i].resid == 3 {
			broken[i].pos.X += 10
		}
	}
	B := readResidues(Te, broken)[0]
	if len(B.Missing) != 1 || B.Missing[0] != 2 || B.Defined(2) {
		Te.Errorf("psi not missing at a chain break: %v", B.Missing)
	}
}

func TestPeptoidOmega(Te *testing.T) {
	atoms := tripeptide(-75, 170, 5, 60)
	ats, err := ReadPDB(strings.NewReader(pdbText(atoms)))
	if err != nil {
		Te.Fatal(err)
	}
	class := dunbrack.PeptoidClass("VAL", 1)
	res, err := Residues(Group(ats), class, nil)
	if err != nil {
		Te.Fatal(err)
	}
	if math.Abs(res[0].BB[0]-5) > 0.1 || math.Abs(res[0].BB[1]+75) > 0.1 {
		Te.Errorf("bad omega/phi %v", res[0].BB)
	}
	if _, _, err := Backbone(Group(ats), 1, "chi"); err == nil {
		Te.Errorf("unknown torsion not detected")
	}
}

func TestReadPDBErrors(Te *testing.T) {
	if _, err := ReadPDB(strings.NewReader("ATOM      1  N   VAL A   1       0.000   x.000   0.000\n")); err == nil {
		Te.Errorf("bad coordinate not detected")
	}
	ats, err := ReadPDB(strings.NewReader("ATOM      1  N   VAL A   1       0.000   1.000   0.000\nENDMDL\nATOM      2  CA  VAL A   1       0.000   1.000   0.000\n"))
	if err != nil || len(ats) != 1 {
		Te.Errorf("only the first model should be read: %d %v", len(ats), err)
	}
}
