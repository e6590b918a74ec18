/*
 * torsions.go, part of dunbrack.
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

	dunbrack "github.com/MoritzErtelt/rosetta-sub000"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/spatial/r3"
)

//MaxPeptideBond is the longest C-N distance, in A, taken as a peptide bond.
//Longer distances are chain breaks.
const MaxPeptideBond = 2.0

//ChiAtoms are the atoms defining each chi of the built-in residue classes.
var ChiAtoms = map[string][][4]string{
	"ARG": {{"N", "CA", "CB", "CG"}, {"CA", "CB", "CG", "CD"}, {"CB", "CG", "CD", "NE"}, {"CG", "CD", "NE", "CZ"}},
	"LYS": {{"N", "CA", "CB", "CG"}, {"CA", "CB", "CG", "CD"}, {"CB", "CG", "CD", "CE"}, {"CG", "CD", "CE", "NZ"}},
	"MET": {{"N", "CA", "CB", "CG"}, {"CA", "CB", "CG", "SD"}, {"CB", "CG", "SD", "CE"}},
	"ILE": {{"N", "CA", "CB", "CG1"}, {"CA", "CB", "CG1", "CD1"}},
	"LEU": {{"N", "CA", "CB", "CG"}, {"CA", "CB", "CG", "CD1"}},
	"CYS": {{"N", "CA", "CB", "SG"}},
	"SER": {{"N", "CA", "CB", "OG"}},
	"THR": {{"N", "CA", "CB", "OG1"}},
	"VAL": {{"N", "CA", "CB", "CG1"}},
	"PRO": {{"N", "CA", "CB", "CG"}},
}

//Residue is the set of atoms of one residue in a structure.
type Residue struct {
	Chain byte
	ResID int
	Name  string
	atoms map[string]r3.Vec
}

//Atom returns the position of the atom with the given name.
func (R *Residue) Atom(name string) (r3.Vec, bool) {
	v, ok := R.atoms[name]
	return v, ok
}

func (R *Residue) String() string {
	return fmt.Sprintf("%s %c%d", R.Name, R.Chain, R.ResID)
}

//Group splits atoms into residues. Atoms of a residue must be contiguous.
func Group(atoms []*Atom) []*Residue {
	var ret []*Residue
	var cur *Residue
	for _, at := range atoms {
		if cur == nil || cur.Chain != at.Chain || cur.ResID != at.ResID {
			cur = &Residue{Chain: at.Chain, ResID: at.ResID, Name: at.ResName, atoms: make(map[string]r3.Vec)}
			ret = append(ret, cur)
		}
		cur.atoms[at.Name] = at.Pos
	}
	return ret
}

//Dihedral returns the dihedral angle, in degrees, defined by the four points.
func Dihedral(a, b, c, d r3.Vec) float64 {
	//bma=b minus a
	bma := r3.Sub(b, a)
	cmb := r3.Sub(c, b)
	dmc := r3.Sub(d, c)
	bmascaled := r3.Scale(r3.Norm(cmb), bma)
	first := r3.Dot(bmascaled, r3.Cross(cmb, dmc))
	v1 := r3.Cross(bma, cmb)
	v2 := r3.Cross(cmb, dmc)
	second := r3.Dot(v1, v2)
	return math.Atan2(first, second) * 180 / math.Pi
}

//Place returns the position of the atom d bonded to c, with the given bond length (A),
//b-c-d angle and a-b-c-d dihedral, both in degrees.
func Place(a, b, c r3.Vec, bond, angle, dihedral float64) r3.Vec {
	angle *= math.Pi / 180
	dihedral *= math.Pi / 180
	bc := r3.Unit(r3.Sub(c, b))
	n := r3.Unit(r3.Cross(r3.Sub(b, a), bc))
	m := r3.Cross(n, bc)
	d := r3.Scale(-bond*math.Cos(angle), bc)
	d = r3.Add(d, r3.Scale(bond*math.Sin(angle)*math.Cos(dihedral), m))
	d = r3.Add(d, r3.Scale(bond*math.Sin(angle)*math.Sin(dihedral), n))
	return r3.Add(c, d)
}

//torsion returns the dihedral of the named atoms, which can belong to
//different residues, and false if any of them is missing.
func torsion(res [4]*Residue, names [4]string) (float64, bool) {
	var p [4]r3.Vec
	for i := range p {
		if res[i] == nil {
			return 0, false
		}
		v, ok := res[i].Atom(names[i])
		if !ok {
			return 0, false
		}
		p[i] = v
	}
	return Dihedral(p[0], p[1], p[2], p[3]), true
}

//bonded returns true if the C of prev makes a peptide bond with the N of next.
func bonded(prev, next *Residue) bool {
	if prev == nil || next == nil || prev.Chain != next.Chain {
		return false
	}
	c, ok1 := prev.Atom("C")
	n, ok2 := next.Atom("N")
	return ok1 && ok2 && r3.Norm(r3.Sub(n, c)) <= MaxPeptideBond
}

//Backbone returns the named backbone torsion ("phi", "psi" or "omega") of residue i,
//and false if it is not defined, as in the termini and chain breaks.
func Backbone(res []*Residue, i int, name string) (float64, bool, error) {
	var prev, next *Residue
	if i > 0 && bonded(res[i-1], res[i]) {
		prev = res[i-1]
	}
	if i < len(res)-1 && bonded(res[i], res[i+1]) {
		next = res[i+1]
	}
	R := res[i]
	switch strings.ToLower(name) {
	case "phi":
		v, ok := torsion([4]*Residue{prev, R, R, R}, [4]string{"C", "N", "CA", "C"})
		return v, ok, nil
	case "psi":
		v, ok := torsion([4]*Residue{R, R, R, next}, [4]string{"N", "CA", "C", "N"})
		return v, ok, nil
	case "omega":
		v, ok := torsion([4]*Residue{prev, prev, R, R}, [4]string{"CA", "C", "N", "CA"})
		return v, ok, nil
	}
	return 0, false, fmt.Errorf("dunbrack/backbone: unknown backbone torsion %q", name)
}

//dAmino returns true if the residue has D chirality at CA. Residues
//without CB are taken as L.
func dAmino(R *Residue) bool {
	n, ok1 := R.Atom("N")
	ca, ok2 := R.Atom("CA")
	c, ok3 := R.Atom("C")
	cb, ok4 := R.Atom("CB")
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return false
	}
	return r3.Dot(r3.Cross(r3.Sub(n, ca), r3.Sub(c, ca)), r3.Sub(cb, ca)) < 0
}

//Residues returns the residues in res that belong to the class, with the backbone
//torsions in the order of the class axes and the chis defined by chis. If chis is nil,
//ChiAtoms is used. Residues missing side chain atoms are skipped with a warning.
func Residues(res []*Residue, class dunbrack.ResidueClass, chis [][4]string) ([]*dunbrack.Residue, error) {
	if chis == nil {
		chis = ChiAtoms[strings.ToUpper(class.Name)]
	}
	if len(chis) < class.NChi {
		return nil, fmt.Errorf("dunbrack/backbone: %d chi definitions for class %s, with %d chis", len(chis), class.Name, class.NChi)
	}
	var ret []*dunbrack.Residue
	for i, R := range res {
		if !strings.EqualFold(R.Name, class.Name) {
			continue
		}
		D := &dunbrack.Residue{Name: R.String(), BB: make([]float64, class.N()), Chis: make([]float64, class.NChi), Mirror: dAmino(R)}
		for j, ax := range class.Axes {
			v, ok, err := Backbone(res, i, ax.Name)
			if err != nil {
				return nil, err
			}
			if !ok {
				D.Missing = append(D.Missing, j+1)
			}
			D.BB[j] = v
		}
		complete := true
		for j := range D.Chis {
			v, ok := torsion([4]*Residue{R, R, R, R}, chis[j])
			if !ok {
				complete = false
				break
			}
			D.Chis[j] = v
		}
		if !complete {
			logrus.WithField("residue", R.String()).Warn("side chain atoms missing, residue skipped")
			continue
		}
		ret = append(ret, D)
	}
	return ret, nil
}
