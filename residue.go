/*
 * residue.go, part of dunbrack.
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
	"strings"
)

//Residue is a plain Backbone and ChiSource, for callers that already have the angles.
type Residue struct {
	Name    string
	BB      []float64 //backbone dihedrals, axis 1 first
	Chis    []float64
	Missing []int //axes (1-based) whose torsion is not defined, i.e. termini
	Mirror  bool
}

func (R *Residue) Dihedral(axis int) float64 { return R.BB[axis-1] }

func (R *Residue) Defined(axis int) bool {
	for _, v := range R.Missing {
		if v == axis {
			return false
		}
	}
	return true
}

func (R *Residue) Mirrored() bool { return R.Mirror }

func (R *Residue) Context() string {
	bb := make([]string, len(R.BB))
	for i, v := range R.BB {
		bb[i] = fmt.Sprintf("%.2f", v)
	}
	return fmt.Sprintf("%s [%s]", R.Name, strings.Join(bb, " "))
}

func (R *Residue) NChi() int { return len(R.Chis) }

func (R *Residue) Chi(index int) float64 { return R.Chis[index-1] }

//Angles is a Backbone with every torsion defined and no mirroring.
type Angles []float64

func (A Angles) Dihedral(axis int) float64 { return A[axis-1] }

func (A Angles) Defined(axis int) bool { return true }

func (A Angles) Mirrored() bool { return false }

func (A Angles) Context() string { return fmt.Sprintf("%v", []float64(A)) }

//ChiVector copies the chis of src into a slice. If dest is given, it's used
//when it has the right size.
func ChiVector(src ChiSource, dest ...[]float64) []float64 {
	ret := getCopySlice(src.NChi(), dest...)
	for i := range ret {
		ret[i] = src.Chi(i + 1)
	}
	return ret
}

//getCopySlice returns the first element of dest if it has size elements,
//or a new slice otherwise.
func getCopySlice(size int, dest ...[]float64) []float64 {
	if len(dest) > 0 && len(dest[0]) == size {
		return dest[0]
	}
	return make([]float64, size)
}
