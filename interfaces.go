/*
 * interfaces.go, part of dunbrack.
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

//Backbone gives access to the backbone dihedrals of one residue, in degrees.
//Axes are numbered from 1, as in the tables.
type Backbone interface {
	Dihedral(axis int) float64
	//Defined returns false for torsions that don't exist, like phi for an N-terminal residue.
	Defined(axis int) bool
	//Mirrored is true for residues with inverted chirality (e.g. D-amino acids).
	Mirrored() bool
	//Context is a short description of the residue, used in error messages.
	Context() string
}

//ChiSource gives the side chain torsions of a residue, in degrees, numbered from 1.
type ChiSource interface {
	NChi() int
	Chi(index int) float64
}

//Builder receives each chi set produced when building rotamers.
//ring is nil for the plain conformer, and contains the ring torsions of
//one low-energy ring conformer otherwise.
type Builder interface {
	Build(set ChiSet, ring []float64) error
}

//RandSource is the source of random numbers for rotamer sampling.
//*math/rand.Rand implements it.
type RandSource interface {
	Float64() float64
	NormFloat64() float64
}

//Errors

//Error is the interface for errors that all packages in this library implement. The Decorate method allows to add and retrieve info from the
//error, without changing it's type or wrapping it around something else.
type Error interface {
	Error() string
	Decorate(string) []string //Each call returns the "decoration" slice resulting from the current call. An empty string adds nothing.
}

//LibError is the interface for errors related to a library table.
type LibError interface {
	Error
	Critical() bool
	FileName() string
}

//LastRotamerError has a useless function to distinguish the harmless errors (i.e. the end of an enumeration) so they can be
//filtered in a typeswitch that looks for this interface.
type LastRotamerError interface {
	LibError
	NormalLastRotamerTermination() //does nothing
}
