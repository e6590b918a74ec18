/*
 * library.go, part of dunbrack.
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

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
)

//Tolerances used by Library.Equal
const (
	AngleEpsilon  = 1e-6
	ProbEpsilon   = 1e-6
	EnergyEpsilon = 1e-6
)

//Library is a backbone-dependent rotamer library for one residue class.
//It is immutable once built, and safe for concurrent use.
type Library struct {
	name    string
	cfg     Config
	axes    []Axis
	binner  *Binner
	widths  []float64
	table   *Table
	entropy []float64 //[flat][deriv], nil without entropy correction
	bicubic bool
	voronoi bool
	log     *logrus.Logger
}

//NewLibrary builds a library from statistical records. name identifies the
//library in errors and logs.
func NewLibrary(name string, cfg Config, records []Record) (*Library, error) {
	if err := cfg.Class.Validate(); err != nil {
		return nil, errDecorate(err, "NewLibrary")
	}
	binner := NewBinner(cfg.Axes())
	grid := NewGrid(binner.Dims()...)
	T, err := NewTable(name, grid, binner.Widths(), cfg.Class.NChi, records, cfg.logger())
	if err != nil {
		return nil, errDecorate(err, "NewLibrary")
	}
	return newLibrary(name, cfg, binner, T), nil
}

func newLibrary(name string, cfg Config, binner *Binner, T *Table) *Library {
	L := &Library{
		name:    name,
		cfg:     cfg,
		axes:    cfg.Axes(),
		binner:  binner,
		widths:  binner.Widths(),
		table:   T,
		bicubic: cfg.UseBicubic && !cfg.Class.Peptoid, //splines are not used for the segmented peptoid axis
		voronoi: cfg.Voronoi(),
		log:     cfg.logger(),
	}
	if cfg.EntropyCorrection {
		L.entropy = entropyTable(T, L.widths)
	}
	L.log.WithFields(logrus.Fields{"library": name, "bins": T.grid.Size(), "rotamers": T.nrot}).Debug("rotamer library ready")
	return L
}

//Name returns the name of the library.
func (L *Library) Name() string { return L.name }

//Config returns the configuration of the library.
func (L *Library) Config() Config { return L.cfg }

//N returns the number of backbone dihedrals.
func (L *Library) N() int { return L.binner.N() }

//NChi returns the number of tabulated chis.
func (L *Library) NChi() int { return L.table.nchi }

//NRot returns the number of tabulated rotamers.
func (L *Library) NRot() int { return L.table.nrot }

//Table returns the rotamer table of the library. It must not be modified.
func (L *Library) Table() *Table { return L.table }

//Binner returns the binner of the library
func (L *Library) Binner() *Binner { return L.binner }

//WellsOf returns the well vector of rotamer id, or nil.
func (L *Library) WellsOf(id RotamerID) []int { return L.table.index.Wells(id) }

//RotamerOf returns the ID for a well vector, or NoRotamer.
func (L *Library) RotamerOf(wells []int) RotamerID { return L.table.index.ID(wells) }

//ivs returns the backbone dihedrals of res as seen by the table, and which
//of them are not defined. Mirrored residues have their angles inverted,
//undefined torsions get the neutral angle of their axis.
func (L *Library) ivs(res Backbone) ([]float64, []bool) {
	n := L.binner.N()
	bbs := make([]float64, n)
	missing := make([]bool, n)
	m := res.Mirrored()
	for i := 0; i < n; i++ {
		if !res.Defined(i + 1) {
			bbs[i] = L.axes[i].Neutral
			missing[i] = true
			continue
		}
		bbs[i] = res.Dihedral(i + 1)
		if m {
			bbs[i] = -bbs[i]
		}
	}
	return bbs, missing
}

//locate returns the bin coordinate of res.
func (L *Library) locate(res Backbone) (BinCoordinate, []bool, error) {
	bbs, missing := L.ivs(res)
	c, err := L.binner.Bin(bbs, res.Context())
	if err != nil {
		return c, nil, errDecorate(err, L.name)
	}
	return c, missing, nil
}

//tableChi returns the first NChi chis as seen by the table.
func (L *Library) tableChi(chi []float64, mirrored bool) ([]float64, error) {
	if len(chi) < L.table.nchi {
		return nil, newConfigurationError(fmt.Sprintf("%d chis given, %d needed", len(chi), L.table.nchi), L.name, "tableChi")
	}
	ret := make([]float64, L.table.nchi)
	for i := range ret {
		ret[i] = chi[i]
		if mirrored {
			ret[i] = -ret[i]
		}
	}
	return ret, nil
}

//Interpolate interpolates the rotamer id at the backbone of res. The result is in
//the frame of the table: for mirrored residues, chi means have the opposite sign
//from those of the residue.
func (L *Library) Interpolate(res Backbone, id RotamerID) (Interpolated, error) {
	if id < 1 || int(id) > L.table.nrot {
		return Interpolated{}, newConfigurationError(fmt.Sprintf("rotamer %d out of range", id), L.name, "Interpolate")
	}
	c, _, err := L.locate(res)
	if err != nil {
		return Interpolated{}, errDecorate(err, "Interpolate")
	}
	return L.interpolate(id, c, nil, false), nil
}

//MemoryUsage returns the approximate memory used by the library, in bytes.
func (L *Library) MemoryUsage() int {
	return L.table.MemoryUsage() + 8*len(L.entropy) + 8*len(L.widths)
}

//Equal returns true if both libraries have the same layout, rotamers and
//rank order, and the same statistics within AngleEpsilon, ProbEpsilon and EnergyEpsilon.
func (L *Library) Equal(o *Library) bool {
	A, B := L.table, o.table
	if A.nchi != B.nchi || A.nrot != B.nrot || !intsEqual(A.grid.dims, B.grid.dims) {
		return false
	}
	if !floats.EqualApprox(L.widths, o.widths, AngleEpsilon) {
		return false
	}
	for id := RotamerID(1); int(id) <= A.nrot; id++ {
		if !intsEqual(A.index.Wells(id), B.index.Wells(id)) {
			return false
		}
	}
	for i, v := range A.rotno {
		if v != B.rotno[i] || A.sorted[i] != B.sorted[i] {
			return false
		}
	}
	for i, v := range A.chiMean {
		if !scalar.EqualWithinAbs(PeriodicRange(v-B.chiMean[i], 360), 0, AngleEpsilon) {
			return false
		}
	}
	return floats.EqualApprox(A.chiSD, B.chiSD, AngleEpsilon) &&
		floats.EqualApprox(A.prob, B.prob, ProbEpsilon) &&
		floats.EqualApprox(A.nDerivs, B.nDerivs, EnergyEpsilon)
}

func intsEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i, v := range a {
		if v != b[i] {
			return false
		}
	}
	return true
}
