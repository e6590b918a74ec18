/*
 * table.go, part of dunbrack.
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
	"sort"

	"github.com/sirupsen/logrus"
)

//Record is one row of a statistical rotamer table: the statistics of the
//rotamer with wells Wells in the backbone bin Bins.
type Record struct {
	Bins    []int //1-based, one per axis
	Wells   []int
	Rank    int //optional. If every record of a bin has 0, the bin is sorted by probability.
	Prob    float64
	ChiMean []float64
	ChiSD   []float64
}

//PackedRotamer is a copy of one row of a table.
type PackedRotamer struct {
	RotNo   RotamerID
	Prob    float64
	ChiMean []float64
	ChiSD   []float64
	NDerivs []float64 //-ln(Prob) and its second derivatives, 2^N elements
}

//Table stores one row per (flat bin, rank) in flat arenas. Rank 1 is the
//most probable rotamer in the bin.
type Table struct {
	grid    Grid
	nchi    int
	nrot    int
	nderiv  int
	chiMean []float64 //[flat][rank][chi]
	chiSD   []float64 //[flat][rank][chi]
	prob    []float64 //[flat][rank]
	nDerivs []float64 //[flat][rank][deriv]
	rotno   []int32   //[flat][rank]
	sorted  []int32   //[flat][id-1] -> rank
	index   *RotamerIndex
}

func newEmptyTable(grid Grid, nchi int, index *RotamerIndex) *Table {
	T := &Table{grid: grid, nchi: nchi, nrot: index.Len(), nderiv: grid.Corners(), index: index}
	rows := grid.Size() * T.nrot
	T.chiMean = make([]float64, rows*nchi)
	T.chiSD = make([]float64, rows*nchi)
	T.prob = make([]float64, rows)
	T.nDerivs = make([]float64, rows*T.nderiv)
	T.rotno = make([]int32, rows)
	T.sorted = make([]int32, rows)
	return T
}

//NewTable builds a table from records. Every bin must contain exactly one
//record per rotamer present in the records. Probabilities at or below ProbabilityFloor
//are clamped, and the spline derivatives of -ln(p) are computed using the given bin widths.
//name identifies the table in errors and logs.
func NewTable(name string, grid Grid, widths []float64, nchi int, records []Record, log *logrus.Logger) (*Table, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	wells := make([][]int, 0, len(records))
	for i, r := range records {
		if err := grid.Check(r.Bins); err != nil {
			return nil, newConfigurationError(fmt.Sprintf("record %d", i), name, "NewTable", err)
		}
		if len(r.ChiMean) != nchi || len(r.ChiSD) != nchi {
			return nil, newConfigurationError(fmt.Sprintf("record %d has %d chi means and %d sds, want %d", i, len(r.ChiMean), len(r.ChiSD), nchi), name, "NewTable")
		}
		wells = append(wells, r.Wells)
	}
	index, err := NewRotamerIndex(nchi, wells)
	if err != nil {
		return nil, newConfigurationError("bad well vector", name, "NewTable", err)
	}
	if index.Len() == 0 {
		return nil, newConfigurationError("no records", name, "NewTable")
	}
	T := newEmptyTable(grid, nchi, index)
	perbin := make([][]*Record, grid.Size())
	for i := range records {
		flat := grid.Flatten(records[i].Bins)
		perbin[flat] = append(perbin[flat], &records[i])
	}
	for flat, rows := range perbin {
		if len(rows) != T.nrot {
			return nil, newConfigurationError(fmt.Sprintf("bin %v has %d rotamers, want %d", grid.Unflatten(flat), len(rows), T.nrot), name, "NewTable")
		}
		seen := make(map[RotamerID]bool, len(rows))
		ranked := 0
		for _, r := range rows {
			id := index.ID(r.Wells)
			if seen[id] {
				return nil, newConfigurationError(fmt.Sprintf("rotamer %v appears twice in bin %v", r.Wells, r.Bins), name, "NewTable")
			}
			seen[id] = true
			if r.Rank != 0 {
				ranked++
			}
		}
		switch ranked {
		case 0:
			sort.SliceStable(rows, func(i, j int) bool {
				if rows[i].Prob != rows[j].Prob {
					return rows[i].Prob > rows[j].Prob
				}
				return index.ID(rows[i].Wells) < index.ID(rows[j].Wells)
			})
		case len(rows):
			placed := make([]*Record, len(rows))
			for _, r := range rows {
				if r.Rank < 1 || r.Rank > len(rows) || placed[r.Rank-1] != nil {
					return nil, newConfigurationError(fmt.Sprintf("bad rank %d in bin %v", r.Rank, r.Bins), name, "NewTable")
				}
				placed[r.Rank-1] = r
			}
			rows = placed
		default:
			return nil, newConfigurationError(fmt.Sprintf("bin %v mixes ranked and unranked records", grid.Unflatten(flat)), name, "NewTable")
		}
		for k, r := range rows {
			row := flat*T.nrot + k
			T.prob[row] = r.Prob
			T.rotno[row] = int32(index.ID(r.Wells))
			for c := 0; c < nchi; c++ {
				T.chiMean[row*nchi+c] = PeriodicRange(r.ChiMean[c], 360)
				T.chiSD[row*nchi+c] = r.ChiSD[c]
			}
		}
	}
	T.clamp(name, log)
	T.buildSorted()
	if err := T.validate(name); err != nil {
		return nil, err
	}
	if err := T.trainSplines(widths); err != nil {
		return nil, newConfigurationError("can't compute spline derivatives", name, "NewTable", err)
	}
	return T, nil
}

//clamp raises every probability below the floor to the floor.
func (T *Table) clamp(name string, log *logrus.Logger) {
	n := 0
	for i, v := range T.prob {
		if v <= ProbabilityFloor {
			T.prob[i] = ProbabilityFloor
			n++
		}
	}
	if n > 0 {
		log.WithFields(logrus.Fields{"table": name, "rows": n}).Debug("clamped probabilities to the floor")
	}
}

func (T *Table) buildSorted() {
	for flat := 0; flat < T.grid.Size(); flat++ {
		for rank := 1; rank <= T.nrot; rank++ {
			id := T.rotno[T.row(flat, rank)]
			if id >= 1 && int(id) <= T.nrot {
				T.sorted[flat*T.nrot+int(id)-1] = int32(rank)
			}
		}
	}
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

//checkValues rejects probabilities outside [0,1], non-finite chi means
//or derivatives, and negative or non-finite standard deviations.
func (T *Table) checkValues(name string) error {
	for row, p := range T.prob {
		if !(p >= 0 && p <= 1) {
			return newConfigurationError(fmt.Sprintf("bin %v: probability %g out of [0,1]", T.grid.Unflatten(row/T.nrot), p), name, "validate")
		}
	}
	for i, v := range T.chiMean {
		if !finite(v) {
			return newConfigurationError(fmt.Sprintf("bin %v: chi mean %g", T.grid.Unflatten(i/(T.nrot*T.nchi)), v), name, "validate")
		}
		if sd := T.chiSD[i]; !finite(sd) || sd < 0 {
			return newConfigurationError(fmt.Sprintf("bin %v: chi standard deviation %g", T.grid.Unflatten(i/(T.nrot*T.nchi)), sd), name, "validate")
		}
	}
	for i, v := range T.nDerivs {
		if !finite(v) {
			return newConfigurationError(fmt.Sprintf("bin %v: spline derivative %g", T.grid.Unflatten(i/(T.nrot*T.nderiv)), v), name, "validate")
		}
	}
	return nil
}

//validate checks the stored values, the rank ordering and the rank index.
func (T *Table) validate(name string) error {
	if err := T.checkValues(name); err != nil {
		return err
	}
	for flat := 0; flat < T.grid.Size(); flat++ {
		for rank := 1; rank <= T.nrot; rank++ {
			row := T.row(flat, rank)
			if rank > 1 && T.prob[row] > T.prob[row-1] {
				return newConfigurationError(fmt.Sprintf("bin %v: probability of rank %d (%g) larger than rank %d (%g)", T.grid.Unflatten(flat), rank, T.prob[row], rank-1, T.prob[row-1]), name, "validate")
			}
			if T.prob[row] > 1 {
				return newConfigurationError(fmt.Sprintf("bin %v: probability %g larger than 1", T.grid.Unflatten(flat), T.prob[row]), name, "validate")
			}
			id := RotamerID(T.rotno[row])
			if id < 1 || int(id) > T.nrot {
				return newConfigurationError(fmt.Sprintf("bin %v: rotamer id %d out of range", T.grid.Unflatten(flat), id), name, "validate")
			}
			if T.SortedRank(flat, id) != rank {
				return newConfigurationError(fmt.Sprintf("bin %v: rank index inconsistent for rotamer %d", T.grid.Unflatten(flat), id), name, "validate")
			}
		}
	}
	return nil
}

func (T *Table) row(flat, rank int) int { return flat*T.nrot + rank - 1 }

//Grid returns the grid of the table.
func (T *Table) Grid() Grid { return T.grid }

//NChi returns the number of tabulated chis.
func (T *Table) NChi() int { return T.nchi }

//NRot returns the number of rotamers per bin.
func (T *Table) NRot() int { return T.nrot }

//Index returns the well vector <-> RotamerID index of the table.
func (T *Table) Index() *RotamerIndex { return T.index }

//Prob returns the probability of the rotamer with the given rank in the bin.
func (T *Table) Prob(flat, rank int) float64 { return T.prob[T.row(flat, rank)] }

//RotNo returns the ID of the rotamer with the given rank in the bin.
func (T *Table) RotNo(flat, rank int) RotamerID { return RotamerID(T.rotno[T.row(flat, rank)]) }

//ChiMean returns a view of the chi means for the rank in the bin. It must not be modified.
func (T *Table) ChiMean(flat, rank int) []float64 {
	r := T.row(flat, rank) * T.nchi
	return T.chiMean[r : r+T.nchi]
}

//ChiSD returns a view of the chi standard deviations for the rank in the bin. It must not be modified.
func (T *Table) ChiSD(flat, rank int) []float64 {
	r := T.row(flat, rank) * T.nchi
	return T.chiSD[r : r+T.nchi]
}

//NDerivs returns a view of -ln(p) and its derivatives for the rank in the bin. It must not be modified.
func (T *Table) NDerivs(flat, rank int) []float64 {
	r := T.row(flat, rank) * T.nderiv
	return T.nDerivs[r : r+T.nderiv]
}

//SortedRank returns the rank of rotamer id in the bin, or 0 for an unknown id.
func (T *Table) SortedRank(flat int, id RotamerID) int {
	if id < 1 || int(id) > T.nrot {
		return 0
	}
	return int(T.sorted[flat*T.nrot+int(id)-1])
}

//Lookup returns a copy of the row for the rank in the bin.
func (T *Table) Lookup(flat, rank int) PackedRotamer {
	return PackedRotamer{
		RotNo:   T.RotNo(flat, rank),
		Prob:    T.Prob(flat, rank),
		ChiMean: append([]float64(nil), T.ChiMean(flat, rank)...),
		ChiSD:   append([]float64(nil), T.ChiSD(flat, rank)...),
		NDerivs: append([]float64(nil), T.NDerivs(flat, rank)...),
	}
}

//MemoryUsage returns the approximate size of the table in bytes.
func (T *Table) MemoryUsage() int {
	floats := len(T.chiMean) + len(T.chiSD) + len(T.prob) + len(T.nDerivs)
	ints := len(T.rotno) + len(T.sorted)
	idx := T.index.Len() * (T.nchi*8 + 24 + 16)
	return floats*8 + ints*4 + idx
}
