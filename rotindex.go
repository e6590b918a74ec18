/*
 * rotindex.go, part of dunbrack.
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
	"sort"
)

//RotamerID names one tabulated combination of chi wells. IDs start at 1.
type RotamerID int

//NoRotamer is returned when a well combination is not tabulated.
const NoRotamer RotamerID = 0

//RotamerIndex is the partial bijection between well vectors and RotamerIDs.
//Only the combinations present in a table have an ID.
type RotamerIndex struct {
	nchi  int
	ids   map[uint64]RotamerID
	wells [][]int //wells[id-1]
}

//packWells encodes a well vector in an integer, 8 bits per chi.
func packWells(w []int) uint64 {
	var k uint64
	for _, v := range w {
		k = k<<8 | uint64(v&0xff)
	}
	return k
}

//NewRotamerIndex builds an index from the given well vectors. Repeated vectors are
//merged, and IDs are assigned in lexicographic order of the vectors.
func NewRotamerIndex(nchi int, wells [][]int) (*RotamerIndex, error) {
	uniq := make(map[uint64][]int)
	for _, w := range wells {
		if err := checkWells(nchi, w); err != nil {
			return nil, err
		}
		uniq[packWells(w)] = w
	}
	sorted := make([][]int, 0, len(uniq))
	for _, w := range uniq {
		sorted = append(sorted, append([]int(nil), w...))
	}
	sort.Slice(sorted, func(i, j int) bool {
		for k := range sorted[i] {
			if sorted[i][k] != sorted[j][k] {
				return sorted[i][k] < sorted[j][k]
			}
		}
		return false
	})
	return indexFromList(nchi, sorted)
}

//indexFromList builds an index where wells[i] gets the ID i+1.
func indexFromList(nchi int, wells [][]int) (*RotamerIndex, error) {
	R := &RotamerIndex{nchi: nchi, ids: make(map[uint64]RotamerID, len(wells)), wells: wells}
	for i, w := range wells {
		if err := checkWells(nchi, w); err != nil {
			return nil, err
		}
		k := packWells(w)
		if _, ok := R.ids[k]; ok {
			return nil, fmt.Errorf("well vector %v appears twice", w)
		}
		R.ids[k] = RotamerID(i + 1)
	}
	return R, nil
}

func checkWells(nchi int, w []int) error {
	if len(w) != nchi {
		return fmt.Errorf("well vector %v should have %d elements", w, nchi)
	}
	for _, v := range w {
		if v < 1 || v > 255 {
			return fmt.Errorf("well %d out of range in %v", v, w)
		}
	}
	return nil
}

//Len returns the number of tabulated rotamers.
func (R *RotamerIndex) Len() int { return len(R.wells) }

//ID returns the ID for the well vector w, or NoRotamer if it's not tabulated.
func (R *RotamerIndex) ID(w []int) RotamerID {
	if len(w) != R.nchi {
		return NoRotamer
	}
	return R.ids[packWells(w)]
}

//Wells returns a copy of the well vector for id, or nil for an unknown id.
func (R *RotamerIndex) Wells(id RotamerID) []int {
	if id < 1 || int(id) > len(R.wells) {
		return nil
	}
	return append([]int(nil), R.wells[id-1]...)
}
