/*
 * classify.go, part of dunbrack.
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

import "math"

//Classify returns the tabulated rotamer for the chis of res. For mirrored residues
//chi is inverted before the lookup.
//With the well classification, untabulated well combinations are replaced by the
//first tabulated one that differs in a single chi, trying from the last chi to the first,
//or by the most probable rotamer of the bin if there is none.
//With the nearest-centroid classification, the rotamer of the bin with the closest chi means is returned.
func (L *Library) Classify(res Backbone, chi []float64) (RotamerID, error) {
	c, _, err := L.locate(res)
	if err != nil {
		return NoRotamer, errDecorate(err, "Classify")
	}
	tchi, err := L.tableChi(chi, res.Mirrored())
	if err != nil {
		return NoRotamer, errDecorate(err, "Classify")
	}
	return L.classify(tchi, L.table.grid.Flatten(c.Bin)), nil
}

//ClassifyWells returns the well vector for chi, already in the frame of
//the table, and its rotamer, which can be NoRotamer.
func (L *Library) ClassifyWells(chi []float64) ([]int, RotamerID) {
	w := L.cfg.Class.WellsOf(chi)
	return w, L.table.index.ID(w)
}

func (L *Library) classify(chi []float64, flat int) RotamerID {
	if L.voronoi {
		return L.voronoiRotamer(chi, flat)
	}
	w, id := L.ClassifyWells(chi)
	if id == NoRotamer {
		id = L.fallbackRotamer(w, flat)
		L.log.WithField("library", L.name).Debugf("untabulated rotamer %v replaced by %v", w, L.table.index.Wells(id))
	}
	return id
}

//fallbackRotamer finds a stand-in for the untabulated well vector w. w is
//restored before returning.
func (L *Library) fallbackRotamer(w []int, flat int) RotamerID {
	for i := len(w) - 1; i >= 0; i-- {
		orig := w[i]
		nw := L.cfg.Class.WellSet(i).NWells()
		for v := 1; v <= nw; v++ {
			if v == orig {
				continue
			}
			w[i] = v
			if id := L.table.index.ID(w); id != NoRotamer {
				w[i] = orig
				return id
			}
		}
		w[i] = orig
	}
	return L.table.RotNo(flat, 1)
}

//voronoiRotamer returns the rotamer of the bin whose chi means are closest to chi.
//Ties go to the most probable one.
func (L *Library) voronoiRotamer(chi []float64, flat int) RotamerID {
	T := L.table
	best := T.RotNo(flat, 1)
	min := math.Inf(1)
	for rank := 1; rank <= T.nrot; rank++ {
		if d := chiDistance(chi, T.ChiMean(flat, rank)); d < min {
			min = d
			best = T.RotNo(flat, rank)
		}
	}
	return best
}
