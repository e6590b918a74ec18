/*
 * enumerate.go, part of dunbrack.
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
)

//Sample is a rotamer interpolated at a backbone conformation. Chi means are
//in the frame of the residue.
type Sample struct {
	RotNo    RotamerID
	Rank     int //rank in the bin of the residue
	Wells    []int
	Prob     float64
	ChiMean  []float64
	ChiSD    []float64
	Mirrored bool
}

func (L *Library) sample(c BinCoordinate, flat, rank int, mirrored bool) Sample {
	id := L.table.RotNo(flat, rank)
	I := L.interpolate(id, c, nil, false)
	s := Sample{
		RotNo:    id,
		Rank:     rank,
		Wells:    L.table.index.Wells(id),
		Prob:     I.Prob,
		ChiMean:  I.ChiMean,
		ChiSD:    I.ChiSD,
		Mirrored: mirrored,
	}
	if mirrored {
		negate(s.ChiMean)
	}
	return s
}

func (L *Library) checkRank(rank int, caller string) error {
	if rank < 1 || rank > L.table.nrot {
		return newConfigurationError(fmt.Sprintf("rank %d out of range [1,%d]", rank, L.table.nrot), L.name, caller)
	}
	return nil
}

//AllRotamerSamples returns every tabulated rotamer interpolated at the backbone of res,
//in the rank order of its bin.
func (L *Library) AllRotamerSamples(res Backbone) ([]Sample, error) {
	c, _, err := L.locate(res)
	if err != nil {
		return nil, errDecorate(err, "AllRotamerSamples")
	}
	flat := L.table.grid.Flatten(c.Bin)
	ret := make([]Sample, 0, L.table.nrot)
	for rank := 1; rank <= L.table.nrot; rank++ {
		ret = append(ret, L.sample(c, flat, rank, res.Mirrored()))
	}
	return ret, nil
}

//RotamerSample returns the rotamer with the given rank in the bin of res, interpolated.
func (L *Library) RotamerSample(res Backbone, rank int) (Sample, error) {
	if err := L.checkRank(rank, "RotamerSample"); err != nil {
		return Sample{}, err
	}
	c, _, err := L.locate(res)
	if err != nil {
		return Sample{}, errDecorate(err, "RotamerSample")
	}
	return L.sample(c, L.table.grid.Flatten(c.Bin), rank, res.Mirrored()), nil
}

//ProbabilityForRotamer returns the multilinear probability of the rotamer
//with the given rank in the bin of res.
func (L *Library) ProbabilityForRotamer(res Backbone, rank int) (float64, error) {
	if err := L.checkRank(rank, "ProbabilityForRotamer"); err != nil {
		return 0, err
	}
	c, _, err := L.locate(res)
	if err != nil {
		return 0, errDecorate(err, "ProbabilityForRotamer")
	}
	id := L.table.RotNo(L.table.grid.Flatten(c.Bin), rank)
	return L.interpolate(id, c, nil, false).BilinearProb, nil
}

//Enumerator walks the rotamers of a residue in rank order until their
//accumulated probability reaches a target. It is not safe for concurrent use,
//but any number of enumerators can share a library.
type Enumerator struct {
	lib      *Library
	c        BinCoordinate
	flat     int
	mirrored bool
	target   float64
	count    int
	acc      float64
}

//Enumerate returns an enumerator over the rotamers of res. A target of 0 or less, or
//of 1 or more, enumerates every rotamer.
func (L *Library) Enumerate(res Backbone, target float64) (*Enumerator, error) {
	c, _, err := L.locate(res)
	if err != nil {
		return nil, errDecorate(err, "Enumerate")
	}
	if target <= 0 || target >= 1 {
		target = 2
	}
	E := &Enumerator{lib: L, c: c, flat: L.table.grid.Flatten(c.Bin), mirrored: res.Mirrored(), target: target}
	return E, nil
}

//ResumeEnumerate returns an enumerator positioned as the one whose Accumulated
//method returned token, for the same residue and target.
func (L *Library) ResumeEnumerate(res Backbone, target, token float64) (*Enumerator, error) {
	E, err := L.Enumerate(res, target)
	if err != nil {
		return nil, errDecorate(err, "ResumeEnumerate")
	}
	for E.count < L.table.nrot && E.acc < token-ProbEpsilon {
		E.count++
		E.acc += L.interpolate(L.table.RotNo(E.flat, E.count), E.c, nil, false).Prob
	}
	return E, nil
}

//Next returns the next rotamer. After the last one it returns a LastRotamerError.
func (E *Enumerator) Next() (Sample, error) {
	if E.acc >= E.target || E.count >= E.lib.table.nrot {
		return Sample{}, newLastRotamerError(E.lib.name, "Next")
	}
	E.count++
	s := E.lib.sample(E.c, E.flat, E.count, E.mirrored)
	E.acc += s.Prob
	return s, nil
}

//Accumulated returns the probability of the rotamers returned so far.
func (E *Enumerator) Accumulated() float64 { return E.acc }

//Count returns the number of rotamers returned so far.
func (E *Enumerator) Count() int { return E.count }
