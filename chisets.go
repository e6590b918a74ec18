/*
 * chisets.go, part of dunbrack.
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
)

//ChiRotamer is a fixed sample for a chi that is not tabulated.
type ChiRotamer struct {
	Mean float64 `yaml:"mean"`
	SD   float64 `yaml:"sd"`
}

//ProtonChi describes a chi that only moves a proton, like the hydroxyl of serine.
type ProtonChi struct {
	Samples []float64 `yaml:"samples"`
	Extra   []float64 `yaml:"extra,omitempty"` //added to and subtracted from each sample
}

//ResidueType holds what a library needs to know about a residue to build its
//rotamers, beyond the tabulated chis. Maps are keyed by chi number, from 1.
type ResidueType struct {
	NChi           int                  `yaml:"nchi"`
	ChiRotamers    map[int][]ChiRotamer `yaml:"chirotamers,omitempty"`
	ProtonChis     map[int]ProtonChi    `yaml:"protonchis,omitempty"`
	IdealChi       map[int]float64      `yaml:"idealchi,omitempty"`
	RingConformers [][]float64          `yaml:"rings,omitempty"`
}

//SampleOptions controls how rotamers are expanded into chi sets.
type SampleOptions struct {
	ExtraChiSteps        [][]float64 //per tabulated chi, in standard deviations. The mean is always sampled.
	NoExtraProtonSamples bool
	Target               float64 //accumulated probability at which to stop. See Enumerate
}

//ChiSet is one set of chi angles to build for a rotamer.
type ChiSet struct {
	RotNo   RotamerID
	Chi     []float64
	ExSteps []float64 //in standard deviations, 0 for non-tabulated chis
	Wells   []int
	Prob    float64
}

//candidate is one value sampled for a chi.
type candidate struct {
	chi, step, weight float64
	well              int
}

//chiCandidates returns the samples for every chi of rt, in the frame of the table.
func (L *Library) chiCandidates(rt ResidueType, s Sample, opts SampleOptions) ([][]candidate, error) {
	nchi := L.table.nchi
	if rt.NChi < nchi {
		rt.NChi = nchi
	}
	ret := make([][]candidate, rt.NChi)
	for i := 0; i < nchi; i++ {
		mean := s.ChiMean[i]
		if s.Mirrored {
			mean = -mean
		}
		sd := s.ChiSD[i]
		ret[i] = append(ret[i], candidate{chi: mean, weight: 1, well: s.Wells[i]})
		if sd <= 0 || i >= len(opts.ExtraChiSteps) {
			continue
		}
		for _, step := range opts.ExtraChiSteps[i] {
			if step == 0 {
				continue
			}
			ret[i] = append(ret[i], candidate{chi: PeriodicRange(mean+step*sd, 360), step: step, weight: math.Exp(-step * step / 2), well: s.Wells[i]})
		}
	}
	for i := nchi; i < rt.NChi; i++ {
		num := i + 1
		if rots, ok := rt.ChiRotamers[num]; ok && len(rots) > 0 {
			for k, r := range rots {
				ret[i] = append(ret[i], candidate{chi: r.Mean, weight: 1, well: k + 1})
			}
			continue
		}
		if p, ok := rt.ProtonChis[num]; ok && len(p.Samples) > 0 {
			for k, v := range p.Samples {
				ret[i] = append(ret[i], candidate{chi: v, weight: 1, well: k + 1})
				if opts.NoExtraProtonSamples {
					continue
				}
				for _, e := range p.Extra {
					ret[i] = append(ret[i], candidate{chi: PeriodicRange(v+e, 360), weight: 1, well: k + 1})
					ret[i] = append(ret[i], candidate{chi: PeriodicRange(v-e, 360), weight: 1, well: k + 1})
				}
			}
			continue
		}
		ideal, ok := rt.IdealChi[num]
		if !ok {
			return nil, newConfigurationError(fmt.Sprintf("no samples for chi %d", num), L.name, "chiCandidates")
		}
		ret[i] = append(ret[i], candidate{chi: ideal, weight: 1, well: 1})
	}
	return ret, nil
}

//ChiSets expands the rotamer sample s into the chi sets to build, for a residue of type rt.
//The product of the samples for each chi is taken with the last chi varying fastest.
//Every set but the first is dropped if its probability is below MinExtraChiProbability.
func (L *Library) ChiSets(rt ResidueType, s Sample, opts SampleOptions) ([]ChiSet, error) {
	cands, err := L.chiCandidates(rt, s, opts)
	if err != nil {
		return nil, errDecorate(err, "ChiSets")
	}
	n := len(cands)
	idx := make([]int, n)
	var ret []ChiSet
	for {
		set := ChiSet{
			RotNo:   s.RotNo,
			Chi:     make([]float64, n),
			ExSteps: make([]float64, n),
			Wells:   make([]int, n),
			Prob:    s.Prob,
		}
		for i, k := range idx {
			c := cands[i][k]
			set.Chi[i] = c.chi
			set.ExSteps[i] = c.step
			set.Wells[i] = c.well
			set.Prob *= c.weight
		}
		if len(ret) == 0 || set.Prob >= MinExtraChiProbability {
			if s.Mirrored {
				negate(set.Chi)
			}
			ret = append(ret, set)
		}
		i := n - 1
		for ; i >= 0; i-- {
			idx[i]++
			if idx[i] < len(cands[i]) {
				break
			}
			idx[i] = 0
		}
		if i < 0 {
			break
		}
	}
	return ret, nil
}

//BuildRotamers enumerates the rotamers of res up to opts.Target, expands each into chi
//sets and gives every set to b, once as is, and once more for each ring conformer of rt.
//It returns the number of calls to b.Build.
func (L *Library) BuildRotamers(res Backbone, rt ResidueType, opts SampleOptions, b Builder) (int, error) {
	E, err := L.Enumerate(res, opts.Target)
	if err != nil {
		return 0, errDecorate(err, "BuildRotamers")
	}
	built := 0
	for {
		s, err := E.Next()
		if err != nil {
			if _, ok := err.(LastRotamerError); ok {
				break
			}
			return built, errDecorate(err, "BuildRotamers")
		}
		sets, err := L.ChiSets(rt, s, opts)
		if err != nil {
			return built, errDecorate(err, "BuildRotamers")
		}
		for _, set := range sets {
			if err := b.Build(set, nil); err != nil {
				return built, errDecorate(err, "BuildRotamers")
			}
			built++
			for _, ring := range rt.RingConformers {
				if err := b.Build(set, ring); err != nil {
					return built, errDecorate(err, "BuildRotamers")
				}
				built++
			}
		}
	}
	L.log.WithField("library", L.name).Debugf("built %d chi sets from %d rotamers, accumulated probability %.4f", built, E.Count(), E.Accumulated())
	return built, nil
}

//RandomRotamer draws a rotamer for res following the interpolated probabilities
//and returns nchi chis for it. If perturb is true, each tabulated chi is drawn from the normal
//distribution around its mean, else the mean is used. Chis beyond the tabulated ones are uniform.
func (L *Library) RandomRotamer(res Backbone, nchi int, rng RandSource, perturb bool) ([]float64, RotamerID, error) {
	c, _, err := L.locate(res)
	if err != nil {
		return nil, NoRotamer, errDecorate(err, "RandomRotamer")
	}
	T := L.table
	flat := T.grid.Flatten(c.Bin)
	r := rng.Float64()
	var acc float64
	var I Interpolated
	for rank := 1; ; rank++ {
		I = L.interpolate(T.RotNo(flat, rank), c, nil, false)
		acc += I.Prob
		if acc >= r || rank == T.nrot {
			break
		}
	}
	if nchi < T.nchi {
		nchi = T.nchi
	}
	chi := make([]float64, nchi)
	for i := range chi {
		if i >= T.nchi {
			chi[i] = rng.Float64()*360 - 180
			continue
		}
		chi[i] = I.ChiMean[i]
		if perturb {
			chi[i] = PeriodicRange(chi[i]+rng.NormFloat64()*I.ChiSD[i], 360)
		}
		if res.Mirrored() {
			chi[i] = -chi[i]
		}
	}
	return chi, I.RotNo, nil
}
