/*
 * energy.go, part of dunbrack.
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
	"math"
)

//Energy is the rotamer energy of a residue, in units of kT, and its
//derivatives in 1/degrees.
type Energy struct {
	Total float64
	Rot   float64 //-ln p, plus the entropy correction, if enabled
	Dev   float64 //deviation of the chis from the rotamer means

	DBackbone    []float64
	DBackboneRot []float64
	DBackboneDev []float64
	DChi         []float64
	ChiDev       []float64 //chi minus mean, in the frame of the table
	RotNo        RotamerID
}

//Energy computes the rotamer energy of res with the given chis.
//Only the first NChi chis are scored.
func (L *Library) Energy(res Backbone, chi []float64) (Energy, error) {
	c, missing, err := L.locate(res)
	if err != nil {
		return Energy{}, errDecorate(err, "Energy")
	}
	mirrored := res.Mirrored()
	tchi, err := L.tableChi(chi, mirrored)
	if err != nil {
		return Energy{}, errDecorate(err, "Energy")
	}
	id := L.classify(tchi, L.table.grid.Flatten(c.Bin))
	I := L.interpolate(id, c, tchi, true)
	n := L.N()
	nchi := L.NChi()
	E := Energy{
		RotNo:        id,
		DBackbone:    make([]float64, n),
		DBackboneRot: make([]float64, n),
		DBackboneDev: make([]float64, n),
		DChi:         make([]float64, nchi),
		ChiDev:       make([]float64, nchi),
	}
	E.Rot = I.NegLnProb
	copy(E.DBackboneRot, I.DNegLnProb)
	if L.entropy != nil {
		E.Rot += I.Entropy
		for i, v := range I.DEntropy {
			E.DBackboneRot[i] += v
		}
	}
	for i := 0; i < nchi; i++ {
		sd := I.ChiSD[i]
		dev := PeriodicRange(tchi[i]-I.ChiMean[i], 360)
		E.ChiDev[i] = dev
		f := dev * dev
		g := 2 * sd * sd
		E.Dev += f / g
		if L.cfg.NormalizeSD {
			E.Dev += math.Log(sd)
		}
		E.DChi[i] = dev / (sd * sd)
		fp := -2 * dev
		gp := 4 * sd
		for a := 0; a < n; a++ {
			dmean := I.DChiMean[i][a]
			dsd := I.DChiSD[i][a]
			E.DBackboneDev[a] += (g*fp*dmean - f*gp*dsd) / (g * g)
			if L.cfg.NormalizeSD {
				E.DBackboneDev[a] += dsd / sd
			}
		}
	}
	E.Total = E.Rot + E.Dev
	for a := 0; a < n; a++ {
		if missing[a] {
			E.DBackboneRot[a] = 0
			E.DBackboneDev[a] = 0
		}
		E.DBackbone[a] = E.DBackboneRot[a] + E.DBackboneDev[a]
	}
	if mirrored {
		negate(E.DBackbone, E.DBackboneRot, E.DBackboneDev, E.DChi)
	}
	return E, nil
}

func negate(s ...[]float64) {
	for _, v := range s {
		for i := range v {
			v[i] = -v[i]
		}
	}
}

//BestRotamerEnergy returns -ln of the highest interpolated probability
//among the rotamers that are most probable at any corner of the cell
//around res. If currentOnly is true, only the rotamer of chi is considered.
func (L *Library) BestRotamerEnergy(res Backbone, chi []float64, currentOnly bool) (float64, error) {
	c, _, err := L.locate(res)
	if err != nil {
		return 0, errDecorate(err, "BestRotamerEnergy")
	}
	G := L.table.grid
	if currentOnly {
		tchi, err := L.tableChi(chi, res.Mirrored())
		if err != nil {
			return 0, errDecorate(err, "BestRotamerEnergy")
		}
		id := L.classify(tchi, G.Flatten(c.Bin))
		return L.interpolate(id, c, tchi, true).NegLnProb, nil
	}
	best := math.Inf(1)
	for k := 0; k < G.Corners(); k++ {
		id := L.table.RotNo(G.Corner(k, c), 1)
		e := L.interpolate(id, c, nil, false).NegLnProb
		if e < best {
			best = e
		}
	}
	return best, nil
}
