/*
 * config.go, part of dunbrack.
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

const (
	//ProbabilityFloor is the smallest probability stored in, or interpolated from, a table.
	ProbabilityFloor = 1e-6
	//MinExtraChiProbability is the smallest probability a chi set other than the first
	//one of a rotamer may have to be built.
	MinExtraChiProbability = 0.001

	NeutralPhi   = -90.0
	NeutralPsi   = 130.0
	NeutralOmega = 180.0

	//maxChi is the largest number of tabulated chis. Well vectors are packed
	//in 8 bits per chi.
	maxChi = 8
)

//Segment maps the backbone angles in [Lo, Hi) to bins on a segmented axis.
//The angle given to the binning is Clamp if set, else the angle
//in [0,360) if NonNegative, else the angle in [-180,180).
//Offset is added to the resulting bins before wrapping them into the axis.
type Segment struct {
	Lo          float64  `yaml:"lo"`
	Hi          float64  `yaml:"hi"`
	Start       float64  `yaml:"start"`
	Clamp       *float64 `yaml:"clamp,omitempty"`
	NonNegative bool     `yaml:"nonnegative,omitempty"`
	Offset      int      `yaml:"offset"`
}

//Axis is the bin layout of one backbone dihedral.
type Axis struct {
	Name     string    `yaml:"name"`
	Bins     int       `yaml:"bins"`
	Width    float64   `yaml:"width,omitempty"` //0 means 360/Bins
	Neutral  float64   `yaml:"neutral"`         //used when the torsion is not defined
	Segments []Segment `yaml:"segments,omitempty"`
}

//BinWidth returns the width in degrees of the bins in the axis.
func (A Axis) BinWidth() float64 {
	if A.Width > 0 {
		return A.Width
	}
	return 360.0 / float64(A.Bins)
}

//Uniform returns a uniform axis with bins bins.
func Uniform(name string, bins int, neutral float64) Axis {
	return Axis{Name: name, Bins: bins, Width: 360.0 / float64(bins), Neutral: neutral}
}

//WellSet defines the rotamer wells of one chi. Edges are sorted
//angles in [-180,180); the range between Edges[i] and Edges[i+1] belongs
//to well Labels[i], and the range after the last edge wraps around to the first.
type WellSet struct {
	Edges  []float64 `yaml:"edges"`
	Labels []int     `yaml:"labels"`
}

//DefaultWells are the usual three wells, g+ (1) for [0,120), t (2) for [120,-120)
//and g- (3) for [-120,0).
func DefaultWells() WellSet {
	return WellSet{Edges: []float64{-120, 0, 120}, Labels: []int{3, 1, 2}}
}

//Well returns the well for the chi angle.
func (W WellSet) Well(chi float64) int {
	a := PeriodicRange(chi, 360)
	i := sort.Search(len(W.Edges), func(j int) bool { return W.Edges[j] > a }) - 1
	if i < 0 {
		i = len(W.Edges) - 1
	}
	return W.Labels[i]
}

//NWells returns the number of wells in the set.
func (W WellSet) NWells() int {
	n := 0
	for _, v := range W.Labels {
		if v > n {
			n = v
		}
	}
	return n
}

func (W WellSet) check() error {
	if len(W.Edges) == 0 || len(W.Edges) != len(W.Labels) {
		return fmt.Errorf("%d edges and %d labels", len(W.Edges), len(W.Labels))
	}
	for i, v := range W.Edges {
		if v < -180 || v >= 180 {
			return fmt.Errorf("edge %.2f out of [-180,180)", v)
		}
		if i > 0 && v <= W.Edges[i-1] {
			return fmt.Errorf("edges not sorted")
		}
		if W.Labels[i] < 1 || W.Labels[i] > 255 {
			return fmt.Errorf("well label %d out of range", W.Labels[i])
		}
	}
	return nil
}

//ResidueClass describes the backbone layout and the chi wells for one kind of residue.
type ResidueClass struct {
	Name      string    `yaml:"name"`
	NChi      int       `yaml:"nchi"`
	Axes      []Axis    `yaml:"axes"`
	Wells     []WellSet `yaml:"wells,omitempty"` //one per chi. If empty, DefaultWells is used for all.
	Canonical bool      `yaml:"canonical"`
	Peptoid   bool      `yaml:"peptoid,omitempty"`
}

//N returns the number of backbone dihedrals of the class.
func (R ResidueClass) N() int { return len(R.Axes) }

//WellSet returns the wells for chi i (0-based).
func (R ResidueClass) WellSet(i int) WellSet {
	if len(R.Wells) == 0 {
		return DefaultWells()
	}
	return R.Wells[i]
}

//WellsOf returns the well vector for the first NChi angles in chi.
func (R ResidueClass) WellsOf(chi []float64, dest ...[]int) []int {
	var ret []int
	if len(dest) > 0 && len(dest[0]) == R.NChi {
		ret = dest[0]
	} else {
		ret = make([]int, R.NChi)
	}
	for i := range ret {
		ret[i] = R.WellSet(i).Well(chi[i])
	}
	return ret
}

//Validate checks the class for consistency.
func (R ResidueClass) Validate() error {
	if R.NChi < 1 || R.NChi > maxChi {
		return newConfigurationError(fmt.Sprintf("class %s: %d chis, must be between 1 and %d", R.Name, R.NChi, maxChi), R.Name, "Validate")
	}
	if len(R.Axes) < 1 || len(R.Axes) > 5 {
		return newConfigurationError(fmt.Sprintf("class %s: %d backbone axes, must be between 1 and 5", R.Name, len(R.Axes)), R.Name, "Validate")
	}
	for i, a := range R.Axes {
		if a.Bins < 1 {
			return newConfigurationError(fmt.Sprintf("class %s: axis %d has %d bins", R.Name, i+1, a.Bins), R.Name, "Validate")
		}
		if len(a.Segments) == 0 && math.Abs(float64(a.Bins)*a.BinWidth()-360) > AngleEpsilon {
			return newConfigurationError(fmt.Sprintf("class %s: axis %d has %d bins of %.3f degrees, which don't cover 360", R.Name, i+1, a.Bins, a.BinWidth()), R.Name, "Validate")
		}
		for _, s := range a.Segments {
			if s.Hi <= s.Lo {
				return newConfigurationError(fmt.Sprintf("class %s: axis %d has an empty segment [%.1f,%.1f)", R.Name, i+1, s.Lo, s.Hi), R.Name, "Validate")
			}
		}
	}
	if len(R.Wells) != 0 && len(R.Wells) != R.NChi {
		return newConfigurationError(fmt.Sprintf("class %s: %d well sets for %d chis", R.Name, len(R.Wells), R.NChi), R.Name, "Validate")
	}
	for i, w := range R.Wells {
		if err := w.check(); err != nil {
			return newConfigurationError(fmt.Sprintf("class %s: chi %d wells", R.Name, i+1), R.Name, "Validate", err)
		}
	}
	return nil
}

//Config holds everything that changes the behavior of a library. It is
//given at construction time and never changes afterwards.
type Config struct {
	Class                  ResidueClass
	UseVoronoiCanonical    bool //nearest-centroid classification for canonical classes
	UseVoronoiNonCanonical bool //nearest-centroid classification for other classes
	UseBicubic             bool //spline-interpolated -ln(p). If false, -ln of the multilinear probability.
	EntropyCorrection      bool
	NormalizeSD            bool //add ln(sd) to the chi deviation penalty
	ReducedResolution      bool //12 bins of 30 degrees in every uniform axis
	Logger                 *logrus.Logger
}

//DefaultConfig returns the usual configuration for class.
func DefaultConfig(class ResidueClass) Config {
	return Config{
		Class:                  class,
		UseVoronoiNonCanonical: true,
		UseBicubic:             true,
	}
}

//Voronoi returns true if the nearest-centroid classification is
//used for the configured class.
func (C Config) Voronoi() bool {
	if C.Class.Canonical {
		return C.UseVoronoiCanonical
	}
	return C.UseVoronoiNonCanonical
}

//Axes returns the bin layout actually used, which depends on
//ReducedResolution.
func (C Config) Axes() []Axis {
	ret := make([]Axis, len(C.Class.Axes))
	for i, v := range C.Class.Axes {
		ret[i] = v
		if C.ReducedResolution && len(v.Segments) == 0 {
			ret[i].Bins = 12
			ret[i].Width = 30
		}
	}
	return ret
}

func (C Config) logger() *logrus.Logger {
	if C.Logger != nil {
		return C.Logger
	}
	return logrus.StandardLogger()
}
