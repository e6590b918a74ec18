/*
 * classes.go, part of dunbrack.
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
	"io"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//PeptideClass returns a class with the usual phi/psi layout, 36 bins
//of 10 degrees on each axis.
func PeptideClass(name string, nchi int, wells ...WellSet) ResidueClass {
	return ResidueClass{
		Name:      name,
		NChi:      nchi,
		Axes:      []Axis{Uniform("phi", 36, NeutralPhi), Uniform("psi", 36, NeutralPsi)},
		Wells:     wells,
		Canonical: true,
	}
}

func fptr(f float64) *float64 { return &f }

//OmegaSegments is the layout of the peptoid omega axis: 14 bins of 10 degrees,
//7 covering the cis region [-30,30] and 7 the trans region [150,210]. Angles
//between the two regions are clamped to the closest edge.
func OmegaSegments() []Segment {
	return []Segment{
		{Lo: -180, Hi: -150, Start: 150, NonNegative: true, Offset: -4},
		{Lo: -150, Hi: -90, Start: 150, Clamp: fptr(210), Offset: -4},
		{Lo: -90, Hi: -30, Start: -30, Clamp: fptr(-30), Offset: 3},
		{Lo: -30, Hi: 30, Start: -30, Offset: 3},
		{Lo: 30, Hi: 90, Start: -30, Clamp: fptr(30), Offset: 3},
		{Lo: 90, Hi: 150, Start: 150, Clamp: fptr(150), Offset: 10},
		{Lo: 150, Hi: 180, Start: 150, NonNegative: true, Offset: 10},
	}
}

//PeptoidClass returns a class with the omega/phi/psi layout used for peptoids.
func PeptoidClass(name string, nchi int, wells ...WellSet) ResidueClass {
	omega := Axis{Name: "omega", Bins: 14, Width: 10, Neutral: NeutralOmega, Segments: OmegaSegments()}
	return ResidueClass{
		Name:    name,
		NChi:    nchi,
		Axes:    []Axis{omega, Uniform("phi", 36, NeutralPhi), Uniform("psi", 36, NeutralPsi)},
		Wells:   wells,
		Peptoid: true,
	}
}

var builtinChis = map[string]int{
	"ARG": 4,
	"LYS": 4,
	"MET": 3,
	"ILE": 2,
	"LEU": 2,
	"CYS": 1,
	"SER": 1,
	"THR": 1,
	"VAL": 1,
	"PRO": 1,
}

//BuiltinClass returns the class for one of the rotameric canonical amino acids,
//by its three-letter code.
func BuiltinClass(name string) (ResidueClass, bool) {
	name = strings.ToUpper(name)
	if name == "PRO" {
		//proline chi1 has only the two puckers
		return PeptideClass(name, 1, WellSet{Edges: []float64{-180, 0}, Labels: []int{2, 1}}), true
	}
	n, ok := builtinChis[name]
	if !ok {
		return ResidueClass{}, false
	}
	return PeptideClass(name, n), true
}

//BuiltinClasses returns the names of all the built-in classes, sorted.
func BuiltinClasses() []string {
	ret := make([]string, 0, len(builtinChis))
	for k := range builtinChis {
		ret = append(ret, k)
	}
	sort.Strings(ret)
	return ret
}

type classFile struct {
	Classes []ResidueClass `yaml:"classes"`
}

//ReadClasses reads residue class definitions in YAML, as written by WriteClasses.
//Every class is validated.
func ReadClasses(r io.Reader) (map[string]ResidueClass, error) {
	var f classFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return nil, newConfigurationError("can't decode residue classes", "", "ReadClasses", err)
	}
	ret := make(map[string]ResidueClass, len(f.Classes))
	for _, v := range f.Classes {
		if err := v.Validate(); err != nil {
			return nil, errDecorate(err, "ReadClasses")
		}
		if _, ok := ret[v.Name]; ok {
			return nil, newConfigurationError(fmt.Sprintf("class %s defined twice", v.Name), "", "ReadClasses")
		}
		ret[v.Name] = v
	}
	return ret, nil
}

//WriteClasses writes the classes in YAML, sorted by name.
func WriteClasses(w io.Writer, classes map[string]ResidueClass) error {
	names := make([]string, 0, len(classes))
	for k := range classes {
		names = append(names, k)
	}
	sort.Strings(names)
	var f classFile
	for _, v := range names {
		f.Classes = append(f.Classes, classes[v])
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return err
	}
	return enc.Close()
}
