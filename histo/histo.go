/*
 * histo.go, part of dunbrack.
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

//Package histo accumulates rotamer observations in a grid of backbone bins, and
//turns them into the records a rotamer table is built from.
package histo

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	dunbrack "github.com/MoritzErtelt/rosetta-sub000"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

//Combines 2 matrices element-wise using the function f, which should take 2 histograms to be
//combined and one more where the result of the operation is stored.
func MatrixCombine(f func(a, b, dest *Data), a, b, dest *Matrix) {
	if !sameInts(a.dims, b.dims) || !sameInts(a.dims, dest.dims) || a.nchi != b.nchi || a.nchi != dest.nchi {
		panic("dunbrack/histo.MatrixCombine: Ill-formed matrices for merging")
	}
	for i, v := range dest.d {
		f(a.d[i], b.d[i], v)
	}
}

func sameInts(a, b []int) bool {
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

//A matrix of histograms, one per backbone bin. Bins are 1-based, as in
//dunbrack.Grid, which defines the element order.
type Matrix struct {
	dims []int
	nchi int
	grid dunbrack.Grid
	d    []*Data
}

//NewMatrix returns a new matrix of *Data for observations with nchi chis, with
//the given number of bins per axis. The elements are nil until Fill or NewHisto is called.
func NewMatrix(nchi int, dims ...int) *Matrix {
	ret := new(Matrix)
	ret.dims = append([]int(nil), dims...)
	ret.nchi = nchi
	ret.grid = dunbrack.NewGrid(dims...)
	ret.d = make([]*Data, ret.grid.Size())
	return ret
}

//Dims returns the number of bins per axis
func (M *Matrix) Dims() []int {
	return append([]int(nil), M.dims...)
}

//NChi returns the number of chis in each observation.
func (M *Matrix) NChi() int { return M.nchi }

func (M *Matrix) String() string {
	ret := fmt.Sprintf("dims:%v chis:%d | Data:\n", M.dims, M.nchi)
	t := make([]string, 0, len(M.d))
	for _, v := range M.d {
		if v != nil && v.total > 0 {
			t = append(t, v.String())
		}
	}
	return ret + strings.Join(t, "\n\n")
}

func (M *Matrix) MarshalJSON() ([]byte, error) {
	j, err := json.Marshal(struct {
		Dims []int   `json:"dims"`
		NChi int     `json:"nchi"`
		D    []*Data `json:"data"`
	}{
		Dims: M.dims,
		NChi: M.nchi,
		D:    M.d,
	})
	if err != nil {
		return nil, err
	}
	return j, nil
}

func (M *Matrix) UnmarshalJSON(b []byte) error {
	var a struct {
		Dims []int   `json:"dims"`
		NChi int     `json:"nchi"`
		D    []*Data `json:"data"`
	}
	err := json.Unmarshal(b, &a)
	if err != nil {
		return err
	}
	M.dims = a.Dims
	M.nchi = a.NChi
	M.grid = dunbrack.NewGrid(a.Dims...)
	if len(a.D) != M.grid.Size() {
		return fmt.Errorf("dunbrack/histo: %d histograms for %d bins", len(a.D), M.grid.Size())
	}
	M.d = a.D
	return nil
}

//returns the index in the []*Data slice of a matrix given
//the bins. Panics if they are out of range.
func (M *Matrix) i(bins []int) int {
	M.Check(bins, true)
	return M.grid.Flatten(bins)
}

//Fill fills the matrix with empty histograms, with IDs equal to their flat index.
func (M *Matrix) Fill() {
	M.grid.Each(func(flat int, bins []int) {
		M.NewHisto(bins, flat)
	})
}

//Check checks if the given bins are within range.
//if pan is given and true, it panics if any is out of range,
//otherwise, it returns an error.
func (M *Matrix) Check(bins []int, pan ...bool) error {
	return M.grid.Check(bins, pan...)
}

//NewHisto puts a new, empty histogram in the given bins.
func (M *Matrix) NewHisto(bins []int, ID ...int) {
	M.d[M.i(bins)] = NewData(ID...)
}

//View returns a view of the histogram in the given bins
func (M *Matrix) View(bins []int) *Data {
	return M.d[M.i(bins)]
}

//Adds one observation to the histogram in the given bins. The histogram is created if needed.
func (M *Matrix) AddData(bins []int, wells []int, chi []float64) {
	i := M.i(bins)
	if M.d[i] == nil {
		M.d[i] = NewData(i)
	}
	M.d[i].AddData(wells, chi)
}

//Observe adds the observation with backbone dihedrals bb and chis chi to the
//bin whose node is closest to bb, using the binning and the wells of the class.
func (M *Matrix) Observe(B *dunbrack.Binner, class dunbrack.ResidueClass, bb, chi []float64) error {
	if len(chi) < M.nchi {
		return fmt.Errorf("dunbrack/histo: observation with %d chis, %d needed", len(chi), M.nchi)
	}
	c, err := B.Bin(bb, "observation")
	if err != nil {
		return err
	}
	bins := make([]int, len(c.Bin))
	for i := range bins {
		bins[i] = c.Bin[i]
		if c.Alpha[i] >= 0.5 {
			bins[i] = c.Next[i]
		}
	}
	if err := M.Check(bins); err != nil {
		return err
	}
	M.AddData(bins, class.WellsOf(chi), chi[:M.nchi])
	return nil
}

//Normalize all the histograms in the matrix
func (M *Matrix) NormalizeAll() {
	for _, v := range M.d {
		if v != nil {
			v.Normalize()
		}
	}
}

//Un-normalize all the histograms in the matrix
func (M *Matrix) UnNormalizeAll() {
	for _, v := range M.d {
		if v != nil {
			v.UnNormalize()
		}
	}
}

//Applies the f function to each element in the matrix, the results are returned
//in flat order. Also returns error unpon failure, or nil.
func (M *Matrix) FromAll(f func(D *Data) (float64, error)) ([]float64, error) {
	r := make([]float64, len(M.d))
	var err error
	for i, v := range M.d {
		r[i], err = f(v)
		if err != nil {
			return nil, fmt.Errorf("dunbrack/histo.Matrix.FromAll: Error at %v: %v", M.grid.Unflatten(i), err)
		}
	}
	return r, nil
}

//Applies the f function to each element in the matrix. Returns error unpon failure, or nil.
func (M *Matrix) ToAll(f func(D *Data) error) error {
	for i, v := range M.d {
		if err := f(v); err != nil {
			return fmt.Errorf("dunbrack/histo.Matrix.ToAll: Error at %v: %v", M.grid.Unflatten(i), err)
		}
	}
	return nil
}

//Records turns the observations into table records. Every bin gets a record for every
//rotamer observed anywhere in the matrix. Probabilities are (count+pseudo)/(total+pseudo*nrot),
//or uniform for bins without observations. Chi means are circular means and standard deviations
//are taken from the deviations around them. Rotamers with fewer than 2 observations in a bin
//use the statistics pooled over all bins, and defaultSD if there are still too few.
func (M *Matrix) Records(pseudo, defaultSD float64) ([]dunbrack.Record, error) {
	pooled := NewData()
	for _, v := range M.d {
		if v != nil {
			pooled.accumulate(v)
		}
	}
	rots := pooled.Rotamers()
	if len(rots) == 0 {
		return nil, fmt.Errorf("dunbrack/histo: no observations")
	}
	poolMean := make([][]float64, len(rots))
	poolSD := make([][]float64, len(rots))
	for i, w := range rots {
		poolMean[i], poolSD[i] = chiStats(pooled.ChiSamples(w), M.nchi, defaultSD)
	}
	nrot := float64(len(rots))
	empty := 0
	ret := make([]dunbrack.Record, 0, len(M.d)*len(rots))
	M.grid.Each(func(flat int, bins []int) {
		D := M.d[flat]
		var total float64
		if D != nil {
			total = D.rawTotal()
		}
		if total == 0 {
			empty++
		}
		for i, w := range rots {
			r := dunbrack.Record{Bins: append([]int(nil), bins...), Wells: append([]int(nil), w...)}
			var count float64
			var samples [][]float64
			if D != nil {
				count = D.rawCount(w)
				samples = D.ChiSamples(w)
			}
			if total+pseudo*nrot > 0 {
				r.Prob = (count + pseudo) / (total + pseudo*nrot)
			} else {
				r.Prob = 1 / nrot
			}
			if len(samples) >= 2 {
				r.ChiMean, r.ChiSD = chiStats(samples, M.nchi, defaultSD)
			} else {
				r.ChiMean = append([]float64(nil), poolMean[i]...)
				r.ChiSD = append([]float64(nil), poolSD[i]...)
			}
			ret = append(ret, r)
		}
	})
	if empty > 0 {
		logrus.WithFields(logrus.Fields{"bins": empty, "rotamers": len(rots)}).Warn("bins without observations get uniform probabilities")
	}
	return ret, nil
}

//chiStats returns the circular mean of each chi in samples, in degrees, and the
//standard deviation of the deviations from it.
func chiStats(samples [][]float64, nchi int, defaultSD float64) ([]float64, []float64) {
	mean := make([]float64, nchi)
	sd := make([]float64, nchi)
	rad := make([]float64, len(samples))
	dev := make([]float64, len(samples))
	for c := 0; c < nchi; c++ {
		for i, s := range samples {
			rad[i] = s[c] * math.Pi / 180
		}
		m := stat.CircularMean(rad, nil) * 180 / math.Pi
		mean[c] = dunbrack.PeriodicRange(m, 360)
		sd[c] = defaultSD
		if len(samples) < 2 {
			continue
		}
		for i, s := range samples {
			dev[i] = dunbrack.PeriodicRange(s[c]-mean[c], 360)
		}
		sd[c] = stat.StdDev(dev, nil)
	}
	return mean, sd
}

//Data is the histogram of the rotamers observed in one backbone bin.
type Data struct {
	id         int
	normalized bool
	total      int
	rots       []*rotObs //sorted by wells
}

type rotObs struct {
	Wells []int       `json:"wells"`
	Count float64     `json:"count"`
	Chi   [][]float64 `json:"chi"`
}

func (D *Data) MarshalJSON() ([]byte, error) {
	j, err := json.Marshal(struct {
		ID         int       `json:"id"`
		Normalized bool      `json:"normalized"`
		Total      int       `json:"total"`
		Rotamers   []*rotObs `json:"rotamers"`
	}{
		ID:         D.id,
		Normalized: D.normalized,
		Total:      D.total,
		Rotamers:   D.rots,
	})
	if err != nil {
		return nil, err
	}
	return j, nil
}

func (D *Data) UnmarshalJSON(b []byte) error {
	var a struct {
		ID         int       `json:"id"`
		Normalized bool      `json:"normalized"`
		Total      int       `json:"total"`
		Rotamers   []*rotObs `json:"rotamers"`
	}
	err := json.Unmarshal(b, &a)
	if err != nil {
		return err
	}
	D.id = a.ID
	D.normalized = a.Normalized
	D.total = a.Total
	D.rots = a.Rotamers
	return nil
}

//ID returns the ID of the histogram
func (D *Data) ID() int {
	return D.id
}

//String prints a -hopefully- pretty string representation of
//the histogram, one line per rotamer.
func (D *Data) String() string {
	ret := fmt.Sprintf("ID: %d, Normalized: %v, TotalData: %d", D.id, D.normalized, D.total)
	for _, v := range D.rots {
		ret += fmt.Sprintf("\n%v %9.3f", v.Wells, v.Count)
	}
	return ret
}

//Returns a new, empty histogram.
//if an ID for the histogram is given, it will be set. If not, the ID will
//be set to -1.
func NewData(ID ...int) *Data {
	d := new(Data)
	d.id = -1
	if len(ID) > 0 {
		d.id = ID[0]
	}
	return d
}

//find returns the position of wells in D.rots, and whether it's there.
func (D *Data) find(wells []int) (int, bool) {
	i := sort.Search(len(D.rots), func(j int) bool { return !wellsLess(D.rots[j].Wells, wells) })
	return i, i < len(D.rots) && sameInts(D.rots[i].Wells, wells)
}

func wellsLess(a, b []int) bool {
	for k := range a {
		if k >= len(b) {
			return false
		}
		if a[k] != b[k] {
			return a[k] < b[k]
		}
	}
	return len(a) < len(b)
}

//get returns the observations of wells, creating them if needed.
func (D *Data) get(wells []int) *rotObs {
	i, ok := D.find(wells)
	if ok {
		return D.rots[i]
	}
	r := &rotObs{Wells: append([]int(nil), wells...)}
	D.rots = append(D.rots, nil)
	copy(D.rots[i+1:], D.rots[i:])
	D.rots[i] = r
	return r
}

//Adds one observation of the rotamer wells with the given chis.
func (D *Data) AddData(wells []int, chi []float64) {
	var norma bool
	if D.normalized {
		norma = true
		D.UnNormalize()
	}
	r := D.get(wells)
	r.Count++
	r.Chi = append(r.Chi, append([]float64(nil), chi...))
	D.total++
	//if it was normalized, we should return it to that state
	if norma {
		D.Normalize()
	}
}

//Normalized Returns true if the histogram is normalized
func (D *Data) Normalized() bool {
	return D.normalized
}

//Normalize normalizes the histogram
func (D *Data) Normalize() {
	D.normaunnorma(true)
}

//UnNormalize un-normalizes the histogram
func (D *Data) UnNormalize() {
	D.normaunnorma(false)
}

//normalizes or un-normalizes the histogram depending
//on whether normalize is true
func (D *Data) normaunnorma(normalize bool) {
	if D.total <= 0 || D.normalized == normalize {
		return
	}
	n := float64(D.total)
	D.normalized = false
	if normalize {
		n = 1 / float64(D.total)
		D.normalized = true
	}
	c := D.View()
	floats.Scale(n, c)
	for i, v := range c {
		D.rots[i].Count = v
	}
}

//Total returns the number of observations
func (D *Data) Total() int { return D.total }

func (D *Data) rawTotal() float64 { return float64(D.total) }

//rawCount returns the number of observations of wells, regardless of normalization.
func (D *Data) rawCount(wells []int) float64 {
	c := D.Count(wells)
	if D.normalized {
		c *= float64(D.total)
	}
	return math.Round(c)
}

//Count returns the count, or the frequency if normalized, of the rotamer wells.
func (D *Data) Count(wells []int) float64 {
	if i, ok := D.find(wells); ok {
		return D.rots[i].Count
	}
	return 0
}

//Rotamers returns the well vectors observed, sorted.
func (D *Data) Rotamers() [][]int {
	ret := make([][]int, len(D.rots))
	for i, v := range D.rots {
		ret[i] = append([]int(nil), v.Wells...)
	}
	return ret
}

//ChiSamples returns a view of the chis observed for the rotamer wells.
func (D *Data) ChiSamples(wells []int) [][]float64 {
	if i, ok := D.find(wells); ok {
		return D.rots[i].Chi
	}
	return nil
}

//View returns the counts of every rotamer, in the order of Rotamers.
//Unlike the chi samples, this is a copy.
func (D *Data) View() []float64 {
	ret := make([]float64, len(D.rots))
	for i, v := range D.rots {
		ret[i] = v.Count
	}
	return ret
}

//Add adds the histograms a and b putting the result in the receiver.
//The receiver can be a or b. The result is not normalized.
func (D *Data) Add(a, b *Data) {
	merged := NewData(D.id)
	merged.accumulate(a)
	merged.accumulate(b)
	D.rots = merged.rots
	D.total = merged.total
	D.normalized = false
}

//accumulate adds the raw counts and chi samples of src to the receiver,
//which must not be normalized.
func (D *Data) accumulate(src *Data) {
	f := 1.0
	if src.normalized {
		f = float64(src.total)
	}
	for _, r := range src.rots {
		m := D.get(r.Wells)
		m.Count += math.Round(r.Count * f)
		m.Chi = append(m.Chi, r.Chi...)
	}
	D.total += src.total
}

//Sum returns the sum of the counts of all rotamers
func (D *Data) Sum() float64 {
	return floats.Sum(D.View())
}
