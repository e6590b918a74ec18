/*
 * main_test.go, part of dunbrack.
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

package main

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	dunbrack "github.com/MoritzErtelt/rosetta-sub000"
	"github.com/MoritzErtelt/rosetta-sub000/backbone"
	"gonum.org/v1/gonum/spatial/r3"
)

//writeDipeptide writes a VAL-VAL PDB file.
func writeDipeptide(Te *testing.T, name string) {
	N1 := r3.Vec{}
	CA1 := r3.Vec{X: 1.458}
	C1 := backbone.Place(r3.Vec{Y: 1}, N1, CA1, 1.525, 111.2, 60)
	CB1 := backbone.Place(C1, N1, CA1, 1.53, 110.5, -122.8)
	CG1 := backbone.Place(N1, CA1, CB1, 1.53, 110.5, 180)
	N2 := backbone.Place(N1, CA1, C1, 1.329, 116.2, 140)
	CA2 := backbone.Place(CA1, C1, N2, 1.458, 121.7, 180)
	C2 := backbone.Place(C1, N2, CA2, 1.525, 111.2, -70)
	CB2 := backbone.Place(C2, N2, CA2, 1.53, 110.5, -122.8)
	CG2 := backbone.Place(N2, CA2, CB2, 1.53, 110.5, -60)
	var b strings.Builder
	for i, a := range []struct {
		name  string
		resid int
		pos   r3.Vec
	}{{"N", 1, N1}, {"CA", 1, CA1}, {"C", 1, C1}, {"CB", 1, CB1}, {"CG1", 1, CG1},
		{"N", 2, N2}, {"CA", 2, CA2}, {"C", 2, C2}, {"CB", 2, CB2}, {"CG1", 2, CG2}} {
		fmt.Fprintf(&b, "ATOM  %5d %-4s VAL A%4d    %8.3f%8.3f%8.3f  1.00  0.00\n", i+1, a.name, a.resid, a.pos.X, a.pos.Y, a.pos.Z)
	}
	if err := os.WriteFile(name, []byte(b.String()), 0644); err != nil {
		Te.Fatal(err)
	}
}

//writeObservations writes n VAL observations to name. The chi1 well
//populations depend on phi.
func writeObservations(Te *testing.T, name string, n int, seed int64) {
	rng := rand.New(rand.NewSource(seed))
	var b strings.Builder
	b.WriteString("# phi psi chi1\n")
	centers := []float64{60, 180, -60}
	for i := 0; i < n; i++ {
		phi := rng.Float64()*360 - 180
		psi := rng.Float64()*360 - 180
		p1 := 0.2 + 0.15*math.Cos(phi*math.Pi/180)
		w := 1 //trans, half of the time
		switch r := rng.Float64(); {
		case r < p1:
			w = 0
		case r < 0.5:
			w = 2
		}
		chi := dunbrack.PeriodicRange(centers[w]+rng.NormFloat64()*8, 360)
		fmt.Fprintf(&b, "%.2f %.2f %.2f\n", phi, psi, chi)
	}
	if err := os.WriteFile(name, []byte(b.String()), 0644); err != nil {
		Te.Fatal(err)
	}
}

func TestReadObservations(Te *testing.T) {
	in := "# comment\n\n-60 -40 62.5 extra\n 120 130 -170\n"
	var got [][]float64
	n, err := readObservations(strings.NewReader(in), 2, 1, func(bb, chi []float64) error {
		got = append(got, append(append([]float64(nil), bb...), chi...))
		return nil
	})
	if err != nil || n != 2 {
		Te.Fatalf("read %d observations: %v", n, err)
	}
	if got[0][2] != 62.5 || got[1][0] != 120 {
		Te.Errorf("bad observations %v", got)
	}
	if _, err := readObservations(strings.NewReader("1 2\n"), 2, 1, func(bb, chi []float64) error { return nil }); err == nil {
		Te.Errorf("short line not detected")
	}
	if _, err := readObservations(strings.NewReader("1 2 x\n"), 2, 1, func(bb, chi []float64) error { return nil }); err == nil {
		Te.Errorf("bad number not detected")
	}
}

func TestConvertedName(Te *testing.T) {
	for in, want := range map[string]string{"a.rlib": "a.zst", "b.gz": "b.zst", "c": "c.zst", "d.zst": "d.zst"} {
		if got := convertedName(in, ".zst"); got != want {
			Te.Errorf("convertedName(%s) = %s, want %s", in, got, want)
		}
	}
}

func TestBuildLibrary(Te *testing.T) {
	dir := Te.TempDir()
	files := []string{filepath.Join(dir, "a.txt"), filepath.Join(dir, "b.txt")}
	for i, f := range files {
		writeObservations(Te, f, 60000, int64(i+1))
	}
	class, _ := dunbrack.BuiltinClass("VAL")
	cfg := dunbrack.DefaultConfig(class)
	cfg.ReducedResolution = true
	L, err := buildLibrary(context.Background(), "VAL", cfg, files, 0.5, 10)
	if err != nil {
		Te.Fatal(err)
	}
	fmt.Println("built", L.Name(), L.NRot(), "rotamers")
	if L.NRot() != 3 {
		Te.Fatalf("%d rotamers, want 3", L.NRot())
	}
	//trans is the most common everywhere, g+ is more common at phi 0 than at phi 180.
	s0, err := L.RotamerSample(dunbrack.Angles{0, 0}, 1)
	if err != nil {
		Te.Fatal(err)
	}
	if s0.Wells[0] != 2 {
		Te.Errorf("rank 1 at phi 0 is %v", s0.Wells)
	}
	gplus := L.RotamerOf([]int{1})
	at := func(phi float64) float64 {
		I, err := L.Interpolate(dunbrack.Angles{phi, 0}, gplus)
		if err != nil {
			Te.Fatal(err)
		}
		return I.Prob
	}
	if at(0) <= at(180) {
		Te.Errorf("g+ probability %v at phi 0, %v at phi 180", at(0), at(180))
	}
	if _, err := buildLibrary(context.Background(), "VAL", cfg, []string{filepath.Join(dir, "nope.txt")}, 0.5, 10); err == nil {
		Te.Errorf("missing file not detected")
	}
}

func TestCommands(Te *testing.T) {
	dir := Te.TempDir()
	obs := filepath.Join(dir, "obs.txt")
	writeObservations(Te, obs, 20000, 7)
	lib := filepath.Join(dir, "val.zst")
	db := filepath.Join(dir, "store.db")
	common := []string{"--class", "VAL", "--reduced", "--store", "sqlite", "--store-path", db}
	run := func(args ...string) string {
		var out bytes.Buffer
		rootCmd.SetOut(&out)
		rootCmd.SetArgs(append(args, common...))
		if err := rootCmd.Execute(); err != nil {
			Te.Fatalf("rotlib %v: %v", args, err)
		}
		return out.String()
	}
	run("build", lib, obs)
	info := run("info", lib)
	fmt.Print(info)
	if !strings.Contains(info, "3 rotamers") {
		Te.Errorf("unexpected info output %q", info)
	}
	run("convert", "--to", ".gz", lib)
	if out := run("diff", lib, filepath.Join(dir, "val.gz")); !strings.Contains(out, "equal") {
		Te.Errorf("converted library differs: %q", out)
	}
	if out := run("energy", lib, "--bb=-60,-40", "--chi", "175"); !strings.Contains(out, "rotamer") {
		Te.Errorf("unexpected energy output %q", out)
	}
	if out := run("rotamers", lib, "--bb=-60,-40", "--target", "0.99"); !strings.Contains(out, "cumulative") {
		Te.Errorf("unexpected rotamers output %q", out)
	}
	run("plot", lib, filepath.Join(dir, "val.png"), "--resolution", "24", "--overlay", obs)
	pdb := filepath.Join(dir, "vv.pdb")
	writeDipeptide(Te, pdb)
	if out := run("score", lib, pdb); !strings.Contains(out, "2 residues") {
		Te.Errorf("unexpected score output %q", out)
	}
	run("store", "put", "val", lib)
	if out := run("store", "list"); !strings.Contains(out, "val") {
		Te.Errorf("stored library not listed: %q", out)
	}
	run("store", "get", "val", filepath.Join(dir, "back.rlib"))
	run("diff", lib, filepath.Join(dir, "back.rlib"))
	if out := run("classes"); !strings.Contains(out, "VAL") {
		Te.Errorf("builtin classes not printed")
	}
}
