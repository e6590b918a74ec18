/*
 * commands.go, part of dunbrack.
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
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"

	dunbrack "github.com/MoritzErtelt/rosetta-sub000"
	"github.com/MoritzErtelt/rosetta-sub000/backbone"
	"github.com/MoritzErtelt/rosetta-sub000/rotplot"
	"github.com/MoritzErtelt/rosetta-sub000/store"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	bbAngles   []float64
	chiAngles  []float64
	missing    []int
	mirrored   bool
	target     float64
	convertTo  string
	rotamer    int
	quantity   string
	fixed      []float64
	resolution int
	overlay    string
)

func init() {
	for _, c := range []*cobra.Command{energyCmd, rotamersCmd} {
		c.Flags().Float64SliceVar(&bbAngles, "bb", nil, "Backbone dihedrals, axis 1 first")
		c.Flags().IntSliceVar(&missing, "missing", nil, "Axes without a defined dihedral (termini)")
		c.Flags().BoolVar(&mirrored, "mirror", false, "The residue has inverted chirality")
	}
	energyCmd.Flags().Float64SliceVar(&chiAngles, "chi", nil, "Side chain dihedrals")
	rotamersCmd.Flags().Float64Var(&target, "target", 0.95, "Cumulative probability to enumerate")
	convertCmd.Flags().StringVar(&convertTo, "to", ".zst", "Format of the output: .rlib, .zst or .gz")
	plotCmd.Flags().IntVar(&rotamer, "rotamer", 1, "Rotamer id")
	plotCmd.Flags().StringVar(&quantity, "quantity", "probability", "probability, energy or entropy")
	plotCmd.Flags().Float64SliceVar(&fixed, "fixed", nil, "Dihedrals for the axes beyond the second")
	plotCmd.Flags().IntVar(&resolution, "resolution", 72, "Points per axis")
	plotCmd.Flags().StringVar(&overlay, "overlay", "", "Observation file to draw on top of the map")
	storeCmd.AddCommand(storePutCmd, storeGetCmd, storeListCmd, storeDeleteCmd)
}

func openLibrary(name string) (*dunbrack.Library, error) {
	cfg, err := libraryConfig(className, settings)
	if err != nil {
		return nil, err
	}
	return dunbrack.ReadFile(name, cfg)
}

func residue(L *dunbrack.Library) (*dunbrack.Residue, error) {
	if len(bbAngles) != L.N() {
		return nil, fmt.Errorf("%d backbone dihedrals given, the library has %d axes", len(bbAngles), L.N())
	}
	return &dunbrack.Residue{Name: className, BB: bbAngles, Chis: chiAngles, Missing: missing, Mirror: mirrored}, nil
}

var infoCmd = &cobra.Command{
	Use:   "info FILE",
	Short: "Describe a library file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		L, err := openLibrary(args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "library %s: %d backbone axes, bins %v, %d chis, %d rotamers, %d bytes\n",
			L.Name(), L.N(), L.Binner().Dims(), L.NChi(), L.NRot(), L.MemoryUsage())
		for id := 1; id <= L.NRot(); id++ {
			fmt.Fprintf(out, "%4d %v\n", id, L.WellsOf(dunbrack.RotamerID(id)))
		}
		return nil
	},
}

//convertedName replaces the compression suffix of name, if any, with to.
func convertedName(name, to string) string {
	for _, s := range []string{".zst", ".gz", ".rlib"} {
		if strings.HasSuffix(name, s) {
			name = strings.TrimSuffix(name, s)
			break
		}
	}
	return name + to
}

var convertCmd = &cobra.Command{
	Use:   "convert FILE...",
	Short: "Change the compression of library files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := libraryConfig(className, settings)
		if err != nil {
			return err
		}
		g, ctx := errgroup.WithContext(cmd.Context())
		g.SetLimit(runtime.NumCPU())
		for _, name := range args {
			name := name
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				L, err := dunbrack.ReadFile(name, cfg)
				if err != nil {
					return err
				}
				out := convertedName(name, convertTo)
				if out == name {
					return fmt.Errorf("%s is already in the %s format", name, convertTo)
				}
				if err := L.WriteFile(out); err != nil {
					return err
				}
				logger.WithFields(logrus.Fields{"from": name, "to": out}).Info("converted")
				return nil
			})
		}
		return g.Wait()
	},
}

var energyCmd = &cobra.Command{
	Use:   "energy FILE",
	Short: "Rotamer energy of one residue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		L, err := openLibrary(args[0])
		if err != nil {
			return err
		}
		res, err := residue(L)
		if err != nil {
			return err
		}
		E, err := L.Energy(res, chiAngles)
		if err != nil {
			return err
		}
		best, err := L.BestRotamerEnergy(res, chiAngles, false)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "rotamer %d %v\n", E.RotNo, L.WellsOf(E.RotNo))
		fmt.Fprintf(out, "total %.4f rot %.4f dev %.4f best %.4f\n", E.Total, E.Rot, E.Dev, best)
		fmt.Fprintf(out, "dE/dbb %v\ndE/dchi %v\n", E.DBackbone, E.DChi)
		return nil
	},
}

var rotamersCmd = &cobra.Command{
	Use:   "rotamers FILE",
	Short: "Most probable rotamers at a backbone conformation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		L, err := openLibrary(args[0])
		if err != nil {
			return err
		}
		res, err := residue(L)
		if err != nil {
			return err
		}
		E, err := L.Enumerate(res, target)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for {
			s, err := E.Next()
			if err != nil {
				if _, ok := err.(dunbrack.LastRotamerError); ok {
					break
				}
				return err
			}
			fmt.Fprintf(out, "%3d %v p=%.4f chi=%.1f sd=%.1f\n", s.Rank, s.Wells, s.Prob, s.ChiMean, s.ChiSD)
		}
		fmt.Fprintf(out, "%d rotamers, cumulative probability %.4f\n", E.Count(), E.Accumulated())
		return nil
	},
}

func parseQuantity(q string) (rotplot.Quantity, error) {
	switch strings.ToLower(q) {
	case "probability", "p":
		return rotplot.Probability, nil
	case "energy", "e":
		return rotplot.Energy, nil
	case "entropy", "s":
		return rotplot.Entropy, nil
	}
	return 0, fmt.Errorf("unknown quantity %q", q)
}

var plotCmd = &cobra.Command{
	Use:   "plot FILE OUTPUT",
	Short: "Plot a rotamer over the first two backbone axes",
	Long:  `The format of the plot (png, svg, pdf...) is taken from the extension of OUTPUT.`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		L, err := openLibrary(args[0])
		if err != nil {
			return err
		}
		q, err := parseQuantity(quantity)
		if err != nil {
			return err
		}
		bb := make([]float64, L.N())
		copy(bb[min(2, L.N()):], fixed)
		S, err := rotplot.NewSurface(L, dunbrack.RotamerID(rotamer), q, 1, 2, bb, resolution)
		if err != nil {
			return err
		}
		var points [][]float64
		if overlay != "" {
			f, err := os.Open(overlay)
			if err != nil {
				return err
			}
			defer f.Close()
			_, err = readObservations(f, L.N(), 0, func(bb, _ []float64) error {
				points = append(points, []float64{bb[0], bb[1]})
				return nil
			})
			if err != nil {
				return err
			}
		}
		title := fmt.Sprintf("%s rotamer %v %s", L.Name(), L.WellsOf(dunbrack.RotamerID(rotamer)), q)
		return rotplot.RotamerHeatMap(L, S, title, args[1], points, nil)
	},
}

var scoreCmd = &cobra.Command{
	Use:   "score FILE PDB",
	Short: "Rotamer energies of the residues of the library class in a PDB file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		L, err := openLibrary(args[0])
		if err != nil {
			return err
		}
		f, err := os.Open(args[1])
		if err != nil {
			return err
		}
		defer f.Close()
		atoms, err := backbone.ReadPDB(f)
		if err != nil {
			return err
		}
		res, err := backbone.Residues(backbone.Group(atoms), L.Config().Class, nil)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		var total float64
		for _, r := range res {
			E, err := L.Energy(r, r.Chis)
			if err != nil {
				return err
			}
			total += E.Total
			fmt.Fprintf(out, "%-12s %v %8.3f\n", r.Name, L.WellsOf(E.RotNo), E.Total)
		}
		fmt.Fprintf(out, "%d residues, total %.3f\n", len(res), total)
		return nil
	},
}

var diffCmd = &cobra.Command{
	Use:   "diff FILE1 FILE2",
	Short: "Compare two library files",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openLibrary(args[0])
		if err != nil {
			return err
		}
		b, err := openLibrary(args[1])
		if err != nil {
			return err
		}
		if !a.Equal(b) {
			return fmt.Errorf("%s and %s differ", args[0], args[1])
		}
		fmt.Fprintln(cmd.OutOrStdout(), "equal")
		return nil
	},
}

var classesCmd = &cobra.Command{
	Use:   "classes [FILE]",
	Short: "Print the residue classes in YAML",
	Long: `Without arguments, the built-in classes are printed. With a file, its classes are
validated and printed back.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		classes := make(map[string]dunbrack.ResidueClass)
		if len(args) == 0 {
			for _, name := range dunbrack.BuiltinClasses() {
				classes[name], _ = dunbrack.BuiltinClass(name)
			}
		} else {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			classes, err = dunbrack.ReadClasses(f)
			if err != nil {
				return err
			}
		}
		return dunbrack.WriteClasses(cmd.OutOrStdout(), classes)
	},
}

func openStore() (store.Store, error) {
	s, err := store.NewStore(settings.Store.Kind, settings.Store.Path)
	if err != nil {
		return nil, err
	}
	if err := s.Init(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Keep libraries in a store",
}

var storePutCmd = &cobra.Command{
	Use:   "put NAME FILE",
	Short: "Store a library file under a name",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		L, err := openLibrary(args[1])
		if err != nil {
			return err
		}
		s, err := openStore()
		if err != nil {
			return err
		}
		defer func() { err = errors.Join(err, store.CloseIfSupported(s)) }()
		e, err := store.PutLibrary(cmd.Context(), s, args[0], L)
		if err != nil {
			return err
		}
		logger.WithFields(logrus.Fields{"name": e.Name, "id": e.ID, "bytes": len(e.Payload)}).Info("library stored")
		return nil
	},
}

var storeGetCmd = &cobra.Command{
	Use:   "get NAME FILE",
	Short: "Write a stored library to a file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		cfg, err := libraryConfig(className, settings)
		if err != nil {
			return err
		}
		s, err := openStore()
		if err != nil {
			return err
		}
		defer func() { err = errors.Join(err, store.CloseIfSupported(s)) }()
		L, ok, err := store.GetLibrary(cmd.Context(), s, args[0], cfg)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("no library named %s", args[0])
		}
		return L.WriteFile(args[1])
	},
}

var storeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the stored libraries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer func() { err = errors.Join(err, store.CloseIfSupported(s)) }()
		entries, err := s.List(cmd.Context())
		if err != nil {
			return err
		}
		for _, e := range entries {
			fmt.Fprintf(cmd.OutOrStdout(), "%-12s %-6s %s %s\n", e.Name, e.Class, e.Created.Format("2006-01-02 15:04:05"), e.ID)
		}
		return nil
	},
}

var storeDeleteCmd = &cobra.Command{
	Use:   "delete NAME",
	Short: "Remove a stored library",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer func() { err = errors.Join(err, store.CloseIfSupported(s)) }()
		ok, err := s.Delete(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if !ok {
			logger.WithField("name", args[0]).Warn("no such library")
		}
		return nil
	},
}
