/*
 * build.go, part of dunbrack.
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
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	dunbrack "github.com/MoritzErtelt/rosetta-sub000"
	"github.com/MoritzErtelt/rosetta-sub000/histo"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var buildCmd = &cobra.Command{
	Use:   "build OUTPUT OBSERVATIONS...",
	Short: "Build a library from observed dihedrals",
	Long: `Each line of the observation files contains the backbone dihedrals of one residue
followed by its chis, in degrees. Empty lines and lines starting with # are skipped.
The output is compressed if its name ends in .zst or .gz.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := libraryConfig(className, settings)
		if err != nil {
			return err
		}
		L, err := buildLibrary(cmd.Context(), args[0], cfg, args[1:], settings.Build.Pseudo, settings.Build.DefaultSD)
		if err != nil {
			return err
		}
		if err := L.WriteFile(args[0]); err != nil {
			return err
		}
		logger.WithFields(logrus.Fields{"file": args[0], "rotamers": L.NRot(), "bins": L.Table().Grid().Size()}).Info("library written")
		return nil
	},
}

//readObservations parses the observations in r. Each has nbb backbone
//dihedrals followed by at least nchi chis. f is called once per observation.
func readObservations(r io.Reader, nbb, nchi int, f func(bb, chi []float64) error) (int, error) {
	scanner := bufio.NewScanner(r)
	vals := make([]float64, 0, nbb+nchi)
	line, n := 0, 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) < nbb+nchi {
			return n, fmt.Errorf("line %d: %d fields, want %d", line, len(fields), nbb+nchi)
		}
		vals = vals[:0]
		for _, s := range fields[:nbb+nchi] {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return n, fmt.Errorf("line %d: %w", line, err)
			}
			vals = append(vals, v)
		}
		if err := f(vals[:nbb], vals[nbb:]); err != nil {
			return n, fmt.Errorf("line %d: %w", line, err)
		}
		n++
	}
	return n, scanner.Err()
}

//histogram reads one observation file into a new matrix.
func histogram(ctx context.Context, name string, B *dunbrack.Binner, class dunbrack.ResidueClass) (*histo.Matrix, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	M := histo.NewMatrix(class.NChi, B.Dims()...)
	M.Fill()
	n, err := readObservations(f, B.N(), class.NChi, func(bb, chi []float64) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return M.Observe(B, class, bb, chi)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	logger.WithFields(logrus.Fields{"file": name, "observations": n}).Debug("observations read")
	return M, nil
}

//buildLibrary histograms every observation file concurrently, merges the
//histograms and builds a library from the result.
func buildLibrary(ctx context.Context, name string, cfg dunbrack.Config, files []string, pseudo, defaultSD float64) (*dunbrack.Library, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := cfg.Class.Validate(); err != nil {
		return nil, err
	}
	B := dunbrack.NewBinner(cfg.Axes())
	parts := make([]*histo.Matrix, len(files))
	g, gctx := errgroup.WithContext(ctx)
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			M, err := histogram(gctx, file, B, cfg.Class)
			if err != nil {
				return err
			}
			parts[i] = M
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	total := histo.NewMatrix(cfg.Class.NChi, B.Dims()...)
	total.Fill()
	for _, M := range parts {
		histo.MatrixCombine(func(a, b, dest *histo.Data) { dest.Add(a, b) }, total, M, total)
	}
	records, err := total.Records(pseudo, defaultSD)
	if err != nil {
		return nil, err
	}
	return dunbrack.NewLibrary(name, cfg, records)
}
