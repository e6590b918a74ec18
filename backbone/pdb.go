/*
 * pdb.go, part of dunbrack.
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

//Package backbone obtains backbone and side chain torsions from atomic
//structures, as residues that rotamer libraries can score.
package backbone

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

//Atom is one ATOM or HETATM entry of a PDB file.
type Atom struct {
	ID      int
	Name    string
	ResName string
	Chain   byte
	ResID   int
	Het     bool
	Pos     r3.Vec
}

//Parses a valid ATOM or HETATM line of a PDB file.
func readPDBLine(line string) (*Atom, error) {
	if len(line) < 54 {
		return nil, fmt.Errorf("line too short (%d characters)", len(line))
	}
	err := make([]error, 5) //accumulate errors to check at the end of the line.
	atom := new(Atom)
	atom.Het = strings.HasPrefix(line, "HETATM")
	atom.ID, err[0] = strconv.Atoi(strings.TrimSpace(line[6:11]))
	atom.Name = strings.TrimSpace(line[12:16])
	//PDB says that pos. 17 is for other thing but I see that is
	//used for residue name in many cases
	atom.ResName = strings.TrimSpace(line[17:20])
	atom.Chain = line[21]
	atom.ResID, err[1] = strconv.Atoi(strings.TrimSpace(line[22:26]))
	atom.Pos.X, err[2] = strconv.ParseFloat(strings.TrimSpace(line[30:38]), 64)
	atom.Pos.Y, err[3] = strconv.ParseFloat(strings.TrimSpace(line[38:46]), 64)
	atom.Pos.Z, err[4] = strconv.ParseFloat(strings.TrimSpace(line[46:54]), 64)
	for _, e := range err {
		if e != nil {
			return nil, e
		}
	}
	return atom, nil
}

//ReadPDB reads the atoms of the first model in a PDB file.
//Alternate locations other than the first are skipped.
func ReadPDB(r io.Reader) ([]*Atom, error) {
	atoms := make([]*Atom, 0, 100)
	pdb := bufio.NewScanner(r)
	lines := 0
	for pdb.Scan() {
		lines++
		line := pdb.Text()
		if strings.HasPrefix(line, "ENDMDL") {
			break
		}
		if !strings.HasPrefix(line, "ATOM") && !strings.HasPrefix(line, "HETATM") {
			continue
		}
		if len(line) > 16 && line[16] != ' ' && line[16] != 'A' {
			continue
		}
		at, err := readPDBLine(line)
		if err != nil {
			return nil, fmt.Errorf("dunbrack/backbone.ReadPDB: line %d: %w", lines, err)
		}
		atoms = append(atoms, at)
	}
	if err := pdb.Err(); err != nil {
		return nil, err
	}
	return atoms, nil
}
