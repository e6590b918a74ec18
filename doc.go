/*
 * doc.go, part of dunbrack.
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

/*Package dunbrack implements backbone-dependent rotamer libraries: given the
backbone dihedrals of a residue (phi/psi, or omega/phi/psi for peptoids) and
its side chain torsions (chis) it returns an interpolated energy (-ln of the
rotamer probability plus a chi deviation penalty, optionally entropy corrected),
together with its derivatives, and enumerates or samples the statistically
relevant rotamers for a backbone conformation.

	**Capabilities**

    Bins N-dimensional periodic backbone dihedrals, with uniform or
	breakpoint-driven (segmented) layouts.

    Stores one row per (backbone bin, probability rank) in flat arenas,
	with an inverse rotamer->rank index.

    Interpolates probabilities (multilinear) and -ln(probability)
	(periodic polycubic splines), chi means (angle aware) and chi
	standard deviations.

    Classifies chi vectors into rotamers, either by discrete wells with a
	deterministic fallback for untabulated rotamers, or by nearest
	centroid ("Voronoi") search.

    Shannon-entropy correction interpolated with the same splines.

    Enumerates rotamers up to a requisite probability, expands them with
	extra chi samples, and draws random rotamers.

    Reads and writes a binary table format, optionally zstd or gzip compressed.

The histo subpackage builds libraries from observed conformations, store keeps
libraries in memory or in an SQLite database, rotplot draws rotamer-resolved
Ramachandran heat maps, backbone takes residues from PDB files, and
cmd/rotlib is a command line front end.

Tables are immutable after construction, so a *Library can be shared by
any number of goroutines without locking. To replace a library, build a new
one and swap the pointer.
*/
package dunbrack
