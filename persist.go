/*
 * persist.go, part of dunbrack.
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
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

const (
	fileMagic   = "RLIB"
	fileVersion = 1

	//limits on the header, so a corrupt file doesn't make us allocate the world.
	maxBins     = 1 << 12
	maxRotamers = 1 << 16
	maxRows     = 1 << 26
)

type header struct {
	N, T, R uint32
	Dims    []uint32
	Widths  []float64
}

//WriteTo writes the table of the library to w in the binary format.
//All arrays are little endian, bin-major and rank-minor.
func (L *Library) WriteTo(w io.Writer) (int64, error) {
	cw := &countWriter{w: w}
	b := bufio.NewWriter(cw)
	T := L.table
	le := binary.LittleEndian
	dims := make([]uint32, T.grid.N())
	for i, v := range T.grid.dims {
		dims[i] = uint32(v)
	}
	wells := make([]int32, 0, T.nrot*T.nchi)
	for id := RotamerID(1); int(id) <= T.nrot; id++ {
		for _, v := range T.index.Wells(id) {
			wells = append(wells, int32(v))
		}
	}
	var err error
	write := func(data any) {
		if err == nil {
			err = binary.Write(b, le, data)
		}
	}
	write([]byte(fileMagic))
	write([]uint32{fileVersion, uint32(T.grid.N()), uint32(T.nchi), uint32(T.nrot)})
	write(dims)
	write(L.widths)
	write(T.chiMean)
	write(T.chiSD)
	write(T.prob)
	//one array per derivative index
	arr := make([]float64, len(T.prob))
	for d := 0; d < T.nderiv; d++ {
		for row := range arr {
			arr[row] = T.nDerivs[row*T.nderiv+d]
		}
		write(arr)
	}
	write(T.rotno)
	write(T.sorted)
	write(wells)
	if err == nil {
		err = b.Flush()
	}
	if err != nil {
		return cw.n, newConfigurationError("can't write table", L.name, "WriteTo", err)
	}
	return cw.n, nil
}

type countWriter struct {
	w io.Writer
	n int64
}

func (c *countWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

func readHeader(r io.Reader, name string) (*header, error) {
	le := binary.LittleEndian
	magic := make([]byte, 4)
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, newConfigurationError("can't read header", name, "readHeader", err)
	}
	if string(magic) != fileMagic {
		return nil, newConfigurationError(fmt.Sprintf("not a rotamer library (magic %q)", magic), name, "readHeader")
	}
	fixed := make([]uint32, 4)
	if err := binary.Read(r, le, fixed); err != nil {
		return nil, newConfigurationError("can't read header", name, "readHeader", err)
	}
	if fixed[0] != fileVersion {
		return nil, newConfigurationError(fmt.Sprintf("unsupported version %d", fixed[0]), name, "readHeader")
	}
	h := &header{N: fixed[1], T: fixed[2], R: fixed[3]}
	if h.N < 1 || h.N > 5 || h.T < 1 || h.T > maxChi || h.R < 1 || h.R > maxRotamers {
		return nil, newConfigurationError(fmt.Sprintf("bad header N=%d T=%d R=%d", h.N, h.T, h.R), name, "readHeader")
	}
	h.Dims = make([]uint32, h.N)
	h.Widths = make([]float64, h.N)
	if err := binary.Read(r, le, h.Dims); err != nil {
		return nil, newConfigurationError("can't read bin counts", name, "readHeader", err)
	}
	if err := binary.Read(r, le, h.Widths); err != nil {
		return nil, newConfigurationError("can't read bin widths", name, "readHeader", err)
	}
	rows := uint64(h.R)
	for _, v := range h.Dims {
		if v < 1 || v > maxBins {
			return nil, newConfigurationError(fmt.Sprintf("bad bin count %d", v), name, "readHeader")
		}
		rows *= uint64(v)
	}
	if rows > maxRows {
		return nil, newConfigurationError(fmt.Sprintf("table too large (%d rows)", rows), name, "readHeader")
	}
	return h, nil
}

//ReadLibrary reads a table in the binary format from r and builds a library from it.
//The dimensions of the table must match those of the residue class in cfg.
func ReadLibrary(r io.Reader, cfg Config, name string) (*Library, error) {
	if err := cfg.Class.Validate(); err != nil {
		return nil, errDecorate(err, "ReadLibrary")
	}
	b := bufio.NewReader(r)
	h, err := readHeader(b, name)
	if err != nil {
		return nil, errDecorate(err, "ReadLibrary")
	}
	binner := NewBinner(cfg.Axes())
	if int(h.N) != binner.N() || int(h.T) != cfg.Class.NChi {
		return nil, newConfigurationError(fmt.Sprintf("table has %d backbone and %d chi dimensions, class %s has %d and %d", h.N, h.T, cfg.Class.Name, binner.N(), cfg.Class.NChi), name, "ReadLibrary")
	}
	for i, v := range binner.Dims() {
		if int(h.Dims[i]) != v {
			return nil, newConfigurationError(fmt.Sprintf("axis %d has %d bins in the table and %d in class %s", i+1, h.Dims[i], v, cfg.Class.Name), name, "ReadLibrary")
		}
		if d := h.Widths[i] - binner.Widths()[i]; d > AngleEpsilon || d < -AngleEpsilon {
			return nil, newConfigurationError(fmt.Sprintf("axis %d has bins of %.3f degrees in the table and %.3f in class %s", i+1, h.Widths[i], binner.Widths()[i], cfg.Class.Name), name, "ReadLibrary")
		}
	}
	grid := NewGrid(binner.Dims()...)
	nrot := int(h.R)
	nchi := int(h.T)
	rows := grid.Size() * nrot
	T := &Table{grid: grid, nchi: nchi, nrot: nrot, nderiv: grid.Corners()}
	T.chiMean = make([]float64, rows*nchi)
	T.chiSD = make([]float64, rows*nchi)
	T.prob = make([]float64, rows)
	T.nDerivs = make([]float64, rows*T.nderiv)
	T.rotno = make([]int32, rows)
	T.sorted = make([]int32, rows)
	le := binary.LittleEndian
	read := func(data any) {
		if err == nil {
			err = binary.Read(b, le, data)
		}
	}
	read(T.chiMean)
	read(T.chiSD)
	read(T.prob)
	arr := make([]float64, rows)
	for d := 0; d < T.nderiv && err == nil; d++ {
		read(arr)
		for row, v := range arr {
			T.nDerivs[row*T.nderiv+d] = v
		}
	}
	read(T.rotno)
	read(T.sorted)
	wells := make([]int32, nrot*nchi)
	read(wells)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, newConfigurationError("truncated table", name, "ReadLibrary", err)
		}
		return nil, newConfigurationError("can't read table", name, "ReadLibrary", err)
	}
	list := make([][]int, nrot)
	for i := range list {
		list[i] = make([]int, nchi)
		for j := range list[i] {
			list[i][j] = int(wells[i*nchi+j])
		}
	}
	T.index, err = indexFromList(nchi, list)
	if err != nil {
		return nil, newConfigurationError("bad rotamer index", name, "ReadLibrary", err)
	}
	if err := T.validate(name); err != nil {
		return nil, errDecorate(err, "ReadLibrary")
	}
	T.clamp(name, cfg.logger())
	return newLibrary(name, cfg, binner, T), nil
}

//Save returns the library in the binary format.
func (L *Library) Save() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := L.WriteTo(&buf); err != nil {
		return nil, errDecorate(err, "Save")
	}
	return buf.Bytes(), nil
}

//Load builds a library from data in the binary format.
func Load(data []byte, cfg Config, name string) (*Library, error) {
	L, err := ReadLibrary(bytes.NewReader(data), cfg, name)
	return L, errDecorate(err, "Load")
}

//zstdCloser makes a *zstd.Decoder an io.ReadCloser.
type zstdCloser struct {
	*zstd.Decoder
}

func (z zstdCloser) Close() error {
	z.Decoder.Close()
	return nil
}

//compression returns the compressor and decompressor for the file name,
//picked by its extension. Both are nil for uncompressed files.
func compression(name string) (func(io.Writer) (io.WriteCloser, error), func(io.Reader) (io.ReadCloser, error)) {
	switch {
	case strings.HasSuffix(name, ".zst"):
		w := func(a io.Writer) (io.WriteCloser, error) {
			return zstd.NewWriter(a, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
		}
		r := func(a io.Reader) (io.ReadCloser, error) {
			d, err := zstd.NewReader(a)
			if err != nil {
				return nil, err
			}
			return zstdCloser{d}, nil
		}
		return w, r
	case strings.HasSuffix(name, ".gz"):
		w := func(a io.Writer) (io.WriteCloser, error) { return gzip.NewWriterLevel(a, gzip.BestCompression) }
		r := func(a io.Reader) (io.ReadCloser, error) { return gzip.NewReader(a) }
		return w, r
	}
	return nil, nil
}

//WriteFile writes the library to the file name. Names ending in .zst are
//compressed with zstd, names ending in .gz with gzip.
func (L *Library) WriteFile(name string) error {
	f, err := os.Create(name)
	if err != nil {
		return newConfigurationError("can't create file", name, "WriteFile", err)
	}
	defer f.Close()
	var w io.Writer = f
	zw, _ := compression(name)
	var c io.WriteCloser
	if zw != nil {
		c, err = zw(f)
		if err != nil {
			return newConfigurationError("can't create compressor", name, "WriteFile", err)
		}
		w = c
	}
	if _, err := L.WriteTo(w); err != nil {
		return errDecorate(err, "WriteFile")
	}
	if c != nil {
		if err := c.Close(); err != nil {
			return newConfigurationError("can't finish compressed stream", name, "WriteFile", err)
		}
	}
	if err := f.Close(); err != nil {
		return newConfigurationError("can't close file", name, "WriteFile", err)
	}
	return nil
}

//ReadFile reads a library from the file name, compressed or not, see WriteFile.
func ReadFile(name string, cfg Config) (*Library, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, newConfigurationError("can't open file", name, "ReadFile", err)
	}
	defer f.Close()
	var r io.Reader = f
	if _, zr := compression(name); zr != nil {
		c, err := zr(f)
		if err != nil {
			return nil, newConfigurationError("can't open compressed stream", name, "ReadFile", err)
		}
		defer c.Close()
		r = c
	}
	L, err := ReadLibrary(r, cfg, name)
	return L, errDecorate(err, "ReadFile")
}
