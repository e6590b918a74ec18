/*
 * library.go, part of dunbrack.
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

package store

import (
	"context"
	"fmt"

	dunbrack "github.com/MoritzErtelt/rosetta-sub000"
	"github.com/klauspost/compress/zstd"
)

//Payload formats
const (
	FormatBinary = 1 //the plain binary table
	FormatZstd   = 2 //the binary table compressed with zstd
)

//PutLibrary stores L under name, compressed.
func PutLibrary(ctx context.Context, s Store, name string, L *dunbrack.Library) (Entry, error) {
	data, err := L.Save()
	if err != nil {
		return Entry{}, err
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		return Entry{}, err
	}
	defer enc.Close()
	payload := enc.EncodeAll(data, nil)
	return s.Put(ctx, Entry{Name: name, Class: L.Config().Class.Name, Format: FormatZstd, Payload: payload})
}

//GetLibrary loads the library stored under name, using cfg. It returns
//false if there is no such library.
func GetLibrary(ctx context.Context, s Store, name string, cfg dunbrack.Config) (*dunbrack.Library, bool, error) {
	e, ok, err := s.Get(ctx, name)
	if err != nil || !ok {
		return nil, ok, err
	}
	data := e.Payload
	switch e.Format {
	case FormatBinary:
	case FormatZstd:
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, true, err
		}
		defer dec.Close()
		data, err = dec.DecodeAll(e.Payload, nil)
		if err != nil {
			return nil, true, fmt.Errorf("decompress library %s: %w", name, err)
		}
	default:
		return nil, true, fmt.Errorf("library %s: unknown format %d", name, e.Format)
	}
	L, err := dunbrack.Load(data, cfg, name)
	if err != nil {
		return nil, true, err
	}
	return L, true, nil
}
