/*
 * errors.go, part of dunbrack.
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
	"errors"
	"fmt"
)

//errDecorate is a helper function that decorates the error with the caller's name before returning it,
//if the error implements Error. Other errors are returned unchanged.
func errDecorate(err error, caller string) error {
	if err == nil {
		return nil
	}
	if err2, ok := err.(Error); ok {
		err2.Decorate(caller)
	}
	return err
}

//ConfigurationError is returned when a table is malformed or does not match
//the dimensionality of the residue class it is used with. It fulfills Error and LibError.
type ConfigurationError struct {
	message  string
	filename string //the file or table with problems, or empty string if none.
	deco     []string
	err      error
}

func newConfigurationError(message, filename, caller string, err ...error) *ConfigurationError {
	e := &ConfigurationError{message: message, filename: filename, deco: []string{caller}}
	if len(err) > 0 {
		e.err = err[0]
	}
	return e
}

func (err *ConfigurationError) Error() string {
	s := fmt.Sprintf("dunbrack table %s configuration error: %s", err.filename, err.message)
	if err.err != nil {
		s += ": " + err.err.Error()
	}
	return s
}

func (E *ConfigurationError) Decorate(deco string) []string {
	if deco != "" {
		E.deco = append(E.deco, deco)
	}
	return E.deco
}

func (err *ConfigurationError) Unwrap() error { return err.err }

func (err *ConfigurationError) FileName() string { return err.filename }

func (err *ConfigurationError) Critical() bool { return true }

//GeometryError is returned when a backbone angle falls out of every bin,
//which means that the caller gave something that is not an angle, or that
//the bin layout is broken.
type GeometryError struct {
	Axis    int
	Angle   float64
	Bin     int
	Next    int
	Residue string
	deco    []string
}

func (err *GeometryError) Error() string {
	return fmt.Sprintf("dunbrack geometry error: bb %d bin out of range: %s angle %.4f bin %d next %d", err.Axis, err.Residue, err.Angle, err.Bin, err.Next)
}

func (E *GeometryError) Decorate(deco string) []string {
	if deco != "" {
		E.deco = append(E.deco, deco)
	}
	return E.deco
}

func (err *GeometryError) FileName() string { return "" }

func (err *GeometryError) Critical() bool { return true }

//IsConfiguration returns true if err is, or wraps, a *ConfigurationError.
func IsConfiguration(err error) bool {
	var c *ConfigurationError
	return errors.As(err, &c)
}

//IsGeometry returns true if err is, or wraps, a *GeometryError.
func IsGeometry(err error) bool {
	var g *GeometryError
	return errors.As(err, &g)
}

//lastRotamerError implements LastRotamerError
type lastRotamerError struct {
	deco  []string
	table string
}

//NormalLastRotamerTermination does nothing
func (E *lastRotamerError) NormalLastRotamerTermination() {}

func (E *lastRotamerError) FileName() string { return E.table }

func (E *lastRotamerError) Error() string { return "no more rotamers" }

func (E *lastRotamerError) Critical() bool { return false }

func (E *lastRotamerError) Decorate(deco string) []string {
	if deco != "" {
		E.deco = append(E.deco, deco)
	}
	return E.deco
}

func newLastRotamerError(table string, caller string) *lastRotamerError {
	e := new(lastRotamerError)
	e.table = table
	e.deco = []string{caller}
	return e
}
