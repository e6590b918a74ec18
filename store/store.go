/*
 * store.go, part of dunbrack.
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

//Package store keeps serialized rotamer libraries by name, in memory or in a
//SQLite database.
package store

import (
	"context"
	"time"
)

//Entry is one stored library.
type Entry struct {
	ID      string //a new UUID for every Put
	Name    string
	Class   string
	Format  int
	Payload []byte
	Created time.Time
}

//Store defines the persistence operations for serialized libraries.
type Store interface {
	Init(ctx context.Context) error
	Put(ctx context.Context, e Entry) (Entry, error)
	Get(ctx context.Context, name string) (Entry, bool, error)
	List(ctx context.Context) ([]Entry, error)
	Delete(ctx context.Context, name string) (bool, error)
}
