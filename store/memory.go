/*
 * memory.go, part of dunbrack.
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
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	entries     map[string]Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.entries = make(map[string]Entry)
	return nil
}

//Put stores e under e.Name, replacing any previous entry with that name.
//The stored entry, with its new ID and creation time, is returned.
func (s *MemoryStore) Put(_ context.Context, e Entry) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return Entry{}, errors.New("store is not initialized")
	}
	if e.Name == "" {
		return Entry{}, errors.New("entry name is required")
	}
	e.ID = uuid.NewString()
	e.Created = time.Now().UTC()
	e.Payload = append([]byte(nil), e.Payload...)
	s.entries[e.Name] = e
	return e, nil
}

func (s *MemoryStore) Get(_ context.Context, name string) (Entry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[name]
	return e, ok, nil
}

//List returns the entries sorted by name, without their payloads.
func (s *MemoryStore) List(_ context.Context) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ret := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		e.Payload = nil
		ret = append(ret, e)
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].Name < ret[j].Name })
	return ret, nil
}

func (s *MemoryStore) Delete(_ context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.entries[name]
	delete(s.entries, name)
	return ok, nil
}
