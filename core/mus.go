// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import (
	"fmt"
	"math"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// MUS serializers for the persisted types. Fields are encoded in
// declaration order; times are stored as microseconds since the Unix
// epoch, vectors as a varint length followed by raw float32 bits. The
// Prefilter map is run-scoped and never persisted.

// IDMUS serializes IDs.
var IDMUS = idMUS{}

type idMUS struct{}

func (idMUS) Marshal(id ID, bs []byte) int {
	return varint.Uint64.Marshal(uint64(id), bs)
}

func (idMUS) Unmarshal(bs []byte) (ID, int, error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return ID(v), n, err
}

func (idMUS) Size(id ID) int {
	return varint.Uint64.Size(uint64(id))
}

// TimeMUS serializes timestamps with microsecond precision.
var TimeMUS = timeMUS{}

type timeMUS struct{}

func (timeMUS) Marshal(t time.Time, bs []byte) int {
	return varint.Int64.Marshal(t.UnixMicro(), bs)
}

func (timeMUS) Unmarshal(bs []byte) (time.Time, int, error) {
	micros, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return time.Time{}, n, err
	}
	return time.UnixMicro(micros).UTC(), n, nil
}

func (timeMUS) Size(t time.Time) int {
	return varint.Int64.Size(t.UnixMicro())
}

// VectorMUS serializes embedding vectors.
var VectorMUS = vectorMUS{}

type vectorMUS struct{}

func (vectorMUS) Marshal(v []float32, bs []byte) int {
	n := varint.Int.Marshal(len(v), bs)
	for _, f := range v {
		n += varint.Uint32.Marshal(math.Float32bits(f), bs[n:])
	}
	return n
}

func (vectorMUS) Unmarshal(bs []byte) ([]float32, int, error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return nil, n, err
	}
	if length < 0 {
		return nil, n, fmt.Errorf("negative vector length %d", length)
	}
	if length == 0 {
		return nil, n, nil
	}
	v := make([]float32, length)
	for i := range v {
		bits, c, err := varint.Uint32.Unmarshal(bs[n:])
		if err != nil {
			return nil, n, err
		}
		v[i] = math.Float32frombits(bits)
		n += c
	}
	return v, n, nil
}

func (vectorMUS) Size(v []float32) int {
	size := varint.Int.Size(len(v))
	for _, f := range v {
		size += varint.Uint32.Size(math.Float32bits(f))
	}
	return size
}

// CandidateItemMUS serializes CandidateItems.
var CandidateItemMUS = candidateItemMUS{}

type candidateItemMUS struct{}

func (candidateItemMUS) Marshal(item CandidateItem, bs []byte) int {
	n := IDMUS.Marshal(item.Id, bs)
	n += IDMUS.Marshal(item.TitleHash, bs[n:])
	n += varint.Int.Marshal(int(item.Source), bs[n:])
	n += ord.String.Marshal(item.ExternalID, bs[n:])
	n += ord.String.Marshal(item.Title, bs[n:])
	n += ord.String.Marshal(item.URL, bs[n:])
	n += ord.String.Marshal(item.Content, bs[n:])
	n += ord.String.Marshal(item.Author, bs[n:])
	n += varint.Int.Marshal(item.SourceScore, bs[n:])
	n += TimeMUS.Marshal(item.PublishedAt, bs[n:])
	n += TimeMUS.Marshal(item.FetchedAt, bs[n:])
	n += TimeMUS.Marshal(item.InsertedAt, bs[n:])
	n += VectorMUS.Marshal(item.Vector, bs[n:])
	return n
}

func (candidateItemMUS) Unmarshal(bs []byte) (CandidateItem, int, error) {
	var item CandidateItem
	var n int

	id, c, err := IDMUS.Unmarshal(bs[n:])
	if err != nil {
		return item, n, err
	}
	item.Id = id
	n += c

	hash, c, err := IDMUS.Unmarshal(bs[n:])
	if err != nil {
		return item, n, err
	}
	item.TitleHash = hash
	n += c

	source, c, err := varint.Int.Unmarshal(bs[n:])
	if err != nil {
		return item, n, err
	}
	item.Source = Source(source)
	n += c

	for _, field := range []*string{
		&item.ExternalID, &item.Title, &item.URL, &item.Content, &item.Author,
	} {
		s, c, err := ord.String.Unmarshal(bs[n:])
		if err != nil {
			return item, n, err
		}
		*field = s
		n += c
	}

	score, c, err := varint.Int.Unmarshal(bs[n:])
	if err != nil {
		return item, n, err
	}
	item.SourceScore = score
	n += c

	published, c, err := TimeMUS.Unmarshal(bs[n:])
	if err != nil {
		return item, n, err
	}
	item.PublishedAt = published
	n += c

	fetched, c, err := TimeMUS.Unmarshal(bs[n:])
	if err != nil {
		return item, n, err
	}
	item.FetchedAt = fetched
	n += c

	inserted, c, err := TimeMUS.Unmarshal(bs[n:])
	if err != nil {
		return item, n, err
	}
	item.InsertedAt = inserted
	n += c

	vector, c, err := VectorMUS.Unmarshal(bs[n:])
	if err != nil {
		return item, n, err
	}
	item.Vector = vector
	n += c

	return item, n, nil
}

func (candidateItemMUS) Size(item CandidateItem) int {
	size := IDMUS.Size(item.Id)
	size += IDMUS.Size(item.TitleHash)
	size += varint.Int.Size(int(item.Source))
	size += ord.String.Size(item.ExternalID)
	size += ord.String.Size(item.Title)
	size += ord.String.Size(item.URL)
	size += ord.String.Size(item.Content)
	size += ord.String.Size(item.Author)
	size += varint.Int.Size(item.SourceScore)
	size += TimeMUS.Size(item.PublishedAt)
	size += TimeMUS.Size(item.FetchedAt)
	size += TimeMUS.Size(item.InsertedAt)
	size += VectorMUS.Size(item.Vector)
	return size
}
