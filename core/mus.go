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
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// Hand-written MUS serializers for the domain types stored in BadgerDB.
// The model set is small and fixed, so no code generation is involved.
// Times are encoded as Unix microseconds.

// IDMUS serializes an ID.
var IDMUS = idMUS{}

// DocumentMUS serializes a Document.
var DocumentMUS = documentMUS{}

// PageMUS serializes a Page.
var PageMUS = pageMUS{}

// EmbeddingRecordMUS serializes an EmbeddingRecord.
var EmbeddingRecordMUS = embeddingRecordMUS{}

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

type documentMUS struct{}

func (documentMUS) Marshal(d Document, bs []byte) (n int) {
	n = varint.Uint64.Marshal(uint64(d.Id), bs)
	n += ord.String.Marshal(d.Path, bs[n:])
	n += ord.String.Marshal(d.DisplayName, bs[n:])
	n += ord.String.Marshal(d.ContentHash, bs[n:])
	n += varint.Uint64.Marshal(uint64(d.PageCount), bs[n:])
	n += marshalTime(d.InsertedAt, bs[n:])
	n += marshalTime(d.UpdatedAt, bs[n:])
	return n
}

func (documentMUS) Unmarshal(bs []byte) (d Document, n int, err error) {
	var (
		n1 int
		id uint64
	)
	id, n, err = varint.Uint64.Unmarshal(bs)
	if err != nil {
		return
	}
	d.Id = ID(id)
	d.Path, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	d.DisplayName, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	d.ContentHash, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	var pages uint64
	pages, n1, err = varint.Uint64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	d.PageCount = int(pages)
	d.InsertedAt, n1, err = unmarshalTime(bs[n:])
	n += n1
	if err != nil {
		return
	}
	d.UpdatedAt, n1, err = unmarshalTime(bs[n:])
	n += n1
	return
}

func (documentMUS) Size(d Document) (size int) {
	size = varint.Uint64.Size(uint64(d.Id))
	size += ord.String.Size(d.Path)
	size += ord.String.Size(d.DisplayName)
	size += ord.String.Size(d.ContentHash)
	size += varint.Uint64.Size(uint64(d.PageCount))
	size += sizeTime(d.InsertedAt)
	size += sizeTime(d.UpdatedAt)
	return size
}

type pageMUS struct{}

func (pageMUS) Marshal(p Page, bs []byte) (n int) {
	n = varint.Uint64.Marshal(uint64(p.DocId), bs)
	n += varint.Uint64.Marshal(uint64(p.PageNum), bs[n:])
	n += ord.String.Marshal(p.Text, bs[n:])
	return n
}

func (pageMUS) Unmarshal(bs []byte) (p Page, n int, err error) {
	var (
		n1 int
		v  uint64
	)
	v, n, err = varint.Uint64.Unmarshal(bs)
	if err != nil {
		return
	}
	p.DocId = ID(v)
	v, n1, err = varint.Uint64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	p.PageNum = int(v)
	p.Text, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	return
}

func (pageMUS) Size(p Page) (size int) {
	size = varint.Uint64.Size(uint64(p.DocId))
	size += varint.Uint64.Size(uint64(p.PageNum))
	size += ord.String.Size(p.Text)
	return size
}

type embeddingRecordMUS struct{}

func (embeddingRecordMUS) Marshal(r EmbeddingRecord, bs []byte) (n int) {
	n = varint.Uint64.Marshal(uint64(r.DocId), bs)
	n += varint.Uint64.Marshal(uint64(r.PageNum), bs[n:])
	n += ord.String.Marshal(r.Model, bs[n:])
	n += varint.Uint64.Marshal(uint64(len(r.Vector)), bs[n:])
	for _, f := range r.Vector {
		n += raw.Float32.Marshal(f, bs[n:])
	}
	return n
}

func (embeddingRecordMUS) Unmarshal(bs []byte) (r EmbeddingRecord, n int, err error) {
	var (
		n1 int
		v  uint64
	)
	v, n, err = varint.Uint64.Unmarshal(bs)
	if err != nil {
		return
	}
	r.DocId = ID(v)
	v, n1, err = varint.Uint64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	r.PageNum = int(v)
	r.Model, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v, n1, err = varint.Uint64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	r.Vector = make([]float32, int(v))
	for i := range r.Vector {
		r.Vector[i], n1, err = raw.Float32.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	return
}

func (embeddingRecordMUS) Size(r EmbeddingRecord) (size int) {
	size = varint.Uint64.Size(uint64(r.DocId))
	size += varint.Uint64.Size(uint64(r.PageNum))
	size += ord.String.Size(r.Model)
	size += varint.Uint64.Size(uint64(len(r.Vector)))
	for _, f := range r.Vector {
		size += raw.Float32.Size(f)
	}
	return size
}

func marshalTime(t time.Time, bs []byte) int {
	return varint.Uint64.Marshal(uint64(t.UnixMicro()), bs)
}

func unmarshalTime(bs []byte) (time.Time, int, error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	if err != nil {
		return time.Time{}, n, err
	}
	return time.UnixMicro(int64(v)).UTC(), n, nil
}

func sizeTime(t time.Time) int {
	return varint.Uint64.Size(uint64(t.UnixMicro()))
}
