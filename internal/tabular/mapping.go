package tabular

import (
	"sort"

	"github.com/verte-zerg/conselho/internal/model"
	"github.com/verte-zerg/conselho/internal/schema"
)

// Resolve returns the field a record key becomes under mapping. An entry is
// looked up by the key itself, then by its accent and case insensitive form,
// then by the key's canonical field; without an entry the canonical guess is
// used. ok is false when the column is ignored.
func Resolve(mapping model.HeaderMapping, key model.Field) (model.Field, bool) {
	return newResolver(mapping).resolve(key)
}

type resolver struct {
	mapping    model.HeaderMapping
	normalized map[string]model.Field
	cache      map[model.Field]model.Field
}

func newResolver(mapping model.HeaderMapping) *resolver {
	r := &resolver{
		mapping:    mapping,
		normalized: make(map[string]model.Field, len(mapping)),
		cache:      make(map[model.Field]model.Field),
	}
	raws := make([]string, 0, len(mapping))
	for raw := range mapping {
		raws = append(raws, raw)
	}
	sort.Strings(raws)
	for _, raw := range raws {
		norm := schema.Normalize(raw)
		if _, dup := r.normalized[norm]; !dup {
			r.normalized[norm] = mapping[raw]
		}
	}
	return r
}

func (r *resolver) resolve(key model.Field) (model.Field, bool) {
	dest, ok := r.cache[key]
	if !ok {
		dest = r.lookup(key)
		r.cache[key] = dest
	}
	if dest == "" || dest == model.Ignore {
		return "", false
	}
	return dest, true
}

func (r *resolver) lookup(key model.Field) model.Field {
	if dest, ok := r.mapping[string(key)]; ok {
		return dest
	}
	if dest, ok := r.normalized[schema.Normalize(string(key))]; ok {
		return dest
	}
	canonical := schema.Canonicalize(string(key))
	if dest, ok := r.mapping[string(canonical)]; ok {
		return dest
	}
	return canonical
}

// ApplyMapping re-keys every record of ds through mapping and drops ignored
// columns. Keys are visited in header order, so when two columns land on the
// same field the later column wins. Applying the same mapping twice gives the
// same result as applying it once, as long as no mapping target is itself a
// mapping key.
func ApplyMapping(ds model.Dataset, mapping model.HeaderMapping) model.Dataset {
	res := newResolver(mapping)
	headers := make([]model.Field, 0, len(ds.Headers))
	seen := make(map[model.Field]struct{}, len(ds.Headers))
	for _, h := range ds.Headers {
		dest, ok := res.resolve(h)
		if !ok {
			continue
		}
		if _, dup := seen[dest]; dup {
			continue
		}
		seen[dest] = struct{}{}
		headers = append(headers, dest)
	}

	records := make([]model.Record, len(ds.Records))
	for i, rec := range ds.Records {
		out := make(model.Record, len(rec))
		for _, key := range orderedKeys(rec, ds.Headers) {
			dest, ok := res.resolve(key)
			if !ok {
				continue
			}
			out[dest] = rec[key]
		}
		records[i] = out
	}
	return model.Dataset{Headers: headers, Records: records}
}

// orderedKeys lists the keys of rec following headers, then any extra keys in
// lexical order.
func orderedKeys(rec model.Record, headers []model.Field) []model.Field {
	keys := make([]model.Field, 0, len(rec))
	seen := make(map[model.Field]struct{}, len(rec))
	for _, h := range headers {
		if _, ok := rec[h]; !ok {
			continue
		}
		if _, dup := seen[h]; dup {
			continue
		}
		seen[h] = struct{}{}
		keys = append(keys, h)
	}
	var extra []model.Field
	for k := range rec {
		if _, ok := seen[k]; !ok {
			extra = append(extra, k)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(keys, extra...)
}
