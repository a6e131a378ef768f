package orm

import (
	"context"
	"strings"

	"github.com/mickamy/restorm/filter"
)

// populate turns raw rows into records: it builds them, removes duplicates
// introduced by joins, attaches eager relations and runs AfterFind hooks.
func (q *query) populate(ctx context.Context, rows []Row) ([]Entity, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	records := make([]Entity, 0, len(rows))
	for _, row := range rows {
		e, err := q.model.newEntity(row, q.asArray)
		if err != nil {
			return nil, err
		}
		records = append(records, e)
	}

	if len(q.joins) > 0 && q.indexBy == "" {
		var err error
		records, err = removeDuplicates(q.model, records)
		if err != nil {
			return nil, err
		}
	}

	if len(q.with) > 0 {
		if err := q.findWith(ctx, records); err != nil {
			return nil, err
		}
	}

	if !q.asArray {
		for _, r := range records {
			if h, ok := r.(AfterFinder); ok {
				h.AfterFind()
			}
		}
	}
	return records, nil
}

// removeDuplicates keeps the first record of every primary key, in order.
//
// With a single key attribute a null key is never recorded as seen. With
// either key shape, the first record lacking a key attribute ends the scan
// and it and every later record are kept untouched.
func removeDuplicates(m *Model, records []Entity) ([]Entity, error) {
	pk := m.PrimaryKey
	if len(pk) == 0 {
		return nil, configError("primary key of %s is required to de-duplicate joined results", m.alias())
	}

	seen := make(map[string]struct{}, len(records))
	out := make([]Entity, 0, len(records))
	for i, r := range records {
		key, ok, record := recordKey(r, pk)
		if !ok {
			return append(out, records[i:]...), nil
		}
		if !record {
			out = append(out, r)
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return out, nil
}

// recordKey returns the serialized primary key of r. ok is false when a
// key attribute is absent; record is false when the key contains a null
// and must not take part in de-duplication.
func recordKey(r Entity, pk []string) (key string, ok, record bool) {
	if len(pk) == 1 {
		v, present := r.Attribute(pk[0])
		if !present {
			return "", false, false
		}
		if v == nil {
			return "", true, false
		}
		return keyString(v), true, true
	}

	values := make([]any, len(pk))
	record = true
	for i, attr := range pk {
		v, present := r.Attribute(attr)
		if !present {
			return "", false, false
		}
		if v == nil {
			record = false
		}
		values[i] = v
	}
	return compositeKey(values), true, record
}

// findWith eagerly loads q.with onto primaries in declaration order.
func (q *query) findWith(ctx context.Context, primaries []Entity) error {
	heads, nested := splitWith(q.with)
	for _, name := range heads {
		r, err := q.model.mustRelation(name)
		if err != nil {
			return err
		}
		buckets, err := q.eagerLoad(ctx, r, primaries, nested[name])
		if err != nil {
			return err
		}
		for i, p := range primaries {
			p.SetRelation(name, relationValue(r, buckets[i]))
		}
	}
	return nil
}

// eagerLoad fetches r for every primary with one request (two for
// junction and named-via relations) and returns one bucket per primary.
func (q *query) eagerLoad(ctx context.Context, r *Relation, primaries []Entity, with []string) ([][]Entity, error) {
	rq := newQuery(q.conn, r.Model)
	rq.with = with
	rq.asArray = q.asArray

	buckets := make([][]Entity, len(primaries))

	switch {
	case r.via != nil && r.via.junction != nil:
		junction := r.via.junction
		rows, err := q.conn.junctionRows(ctx, junction, primaries, true)
		if err != nil {
			return nil, err
		}
		related, err := rq.fetchLinked(ctx, r, rows)
		if err != nil {
			return nil, err
		}
		byOwner := groupByJunction(rows, related, junction.targets(), r.sources(), r.targets())
		for i, p := range primaries {
			buckets[i] = lookup(byOwner, p, junction.sources())
		}

	case r.via != nil:
		viaRel, err := q.model.mustRelation(r.via.name)
		if err != nil {
			return nil, err
		}
		viaBuckets, err := q.eagerLoad(ctx, viaRel, primaries, nil)
		if err != nil {
			return nil, err
		}
		var intermediates []Entity
		for i, p := range primaries {
			p.SetRelation(r.via.name, relationValue(viaRel, viaBuckets[i]))
			intermediates = append(intermediates, viaBuckets[i]...)
		}
		related, err := rq.fetchLinked(ctx, r, intermediates)
		if err != nil {
			return nil, err
		}
		byKey := groupByKeys(related, r.targets())
		for i := range primaries {
			for _, mid := range viaBuckets[i] {
				buckets[i] = append(buckets[i], lookup(byKey, mid, r.sources())...)
			}
		}

	default:
		related, err := rq.fetchLinked(ctx, r, primaries)
		if err != nil {
			return nil, err
		}
		byKey := groupByKeys(related, r.targets())
		for i, p := range primaries {
			buckets[i] = lookup(byKey, p, r.sources())
		}
	}
	return buckets, nil
}

// fetchLinked fetches the records of r linked to models.
func (q *query) fetchLinked(ctx context.Context, r *Relation, models []Entity) ([]Entity, error) {
	return q.fetchByLinks(ctx, r.Links, r.On, models)
}

// fetchByLinks fetches the records whose link Targets match models. A
// templated resource path holds one value per placeholder, so it is
// fetched once per distinct link value instead of with a single IN.
func (q *query) fetchByLinks(ctx context.Context, links []Link, on filter.Condition, models []Entity) ([]Entity, error) {
	groups := groupByLinkValues(models, links)
	if !strings.Contains(q.model.Resource, "{") || len(groups) <= 1 {
		q.filterByModels(links, models)
		if on != nil {
			q.andWhere(on)
		}
		return q.all(ctx)
	}

	var out []Entity
	for _, group := range groups {
		sub := q.clone()
		sub.filterByModels(links, group)
		if on != nil {
			sub.andWhere(on)
		}
		records, err := sub.all(ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, records...)
	}
	return out, nil
}

// groupByLinkValues groups models by their link Source values in first
// seen order. Models missing a value are left out.
func groupByLinkValues(models []Entity, links []Link) [][]Entity {
	index := make(map[string]int)
	var groups [][]Entity
	for _, m := range models {
		values, ok := linkValues(m, links)
		if !ok {
			continue
		}
		key := compositeKey(values)
		i, seen := index[key]
		if !seen {
			i = len(groups)
			index[key] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], m)
	}
	return groups
}

func relationValue(r *Relation, bucket []Entity) any {
	if r.Multiple {
		if bucket == nil {
			return []Entity{}
		}
		return bucket
	}
	if len(bucket) == 0 {
		return nil
	}
	return bucket[0]
}

// splitWith groups dotted relation names by their first segment, keeping
// the order in which heads first appear.
func splitWith(names []string) ([]string, map[string][]string) {
	var heads []string
	nested := make(map[string][]string)
	for _, name := range names {
		head, tail, _ := strings.Cut(name, ".")
		if _, ok := nested[head]; !ok {
			heads = append(heads, head)
			nested[head] = nil
		}
		if tail != "" {
			nested[head] = append(nested[head], tail)
		}
	}
	return heads, nested
}
