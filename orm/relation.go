package orm

import (
	"context"
	"fmt"

	"github.com/mickamy/restorm/filter"
)

// RelationOf returns the query of the named relation of primary, a record
// of owner. The query is resolved against primary when executed.
//
//	posts, err := orm.RelationOf[*Post](conn, UserModel, user, "posts").
//	    OrderBy("-id").All(ctx)
func RelationOf[R any](conn *Connection, owner *Model, primary Entity, name string) (*Query[R], error) {
	q, err := conn.relationQuery(owner, primary, name)
	if err != nil {
		return nil, err
	}
	return &Query[R]{q: q}, nil
}

// Related lazily loads a multiple relation of primary and populates it
// onto primary.
func Related[R any](ctx context.Context, conn *Connection, owner *Model, primary Entity, name string) ([]R, error) {
	value, err := conn.Related(ctx, owner, primary, name)
	if err != nil {
		return nil, err
	}
	list, ok := value.([]Entity)
	if !ok {
		return nil, fmt.Errorf("orm: relation %q is not multiple", name)
	}
	return castAll[R](list)
}

// RelatedOne lazily loads a single relation of primary and populates it
// onto primary. found is false when no record is related.
func RelatedOne[R any](ctx context.Context, conn *Connection, owner *Model, primary Entity, name string) (R, bool, error) {
	var zero R
	value, err := conn.Related(ctx, owner, primary, name)
	if err != nil {
		return zero, false, err
	}
	if _, multiple := value.([]Entity); multiple {
		return zero, false, fmt.Errorf("orm: relation %q is multiple", name)
	}
	e, _ := value.(Entity)
	if e == nil {
		return zero, false, nil
	}
	v, err := cast[R](e)
	if err != nil {
		return zero, false, err
	}
	return v, true, nil
}

// Related lazily loads the named relation of primary, populates it onto
// primary and returns it: a []Entity for multiple relations, otherwise an
// Entity or nil.
func (c *Connection) Related(ctx context.Context, owner *Model, primary Entity, name string) (any, error) {
	q, err := c.relationQuery(owner, primary, name)
	if err != nil {
		return nil, err
	}
	value, err := q.relatedValue(ctx)
	if err != nil {
		return nil, err
	}
	primary.SetRelation(name, value)
	return value, nil
}

func (c *Connection) relationQuery(owner *Model, primary Entity, name string) (*query, error) {
	if primary == nil {
		return nil, fmt.Errorf("orm: relation %q needs a primary record", name)
	}
	r, err := owner.mustRelation(name)
	if err != nil {
		return nil, err
	}
	q := newQuery(c, r.Model)
	q.rel = &relationContext{owner: owner, relation: r, primary: primary}
	return q, nil
}

// relatedValue executes q according to the multiplicity of its relation.
func (q *query) relatedValue(ctx context.Context) (any, error) {
	if q.rel.relation.Multiple {
		records, err := q.all(ctx)
		if err != nil {
			return nil, err
		}
		if records == nil {
			records = []Entity{}
		}
		return records, nil
	}
	record, err := q.one(ctx)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, nil
	}
	return record, nil
}

// resolve rewrites a lazily loaded relation query into a plain filtered
// query. Queries without a primary record are returned as is.
func (q *query) resolve(ctx context.Context) (*query, error) {
	if q.rel == nil || q.rel.primary == nil {
		return q, nil
	}
	r := q.rel.relation
	primary := q.rel.primary
	out := q.clone()
	out.rel = nil

	switch {
	case r.via != nil && r.via.junction != nil:
		junction, err := q.conn.junctionRows(ctx, r.via.junction, []Entity{primary}, q.asArray)
		if err != nil {
			return nil, err
		}
		out.filterByModels(r.Links, junction)

	case r.via != nil:
		viaRel, err := q.rel.owner.mustRelation(r.via.name)
		if err != nil {
			return nil, err
		}
		viaQuery := newQuery(q.conn, viaRel.Model)
		viaQuery.asArray = q.asArray
		viaQuery.rel = &relationContext{owner: q.rel.owner, relation: viaRel, primary: primary}
		value, err := viaQuery.relatedValue(ctx)
		if err != nil {
			return nil, err
		}
		primary.SetRelation(r.via.name, value)

		var models []Entity
		switch v := value.(type) {
		case []Entity:
			models = v
		case Entity:
			models = []Entity{v}
		}
		out.filterByModels(r.Links, models)

	default:
		out.filterByModels(r.Links, []Entity{primary})
	}

	if r.On != nil {
		out.andWhere(r.On)
	}
	return out, nil
}

// junctionRows fetches the junction rows linked to models.
func (c *Connection) junctionRows(ctx context.Context, junction *Relation, models []Entity, asArray bool) ([]Entity, error) {
	q := newQuery(c, junction.Model)
	q.asArray = asArray
	return q.fetchByLinks(ctx, junction.Links, junction.On, models)
}

// filterByModels restricts q to records whose link Targets equal the
// Source values of models. When no model contributes a value the query is
// marked guaranteed-empty instead of being left unfiltered.
func (q *query) filterByModels(links []Link, models []Entity) {
	attrs := make([]string, len(links))
	for i, l := range links {
		attrs[i] = l.Target
		if len(q.joins) > 0 {
			attrs[i] = q.model.alias() + "." + l.Target
		}
	}

	if len(links) == 1 {
		values := uniqueValues(collectValues(models, links[0].Source))
		if len(values) == 0 {
			q.state = stateGuaranteedEmpty
			return
		}
		q.andWhere(filter.In(attrs[0], values...))
		return
	}

	seen := make(map[string]struct{}, len(models))
	var conds []filter.Condition
	for _, m := range models {
		values, ok := linkValues(m, links)
		if !ok {
			continue
		}
		key := compositeKey(values)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		eqs := make([]filter.Condition, len(attrs))
		for i, a := range attrs {
			eqs[i] = filter.Eq(a, values[i])
		}
		conds = append(conds, filter.And(eqs...))
	}
	if len(conds) == 0 {
		q.state = stateGuaranteedEmpty
		return
	}
	q.andWhere(filter.Or(conds...))
}

// linkValues reads the Source attribute of every link from m. It fails
// when any of them is absent or null.
func linkValues(m Entity, links []Link) ([]any, bool) {
	values := make([]any, len(links))
	for i, l := range links {
		v, ok := m.Attribute(l.Source)
		if !ok || v == nil {
			return nil, false
		}
		values[i] = v
	}
	return values, true
}
