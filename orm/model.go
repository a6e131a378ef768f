package orm

import (
	"fmt"
	"strings"
	"sync"

	"github.com/mickamy/restorm/filter"
)

// Model describes one REST resource: where it lives, how its records are
// identified and built, and how it relates to other resources.
type Model struct {
	// Resource is the collection path relative to the base URI. It may
	// contain {placeholders}, e.g. "users/{user_id}/posts".
	Resource string

	// PrimaryKey lists the attributes identifying a record, in order.
	PrimaryKey []string

	// New builds a record from a decoded row. Nil keeps the Row itself.
	New func(Row) (Entity, error)

	mu        sync.RWMutex
	relations map[string]*Relation
}

// Relate registers relations under their names and returns m.
// Registration is typically done from generated init functions.
func (m *Model) Relate(rels ...*Relation) *Model {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.relations == nil {
		m.relations = make(map[string]*Relation, len(rels))
	}
	for _, r := range rels {
		m.relations[r.Name] = r
	}
	return m
}

// Relation returns the named relation.
func (m *Model) Relation(name string) (*Relation, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.relations[name]
	return r, ok
}

func (m *Model) mustRelation(name string) (*Relation, error) {
	r, ok := m.Relation(name)
	if !ok {
		return nil, fmt.Errorf("orm: %s has no relation %q", m.alias(), name)
	}
	return r, nil
}

func (m *Model) newEntity(row Row, asArray bool) (Entity, error) {
	if asArray || m.New == nil {
		return row, nil
	}
	return m.New(row)
}

// alias is the last literal segment of the resource path. It prefixes
// link attributes when a query expands joined relations.
func (m *Model) alias() string {
	segs := strings.Split(strings.Trim(m.Resource, "/"), "/")
	for i := len(segs) - 1; i >= 0; i-- {
		if segs[i] != "" && !strings.HasPrefix(segs[i], "{") {
			return segs[i]
		}
	}
	return m.Resource
}

// Link pairs an attribute of the related resource (Target) with the
// attribute of the owning record holding its value (Source).
type Link struct {
	Target string
	Source string
}

// Key returns a Link. For a user having many posts:
//
//	orm.Key("user_id", "id") // posts.user_id = users.id
func Key(target, source string) Link {
	return Link{Target: target, Source: source}
}

// Relation describes how records of Model relate to an owning record.
type Relation struct {
	Name     string
	Model    *Model
	Links    []Link
	Multiple bool

	// On is conjoined onto every query of this relation.
	On filter.Condition

	via *via
}

// via routes a relation through a junction resource or through another
// relation of the owning model.
type via struct {
	junction *Relation
	name     string
}

// HasMany declares a relation returning a list of records.
func HasMany(name string, target *Model, links ...Link) *Relation {
	return &Relation{Name: name, Model: target, Links: links, Multiple: true}
}

// HasOne declares a relation returning at most one record whose Target
// attributes point back at the owner.
func HasOne(name string, target *Model, links ...Link) *Relation {
	return &Relation{Name: name, Model: target, Links: links}
}

// BelongsTo declares a relation returning at most one record referenced by
// the owner's Source attributes.
func BelongsTo(name string, target *Model, links ...Link) *Relation {
	return &Relation{Name: name, Model: target, Links: links}
}

// ViaTable routes r through a junction resource. links pair junction
// attributes (Target) with owner attributes (Source); r.Links then pair
// attributes of r.Model with junction attributes.
//
//	orm.HasMany("tags", TagModel, orm.Key("id", "tag_id")).
//	    ViaTable(PostTagModel, orm.Key("post_id", "id"))
func (r *Relation) ViaTable(junction *Model, links ...Link) *Relation {
	r2 := *r
	r2.via = &via{junction: &Relation{Model: junction, Links: links, Multiple: true}}
	return &r2
}

// Via routes r through another relation of the owning model, which is
// loaded and populated first. r.Links then pair attributes of r.Model with
// attributes of the intermediate records.
func (r *Relation) Via(name string) *Relation {
	r2 := *r
	r2.via = &via{name: name}
	return &r2
}

// Where returns a copy of r whose queries also satisfy cond.
func (r *Relation) Where(cond filter.Condition) *Relation {
	r2 := *r
	r2.On = filter.And(r.On, cond)
	return &r2
}

func (r *Relation) targets() []string {
	out := make([]string, len(r.Links))
	for i, l := range r.Links {
		out[i] = l.Target
	}
	return out
}

func (r *Relation) sources() []string {
	out := make([]string, len(r.Links))
	for i, l := range r.Links {
		out[i] = l.Source
	}
	return out
}
