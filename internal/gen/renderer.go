package gen

import (
	"bytes"
	"errors"
	"fmt"
	"go/format"
	"path"
	"strings"
	"text/template"
	"unicode"

	"github.com/jinzhu/inflection"

	"github.com/mickamy/restorm/internal/naming"
)

// Render generates the Go source code for a single StructInfo.
// The returned bytes are formatted by gofmt.
func Render(info *StructInfo) ([]byte, error) {
	return RenderFile([]*StructInfo{info})
}

// RenderFile generates a single Go source file for all given StructInfos,
// which must share a package. The returned bytes are formatted by gofmt.
func RenderFile(infos []*StructInfo) ([]byte, error) {
	if len(infos) == 0 {
		return nil, errors.New("no structs to render")
	}

	structs := make([]templateData, 0, len(infos))
	var allImports []importEntry
	seenImports := make(map[string]bool)

	for _, info := range infos {
		if info.Package != infos[0].Package {
			return nil, fmt.Errorf("%s: package %s differs from %s", info.Name, info.Package, infos[0].Package)
		}
		pk, err := info.PrimaryKeyFields()
		if err != nil {
			return nil, err
		}

		relations, imports := buildRelationData(info)
		for _, ei := range imports {
			if !seenImports[ei.Path] {
				seenImports[ei.Path] = true
				allImports = append(allImports, ei)
			}
		}

		resource := info.Resource
		if resource == "" {
			resource = InferResource(info.Name)
		}

		pkAttrs := make([]string, len(pk))
		for i, f := range pk {
			pkAttrs[i] = f.Attr
		}

		structs = append(structs, templateData{
			TypeName:    info.Name,
			Resource:    resource,
			ModelVar:    info.Name + "Model",
			FactoryName: inflection.Plural(info.Name),
			NewFunc:     unexportedName("new" + info.Name),
			PKAttrs:     pkAttrs,
			Fields:      info.Fields,
			Relations:   relations,
		})
	}

	hasRelations := false
	for _, s := range structs {
		if len(s.Relations) > 0 {
			hasRelations = true
		}
	}

	fileData := fileTemplateData{
		Package:      infos[0].Package,
		HasRelations: hasRelations,
		ExtraImports: allImports,
		Structs:      structs,
	}

	var buf bytes.Buffer
	if err := fileTmpl.Execute(&buf, fileData); err != nil {
		return nil, fmt.Errorf("execute template: %w", err)
	}

	src, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("gofmt: %w", err)
	}
	return src, nil
}

// InferResource converts a type name to a snake_case plural resource path.
// e.g. "User" -> "users", "PostTag" -> "post_tags"
func InferResource(typeName string) string {
	return inflection.Plural(naming.CamelToSnake(typeName))
}

type importEntry struct {
	Alias string // empty means the last path segment is used as-is
	Path  string
}

type fileTemplateData struct {
	Package      string
	HasRelations bool
	ExtraImports []importEntry
	Structs      []templateData
}

type templateData struct {
	TypeName    string
	Resource    string
	ModelVar    string
	FactoryName string
	NewFunc     string
	PKAttrs     []string
	Fields      []FieldInfo
	Relations   []relationTemplateData
}

type relationTemplateData struct {
	FieldName   string // "Posts"
	Name        string // "posts"
	ParentType  string // "User"
	OwnerModel  string // "UserModel"
	TargetType  string // "Post" or "amodel.OAuthAccount"
	IsSlice     bool
	ElemPointer bool
	Decl        string // orm.HasMany("posts", PostModel, orm.Key("user_id", "id"))
}

var funcMap = template.FuncMap{
	"quote": func(s string) string {
		return `"` + s + `"`
	},
	"hasPrefix": strings.HasPrefix,
}

var fileTmpl = template.Must(template.New("gen").Funcs(funcMap).Parse(fileTemplate))

const fileTemplate = `// Code generated by restormgen; DO NOT EDIT.
package {{.Package}}

import (
	{{- if .HasRelations}}
	"context"
{{end}}
	"github.com/mickamy/restorm/orm"
	{{- range .ExtraImports}}
	{{- if .Alias}}
	{{.Alias}} "{{.Path}}"
	{{- else}}
	"{{.Path}}"
	{{- end}}
	{{- end}}
)
{{range .Structs}}
// {{.ModelVar}} describes the {{.Resource}} resource.
var {{.ModelVar}} = &orm.Model{
	Resource:   orm.ResolveResourceName[{{.TypeName}}]("{{.Resource}}"),
	PrimaryKey: []string{ {{- range $i, $k := .PKAttrs}}{{if $i}}, {{end}}{{quote $k}}{{end -}} },
	New:        {{.NewFunc}},
}
{{- if .Relations}}

func init() {
	{{.ModelVar}}.Relate(
		{{- range .Relations}}
		{{.Decl}},
		{{- end}}
	)
}
{{- end}}

var _ orm.Entity = (*{{.TypeName}})(nil)

// {{.FactoryName}} returns a new Query for the {{.Resource}} resource.
func {{.FactoryName}}(conn *orm.Connection) *orm.Query[*{{.TypeName}}] {
	return orm.From[*{{.TypeName}}](conn, {{.ModelVar}})
}

func {{.NewFunc}}(row orm.Row) (orm.Entity, error) {
	v := &{{.TypeName}}{}
	if err := orm.DecodeAttrs(row, map[string]any{
		{{- range .Fields}}
		{{quote .Attr}}: &v.{{.Name}},
		{{- end}}
	}); err != nil {
		return nil, err
	}
	return v, nil
}

// Attribute implements orm.Entity.
func (v *{{.TypeName}}) Attribute(name string) (any, bool) {
	switch name {
	{{- range .Fields}}
	case {{quote .Attr}}:
		{{- if hasPrefix .GoType "*"}}
		if v.{{.Name}} == nil {
			return nil, true
		}
		return *v.{{.Name}}, true
		{{- else}}
		return v.{{.Name}}, true
		{{- end}}
	{{- end}}
	}
	return nil, false
}

// SetRelation implements orm.Entity.
func (v *{{.TypeName}}) SetRelation(name string, value any) {
	{{- if .Relations}}
	switch name {
	{{- range .Relations}}
	case {{quote .Name}}:
		{{- if and .IsSlice .ElemPointer}}
		v.{{.FieldName}} = orm.AsSlice[*{{.TargetType}}](value)
		{{- else if .IsSlice}}
		v.{{.FieldName}} = v.{{.FieldName}}[:0]
		for _, r := range orm.AsSlice[*{{.TargetType}}](value) {
			v.{{.FieldName}} = append(v.{{.FieldName}}, *r)
		}
		{{- else if .ElemPointer}}
		v.{{.FieldName}} = orm.As[*{{.TargetType}}](value)
		{{- else}}
		v.{{.FieldName}} = {{.TargetType}}{}
		if r := orm.As[*{{.TargetType}}](value); r != nil {
			v.{{.FieldName}} = *r
		}
		{{- end}}
	{{- end}}
	}
	{{- end}}
}
{{- range .Relations}}

// Load{{.FieldName}} loads the {{.Name}} relation of v and stores it on v.
{{- if .IsSlice}}
func (v *{{.ParentType}}) Load{{.FieldName}}(ctx context.Context, conn *orm.Connection) ([]*{{.TargetType}}, error) {
	return orm.Related[*{{.TargetType}}](ctx, conn, {{.OwnerModel}}, v, {{quote .Name}})
}
{{- else}}
func (v *{{.ParentType}}) Load{{.FieldName}}(ctx context.Context, conn *orm.Connection) (*{{.TargetType}}, bool, error) {
	return orm.RelatedOne[*{{.TargetType}}](ctx, conn, {{.OwnerModel}}, v, {{quote .Name}})
}
{{- end}}
{{- end}}
{{end}}`

func buildRelationData(info *StructInfo) ([]relationTemplateData, []importEntry) {
	if len(info.Relations) == 0 {
		return nil, nil
	}

	rels := make([]relationTemplateData, 0, len(info.Relations))
	seen := make(map[string]bool)
	var imports []importEntry

	for _, rel := range info.Relations {
		if rel.TargetImportPath != "" && !seen[rel.TargetImportPath] {
			seen[rel.TargetImportPath] = true
			entry := importEntry{Path: rel.TargetImportPath}
			if alias, _, _ := strings.Cut(rel.TargetType, "."); alias != path.Base(rel.TargetImportPath) {
				entry.Alias = alias
			}
			imports = append(imports, entry)
		}

		rels = append(rels, relationTemplateData{
			FieldName:   rel.FieldName,
			Name:        rel.Name,
			ParentType:  info.Name,
			OwnerModel:  info.Name + "Model",
			TargetType:  rel.TargetType,
			IsSlice:     rel.IsSlice,
			ElemPointer: rel.ElemPointer,
			Decl:        relationDecl(rel),
		})
	}
	return rels, imports
}

// relationDecl renders the orm constructor chain declaring rel.
func relationDecl(rel RelationInfo) string {
	ctor := "HasMany"
	switch rel.RelType {
	case "has_one":
		ctor = "HasOne"
	case "belongs_to":
		ctor = "BelongsTo"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "orm.%s(%q, %s%s)", ctor, rel.Name, modelRef(rel.TargetType), keys(rel.Links))
	switch {
	case rel.Junction != "":
		fmt.Fprintf(&b, ".ViaTable(%s%s)", junctionRef(rel.Junction), keys(rel.JunctionLinks))
	case rel.Via != "":
		fmt.Fprintf(&b, ".Via(%q)", rel.Via)
	}
	return b.String()
}

func keys(links []LinkInfo) string {
	var b strings.Builder
	for _, l := range links {
		fmt.Fprintf(&b, ", orm.Key(%q, %q)", l.Target, l.Source)
	}
	return b.String()
}

// modelRef names the Model variable generated for typeName, which may be
// package-qualified.
func modelRef(typeName string) string {
	return typeName + "Model"
}

// junctionRef refers to a generated model when junction names a type, and
// declares an ad-hoc model for a bare resource path otherwise.
func junctionRef(junction string) string {
	name := junction
	if _, after, ok := strings.Cut(junction, "."); ok {
		name = after
	}
	if r := []rune(name); len(r) > 0 && unicode.IsUpper(r[0]) {
		return modelRef(junction)
	}
	return fmt.Sprintf("&orm.Model{Resource: %q}", junction)
}

func unexportedName(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToLower(runes[0])
	return string(runes)
}
