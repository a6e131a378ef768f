package gen

import (
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"path"
	"reflect"
	"strconv"
	"strings"

	"github.com/mickamy/restorm/internal/naming"
)

// FieldInfo holds parsed metadata for one attribute field.
type FieldInfo struct {
	Name       string // Go field name, e.g. "UserID"
	Attr       string // JSON attribute from `rest:"userId"`
	GoType     string // Go type as string, e.g. "int", "*string", "time.Time"
	PrimaryKey bool   // true if tag contains "primaryKey"
}

// LinkInfo pairs an attribute of the related resource with the attribute of
// the owning record holding its value.
type LinkInfo struct {
	Target string
	Source string
}

// RelationInfo holds parsed metadata for one `rel`-tagged field.
type RelationInfo struct {
	FieldName        string     // "Posts"
	Name             string     // relation name, "posts"
	RelType          string     // "has_many", "has_one", "belongs_to" or "many_to_many"
	TargetType       string     // "Post" or "amodel.OAuthAccount"
	TargetImportPath string     // set for cross-package targets
	IsSlice          bool       // field is a slice
	ElemPointer      bool       // field (or slice element) is a pointer
	Links            []LinkInfo // target attribute = owner (or junction) attribute
	Via              string     // via another relation of the owner
	Junction         string     // many_to_many: junction resource or model type
	JunctionLinks    []LinkInfo // many_to_many: junction attribute = owner attribute
}

// StructInfo holds parsed metadata for one model struct.
type StructInfo struct {
	Name      string         // Go struct name, e.g. "User"
	Package   string         // Package name, e.g. "model"
	Fields    []FieldInfo    // attribute fields
	Relations []RelationInfo // relation fields
	Resource  string         // resource path; inferred when empty
}

// PrimaryKeyFields returns the primary key fields in declaration order, or
// an error if none is defined.
func (s *StructInfo) PrimaryKeyFields() ([]FieldInfo, error) {
	var pk []FieldInfo
	for _, f := range s.Fields {
		if f.PrimaryKey {
			pk = append(pk, f)
		}
	}
	if len(pk) == 0 {
		return nil, fmt.Errorf("no primary key defined for %s", s.Name)
	}
	return pk, nil
}

// Parse reads the Go file at path and returns StructInfo for every struct
// that has at least one exported attribute field.
func Parse(filePath string) ([]*StructInfo, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filePath, nil, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("parse file: %w", err)
	}

	pkg := file.Name.Name
	imports := fileImports(file)
	var (
		infos []*StructInfo
		errs  []error
	)

	ast.Inspect(file, func(n ast.Node) bool {
		ts, ok := n.(*ast.TypeSpec)
		if !ok {
			return true
		}

		st, ok := ts.Type.(*ast.StructType)
		if !ok {
			return true
		}

		info := &StructInfo{Name: ts.Name.Name, Package: pkg}
		if err := parseStructFields(info, st, imports); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", info.Name, err))
			return true
		}
		if len(info.Fields) == 0 {
			return true
		}

		infos = append(infos, info)
		return true
	})

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return infos, nil
}

// Lookup returns the struct named name.
func Lookup(infos []*StructInfo, name string) (*StructInfo, error) {
	for _, info := range infos {
		if info.Name == name {
			return info, nil
		}
	}
	return nil, fmt.Errorf("type %s not found", name)
}

// fileImports maps the local name of every import to its path.
func fileImports(file *ast.File) map[string]string {
	out := make(map[string]string, len(file.Imports))
	for _, imp := range file.Imports {
		p, err := strconv.Unquote(imp.Path.Value)
		if err != nil {
			continue
		}
		name := path.Base(p)
		if imp.Name != nil {
			name = imp.Name.Name
		}
		out[name] = p
	}
	return out
}

// parseStructFields splits the exported fields of st into attributes and
// relations.
func parseStructFields(info *StructInfo, st *ast.StructType, imports map[string]string) error {
	info.Fields = make([]FieldInfo, 0, len(st.Fields.List))
	for _, field := range st.Fields.List {
		if len(field.Names) == 0 || !field.Names[0].IsExported() {
			continue // embedded or unexported
		}
		tag := fieldTag(field)

		if relTag, ok := tag.Lookup("rel"); ok {
			rel, err := parseRelation(info.Name, field, relTag, imports)
			if err != nil {
				return err
			}
			info.Relations = append(info.Relations, rel)
			continue
		}

		fi, skip := parseField(field, tag)
		if skip {
			continue
		}
		info.Fields = append(info.Fields, fi)
	}
	return nil
}

func fieldTag(field *ast.Field) reflect.StructTag {
	if field.Tag == nil {
		return ""
	}
	return reflect.StructTag(strings.Trim(field.Tag.Value, "`"))
}

func parseField(field *ast.Field, tag reflect.StructTag) (FieldInfo, bool) {
	name := field.Names[0].Name

	// Defaults: attribute inferred from field name, ID field is primary key.
	attr := naming.CamelToSnake(name)
	primaryKey := name == "ID"

	if restTag, ok := tag.Lookup("rest"); ok {
		if restTag == "-" {
			return FieldInfo{}, true // explicitly skipped
		}
		parts := strings.Split(restTag, ",")
		if parts[0] != "" {
			attr = parts[0]
		}
		for _, opt := range parts[1:] {
			if opt == "primaryKey" {
				primaryKey = true
			}
		}
	}

	return FieldInfo{
		Name:       name,
		Attr:       attr,
		GoType:     typeToString(field.Type),
		PrimaryKey: primaryKey,
	}, false
}

// parseRelation reads a `rel` tag:
//
//	rel:"has_many,foreign_key:user_id"
//	rel:"belongs_to,link:id=userId"
//	rel:"has_many,link:postId=id,via:posts"
//	rel:"many_to_many,junction:post_tags,foreign_key:post_id,references:tag_id"
func parseRelation(owner string, field *ast.Field, relTag string, imports map[string]string) (RelationInfo, error) {
	fieldName := field.Names[0].Name
	parts := strings.Split(relTag, ",")
	rel := RelationInfo{
		FieldName: fieldName,
		Name:      naming.LowerCamel(fieldName),
		RelType:   parts[0],
	}

	goType := typeToString(field.Type)
	if strings.HasPrefix(goType, "[]") {
		rel.IsSlice = true
		goType = goType[2:]
	}
	if strings.HasPrefix(goType, "*") {
		rel.ElemPointer = true
		goType = goType[1:]
	}
	rel.TargetType = goType
	if pkg, _, ok := strings.Cut(goType, "."); ok {
		rel.TargetImportPath = imports[pkg]
	}

	var foreignKey, references string
	for _, opt := range parts[1:] {
		key, value, _ := strings.Cut(opt, ":")
		switch key {
		case "name":
			rel.Name = value
		case "foreign_key":
			foreignKey = value
		case "references":
			references = value
		case "link", "junction_link":
			l, err := parseLink(value)
			if err != nil {
				return RelationInfo{}, fmt.Errorf("%s: %w", fieldName, err)
			}
			if key == "link" {
				rel.Links = append(rel.Links, l)
			} else {
				rel.JunctionLinks = append(rel.JunctionLinks, l)
			}
		case "via":
			rel.Via = value
		case "junction":
			rel.Junction = value
		default:
			return RelationInfo{}, fmt.Errorf("%s: unknown rel option %q", fieldName, opt)
		}
	}

	switch rel.RelType {
	case "has_many", "has_one":
		if foreignKey != "" {
			rel.Links = append(rel.Links, LinkInfo{Target: foreignKey, Source: "id"})
		}
	case "belongs_to":
		if foreignKey != "" {
			rel.Links = append(rel.Links, LinkInfo{Target: "id", Source: foreignKey})
		}
	case "many_to_many":
		if rel.Junction == "" {
			return RelationInfo{}, fmt.Errorf("%s: many_to_many needs a junction", fieldName)
		}
		if foreignKey != "" {
			rel.JunctionLinks = append(rel.JunctionLinks, LinkInfo{Target: foreignKey, Source: "id"})
		}
		if references != "" {
			rel.Links = append(rel.Links, LinkInfo{Target: "id", Source: references})
		}
		if len(rel.JunctionLinks) == 0 {
			return RelationInfo{}, fmt.Errorf("%s: many_to_many needs foreign_key or junction_link", fieldName)
		}
	default:
		return RelationInfo{}, fmt.Errorf("%s: unknown relation type %q", fieldName, rel.RelType)
	}

	if len(rel.Links) == 0 {
		return RelationInfo{}, fmt.Errorf("%s: %s relation of %s needs foreign_key or link", fieldName, rel.RelType, owner)
	}
	multiple := rel.RelType == "has_many" || rel.RelType == "many_to_many"
	if multiple && !rel.IsSlice {
		return RelationInfo{}, fmt.Errorf("%s: %s relation must be declared on a slice field", fieldName, rel.RelType)
	}
	if !multiple && rel.IsSlice {
		return RelationInfo{}, fmt.Errorf("%s: %s relation cannot be declared on a slice field", fieldName, rel.RelType)
	}
	return rel, nil
}

func parseLink(s string) (LinkInfo, error) {
	target, source, ok := strings.Cut(s, "=")
	if !ok || target == "" || source == "" {
		return LinkInfo{}, fmt.Errorf("malformed link %q, want target=source", s)
	}
	return LinkInfo{Target: target, Source: source}, nil
}

func typeToString(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.SelectorExpr:
		return typeToString(t.X) + "." + t.Sel.Name
	case *ast.StarExpr:
		return "*" + typeToString(t.X)
	case *ast.ArrayType:
		if t.Len == nil {
			return "[]" + typeToString(t.Elt)
		}
		return fmt.Sprintf("[%s]%s", typeToString(t.Len), typeToString(t.Elt))
	case *ast.MapType:
		return "map[" + typeToString(t.Key) + "]" + typeToString(t.Value)
	case *ast.BasicLit:
		return t.Value
	case *ast.InterfaceType:
		return "any"
	default:
		return fmt.Sprintf("%T", expr)
	}
}
