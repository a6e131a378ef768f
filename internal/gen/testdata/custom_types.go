package testdata

type StringArray []string

type Repository struct {
	ID     int         `rest:"id,primaryKey"`
	Name   string      `rest:"name"`
	Topics StringArray `rest:"topics"`
	Meta   map[string]any
}

// NoTagCustomType tests that bare exported idents without rest tag
// are still recognized as attributes (convention-based).
type NoTagCustomType struct {
	ID    int `rest:"id,primaryKey"`
	Name  string
	Tags  StringArray
	Owner *User `rel:"belongs_to,foreign_key:owner_id"`
}
