package orm

import "strings"

// ResourceNamer overrides the resource path derived for a model type, for
// instance to nest it under its parent: "users/{user_id}/posts".
type ResourceNamer interface {
	ResourceName() string
}

// ResolveResourceName returns the resource path of T: the ResourceName of
// *T or T when either implements ResourceNamer, otherwise fallback.
// Surrounding slashes are dropped and an empty name falls back.
func ResolveResourceName[T any](fallback string) string {
	if name := strings.Trim(resourceNameOf[T](), "/"); name != "" {
		return name
	}
	return fallback
}

func resourceNameOf[T any]() string {
	var v T
	for _, candidate := range []any{&v, v} {
		if rn, ok := candidate.(ResourceNamer); ok {
			return rn.ResourceName()
		}
	}
	return ""
}
