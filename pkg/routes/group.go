// Package routes declares HTTP route tables and registers them on a ServeMux.
package routes

import "net/http"

// Route binds an HTTP method and a pattern, relative to its group, to a handler.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
}

// Group organizes routes under a common prefix. Children inherit the prefix.
type Group struct {
	Prefix   string
	Routes   []Route
	Children []Group
}

// Register adds all routes from the given groups to the mux.
func Register(mux *http.ServeMux, groups ...Group) {
	walk(groups, func(pattern string, route Route) {
		mux.HandleFunc(pattern, route.Handler)
	})
}

// Patterns returns the mux patterns the groups register, in declaration order.
func Patterns(groups ...Group) []string {
	var patterns []string
	walk(groups, func(pattern string, _ Route) {
		patterns = append(patterns, pattern)
	})
	return patterns
}

func walk(groups []Group, fn func(pattern string, route Route)) {
	for _, group := range groups {
		walkGroup("", group, fn)
	}
}

func walkGroup(parentPrefix string, group Group, fn func(string, Route)) {
	fullPrefix := parentPrefix + group.Prefix
	for _, route := range group.Routes {
		fn(route.Method+" "+fullPrefix+route.Pattern, route)
	}
	for _, child := range group.Children {
		walkGroup(fullPrefix, child, fn)
	}
}
