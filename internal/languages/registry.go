package languages

import "github.com/morozRed/flowdoc/internal/syntax"

// NewDefaultRegistry creates a registry with all supported language providers
func NewDefaultRegistry() *syntax.Registry {
	r := syntax.NewRegistry()

	r.Register(NewCppProvider())
	r.Register(NewGoProvider())

	return r
}
