package mcp

import (
	_ "embed"
	"fmt"
)

//go:embed docs/language.md
var languageDoc string

//go:embed docs/grammar.md
var grammarDoc string

type resourceEntry struct {
	meta Resource
	text string
}

func builtinResources() []resourceEntry {
	return []resourceEntry{
		{
			meta: Resource{
				URI:         "sodl://docs/language",
				Name:        "SODL Language Reference",
				Description: "Declarations, blocks, inheritance and validation rules of the SODL language.",
				MimeType:    "text/markdown",
			},
			text: languageDoc,
		},
		{
			meta: Resource{
				URI:         "sodl://docs/grammar",
				Name:        "SODL Grammar",
				Description: "Token set and production rules accepted by the parser.",
				MimeType:    "text/markdown",
			},
			text: grammarDoc,
		},
	}
}

func findResource(uri string) (resourceEntry, error) {
	for _, r := range builtinResources() {
		if r.meta.URI == uri {
			return r, nil
		}
	}
	return resourceEntry{}, fmt.Errorf("resource not found: %s", uri)
}
