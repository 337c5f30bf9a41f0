package importers

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// titleCase rewrites an all-caps statement description into a readable
// narration. A Caser is not safe for concurrent reuse, so one is built
// per call.
func titleCase(s string) string {
	return cases.Title(language.AmericanEnglish).String(s)
}
