package domain

import "strings"

// Canonical registry field names.
const (
	FieldID          = "id"
	FieldEnglishName = "english_name"
	FieldArabicName  = "arabic_name"
	FieldAge         = "age"
	FieldSex         = "sex"
	FieldDOB         = "dob"
	FieldSource      = "source"
)

// Alias lists, in priority order, the source column names a canonical field
// has been published under.
type Alias struct {
	Field string
	Names []string
}

// Aliases is an ordered alias table.
type Aliases []Alias

// DefaultAliases covers every registry revision seen so far.
var DefaultAliases = Aliases{
	{Field: FieldID, Names: []string{"id", "ID", "victim_id"}},
	{Field: FieldEnglishName, Names: []string{"en_name", "english", "english_name", "name_en"}},
	{Field: FieldArabicName, Names: []string{"ar_name", "arabic_name", "name"}},
	{Field: FieldAge, Names: []string{"age", "Age"}},
	{Field: FieldSex, Names: []string{"sex", "gender", "Sex"}},
	{Field: FieldDOB, Names: []string{"dob", "date_of_birth", "DoB"}},
	{Field: FieldSource, Names: []string{"source", "Src"}},
}

// Resolve maps each canonical field to the index of the first of its aliases
// present in header. Fields with no alias present are left out.
func (a Aliases) Resolve(header []string) map[string]int {
	present := make(map[string]int, len(header))
	for i, h := range header {
		h = normalizeHeader(h)
		if _, dup := present[h]; !dup {
			present[h] = i
		}
	}

	resolved := make(map[string]int, len(a))
	for _, alias := range a {
		for _, name := range alias.Names {
			if i, ok := present[name]; ok {
				resolved[alias.Field] = i
				break
			}
		}
	}
	return resolved
}

func normalizeHeader(h string) string {
	return strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
}
