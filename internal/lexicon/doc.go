// Package lexicon holds the in-memory model shared by every reader and writer:
// rows of string cells, the user-chosen column mapping onto the lexical entry
// schema, export labels for spreadsheet round trips, and the session value
// that ties them together.
//
// # Rows and columns
//
// A [Row] maps column names to cell values. A missing key and an empty string
// are the same value to every writer. A [Dataset] pairs the rows with the
// ordered column set shown to the user:
//
//	ds := lexicon.Dataset{
//	    Rows:    []lexicon.Row{{"Word": "kucing", "Gloss": "cat"}},
//	    Columns: []string{"Word", "Gloss"},
//	}
//
// # Mapping
//
// A [FieldMapping] assigns columns to schema fields. The first language is
// the headword (\lx); languages 2..N are glosses (\ge). Mappings are values:
// every transition returns a new mapping.
//
//	m := lexicon.NewFieldMapping(2).WithHeadword("Word").SetGloss(1, "Gloss")
//	m = m.Resize(3) // gloss selections are cleared
//
// # Sessions
//
// A [Session] is rebuilt from scratch on each upload and discarded on reset.
// Nothing in a session is ever merged with a previous one.
package lexicon
