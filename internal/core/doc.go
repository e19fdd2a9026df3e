// Package core is the conversion service behind every lexconv surface.
//
// It is independent of any UI or transport layer: the web server, the CLI
// and the terminal wizard all drive the same [Service].
//
// # Sessions
//
// [Service.Load] reads an uploaded spreadsheet, CSV or SFM file into a
// [lexicon.Session]. Sessions are values owned by the caller. Mapping changes
// produce new sessions and a new upload replaces the old session wholesale.
// A failed load returns no session, so the previous one stays usable.
//
// # Formats
//
// Output formats are registered at init time with [Register]:
//
//	core.Register(core.FormatDefinition{
//	    Info:   core.FormatInfo{Key: "sfm", Label: "SFM", Extension: ".sfm"},
//	    Render: renderSFM,
//	})
//
// [Service.Convert] looks the format up by key and returns an [Artifact]
// ready for download.
//
// # Error Handling
//
// Technical errors are mapped to user-facing messages with [MapError]. Each
// message carries a code (FILE001, MAP001, PRE001, ...) users can quote.
//
// # Presets
//
// Mappings can be saved as named presets and matched against the headers of
// later uploads. Presets are the only thing lexconv persists.
package core
