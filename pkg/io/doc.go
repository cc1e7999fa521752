// Package io reads and writes the files slotfit works on: slot inventories,
// notes and slot summaries.
//
// # Slots
//
// [ReadSlots] accepts the paged slot report exported from the layout host
// and a flat slot list. Both are validated against an embedded JSON schema
// ([Schema]) before decoding; violations come back as a [ValidationError]
// listing every offending field. Millimeter bounds are converted to points
// at this boundary, and text slots without column metadata get a column
// count inferred from [SlotOptions]:
//
//	slots, err := io.ImportSlots("page_slots.json", io.SlotOptionsFrom(cfg.Column))
//
// [WriteSlots] writes the flat format, so an inventory survives a round
// trip through [ReadSlots].
//
// # Notes
//
// [ReadNotesJSON] and [ReadNotesCSV] return notes normalised to NFC with
// validated, unique identifiers; [ImportNotes] picks the reader by file
// extension. [GroupNotes] assigns notes to the page or spread inventories
// built by [page.Partition].
//
// # Summaries
//
// [Summarize] counts text and photo slots per page with their total area
// in cm², and [WriteSummaryCSV] writes the table.
package io
