// Package page holds the page-level domain model: slot geometry, slot
// inventories for pages and spreads, and the notes placed into them.
//
// # Units
//
// All geometry is expressed in points (1/72 inch). Inputs in millimeters or
// centimeters are converted once at the boundary with [FromMM] and [FromCM];
// nothing inside the solver works in any other unit.
//
// # Slots
//
// A [Slot] is a fixed rectangle on a page template. Its [Role] says whether it
// may host text, photos or both. Text slots carry column metadata (count,
// gutter, maximum title span). A slot's geometry never changes once read.
//
// # Inventories
//
// An [Inventory] is the working set of slots for one solve: a single page or
// a two-page spread. Slot identifiers are unique within an inventory, and
// [Inventory.GeometryHash] identifies the geometry so caches can be scoped to
// it.
//
// # Notes
//
// A [Note] is one title-delimited segment of a source document. Character
// counts are taken in runes after NFC normalisation so accented text is
// counted once per visible character.
package page
