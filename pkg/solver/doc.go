// Package solver assigns notes to slots on one page or spread.
//
// # Overview
//
// Solving runs in three steps:
//
//  1. [OrderNotes] sorts notes hardest first (longest body, then longest
//     title) so long notes are decided while most slots are still free.
//  2. [GenerateOptions] measures every note against the inventory and
//     returns a ranked, truncated list of [Placement] candidates. A note
//     always has at least one candidate: when nothing fits a synthetic
//     "missing" placement is returned.
//  3. A [Strategy] searches over partial assignments, one note at a time,
//     with the rule that no slot is consumed twice.
//
// [Solve] wires the three together and returns a [Result] in input order.
//
// # Strategies
//
// [BestFirst] expands the open state with the lowest priority. Priority is
// compared hard failures first, then overflow, each the accumulated value
// plus a lower bound for the notes still to place, so a plan with fewer
// hard failures always wins however much it overflows. It stops at the
// first complete plan without overflow or hard failures.
//
// [Beam] keeps the best W states per note. [Greedy] is a beam of width 1.
//
// Both respect an expansion budget that grows with the note count (see
// [Budget]). When the budget runs out before a complete plan is reached, the
// most promising open states are completed greedily.
//
// # Failure semantics
//
// Nothing here fails because a note does not fit. Missing slots and hard
// overset are recorded as warnings on the placement and surface in the
// result; only context cancellation during option generation is returned
// as an error.
package solver
