// Package pkg provides the core libraries for slotfit page layout.
//
// # Overview
//
// Slotfit places the notes of a newspaper edition into the slots a page
// designer drew on each page. For every page (or spread) it searches for
// an assignment of notes to slots, and a font size profile per note, so that
// every note fits with as little overset text as possible. The pkg directory
// is organized as follows:
//
//  1. [page] - Slots, notes and per-page inventories
//  2. [style] and [config] - Font size profiles and run configuration
//  3. [measure] - Text measurement against slot geometry
//  4. [solver] - Best-first, beam and greedy search over assignments
//  5. [realize] and [proof] - Placing a plan into a document and rendering it
//  6. [report] - Per-note rows, CSV/JSON output and stored runs
//  7. [pipeline] - Orchestration used by the CLI and the HTTP API
//
// # Architecture
//
// The typical data flow:
//
//	slots.json + notes.json
//	         ↓
//	    [io] package (read and validate inputs)
//	         ↓
//	    [page] package (partition into page and spread inventories)
//	         ↓
//	    [solver] package (search, measuring with [measure])
//	         ↓
//	    [realize] package (write the plan into a [proof] document)
//	         ↓
//	    [report] rows, SVG/PNG proofs, [diagram] output
//
// # Quick Start
//
//	slots, _ := io.ImportSlots("slots.json", io.DefaultSlotOptions())
//	notes, _ := io.ImportNotes("notes.json")
//
//	opts := pipeline.Options{Config: config.Default().Resolve()}
//	runner := pipeline.NewRunner(nil, nil, nil)
//	result, err := runner.Run(ctx, slots, notes, opts)
//	if err != nil {
//	    return err
//	}
//	report.WriteCSV(os.Stdout, result.Report.Rows)
//
// # Infrastructure
//
// [cache] - Measurement and plan caches with null, memory, file and Redis
// backends.
//
// [observability] - Hooks for pipeline, measurement, cache and HTTP events.
//
// [errors] - Coded errors shared by the CLI and the HTTP API.
//
// [fonts] - Embedded fonts for measurement and proofs.
//
// [buildinfo] - Version information set at link time.
//
// # Testing
//
//	go test ./pkg/...                    # All tests
//	go test ./pkg/solver/...             # Specific package
//	go test -run Example                 # Examples only
//
// [page]: https://pkg.go.dev/github.com/matzehuels/slotfit/pkg/page
// [style]: https://pkg.go.dev/github.com/matzehuels/slotfit/pkg/style
// [config]: https://pkg.go.dev/github.com/matzehuels/slotfit/pkg/config
// [measure]: https://pkg.go.dev/github.com/matzehuels/slotfit/pkg/measure
// [solver]: https://pkg.go.dev/github.com/matzehuels/slotfit/pkg/solver
// [realize]: https://pkg.go.dev/github.com/matzehuels/slotfit/pkg/realize
// [proof]: https://pkg.go.dev/github.com/matzehuels/slotfit/pkg/proof
// [report]: https://pkg.go.dev/github.com/matzehuels/slotfit/pkg/report
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/slotfit/pkg/pipeline
// [io]: https://pkg.go.dev/github.com/matzehuels/slotfit/pkg/io
// [diagram]: https://pkg.go.dev/github.com/matzehuels/slotfit/pkg/diagram
// [cache]: https://pkg.go.dev/github.com/matzehuels/slotfit/pkg/cache
// [observability]: https://pkg.go.dev/github.com/matzehuels/slotfit/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/slotfit/pkg/errors
// [fonts]: https://pkg.go.dev/github.com/matzehuels/slotfit/pkg/fonts
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/slotfit/pkg/buildinfo
package pkg
