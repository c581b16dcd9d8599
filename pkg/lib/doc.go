// Package lib provides a Go SDK for running arcrest restores programmatically.
//
// This package embeds the whole restore tool in the calling process: the same
// command line surface as the arcrest binary, but without shelling out and
// without the tool ever terminating the host process. Every failure mode,
// including malformed flags and unreadable archives, comes back as a status
// code and captured diagnostics.
//
// # Quick Start
//
// Create a client and invoke the tool with a command line:
//
//	client, err := lib.New(ctx, lib.Config{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	sink := lib.NewSink()
//	res, err := client.Invoke(ctx, []string{"--schema-only", "dump.arc"}, sink)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if res.StatusCode != 0 {
//	    fmt.Fprint(os.Stderr, res.Diagnostics)
//	}
//
// # Diagnostics
//
// Everything the standalone tool would write to stderr is captured into the
// [Sink] passed to [Client.Invoke] and returned in [Result].Diagnostics. Pass
// a nil sink to discard diagnostics; the invocation behaves identically
// otherwise. A sink starts empty on every invocation, so reusing one across
// calls never mixes output.
//
// # Output
//
// Rendered SQL scripts and TOC listings go to [Config].Output unless the
// command line routes them to a file with -f. The default discards them:
//
//	var script bytes.Buffer
//	client, _ := lib.New(ctx, lib.Config{Output: &script})
//	client.Invoke(ctx, []string{"dump.arc"}, nil)
//
// # Run History
//
// Set [Config].HistoryDBPath to record every invocation in a SQLite ledger
// and query it back:
//
//	client, _ := lib.New(ctx, lib.Config{HistoryDBPath: "/var/lib/arcrest/history.db"})
//	defer client.Close()
//
//	client.Invoke(ctx, []string{"--schema-only", "dump.arc"}, nil)
//	runs, _ := client.ListRuns(ctx)
//
// # Error Handling
//
// The error returned by [Client.Invoke] reports embedding problems only
// (invalid configuration, context cancellation); restore failures are status
// codes, not errors. History methods return errors that can be inspected with
// [errors.Is]:
//
//   - [ErrNotFound]: Requested run does not exist.
//   - [ErrNotValid]: Invalid input or operation (e.g. history not configured).
//
// # Thread Safety
//
// A [Client] is safe for concurrent use from multiple goroutines. Invocations
// share the configured output writer and are serialized internally.
package lib
