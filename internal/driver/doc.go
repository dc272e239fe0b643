// Package driver runs one collection from operator prompt to persisted
// artifact.
//
// A run moves through a fixed sequence of states:
//
//	AwaitInput → Collecting → Deciding → {Written | Unchanged | NoData} → Done
//
// Every run that does not fail visits Collecting and Deciding, even
// when the source offers nothing or the operator asks for zero items. A run
// ends with exactly one of three outcomes, each reported to the operator
// with a single status line. The driver never writes the artifact itself; it
// hands non-empty collections to a Persister, normally a *changestore.Store.
package driver
