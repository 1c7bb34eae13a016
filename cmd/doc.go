// Package cmd implements the command line interface of the distributed
// key-value store using the Cobra framework. It wires the subcommands
// (serve, client, version) and translates the historical "-<ip> [-client]"
// invocation form into them.
package cmd
