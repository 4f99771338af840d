// Package cmd implements the duid command line interface.
//
// Subpackages:
//
//   - serve: start a server hosting lstore, dstore and pgstore shards
//   - id: allocate, decode and benchmark ids
//   - obj: insert, update, refresh, delete and query objects of YAML defined types
//   - util: shared flag and configuration helpers (internal use)
//
// Every flag can also be set through the environment as DUID_<FLAG>, with
// dashes replaced by underscores (e.g. DUID_TRANSPORT_ENDPOINTS). .env and
// .env.local in the working directory are loaded first.
//
// See duid -help for a list of all commands.
package cmd
