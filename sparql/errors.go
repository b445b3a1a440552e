// Copyright 2020-2021 Dolthub, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package sparql

import "gopkg.in/src-d/go-errors.v1"

// Error kinds for the engine. Each is a typed *errors.Kind so callers can
// distinguish error classes with errors.Is / Kind.Is rather than string
// matching. See spec.md §7 for the taxonomy.
var (
	// ErrPrepare covers qname resolution failures, duplicate prefixes,
	// scope violations (BIND over an in-scope variable), and unknown
	// query languages. Returned from Prepare, never from execution.
	ErrPrepare = errors.NewKind("prepare error: %s")

	// ErrScopeViolation is a specific PrepareError: a BIND/LET introduces
	// a variable that is already in scope at that point.
	ErrScopeViolation = errors.NewKind("BIND variable %s already used")

	// ErrUnresolvedQName is a specific PrepareError: a QName's prefix has
	// no namespace binding.
	ErrUnresolvedQName = errors.NewKind("unresolved qname prefix %q")

	// ErrType represents a runtime expression TypeError. It never aborts
	// a query: it propagates per SPARQL three-valued logic and causes
	// filter rows to be dropped, BIND targets to stay unbound, and
	// ORDER BY keys to sort as lowest.
	ErrType = errors.NewKind("type error: %s")

	// ErrNumeric covers divide-by-zero and bounded-integer overflow.
	// Surfaces to expression evaluation as ErrType.
	ErrNumeric = errors.NewKind("numeric error: %s")

	// ErrRegex is a regex pattern compile failure. Evaluating REGEX or
	// REPLACE yields an ErrType carrying this message; REGEX also logs
	// one warning per expression node.
	ErrRegex = errors.NewKind("regex error: %s")

	// ErrIO covers dataset loading and SERVICE transport failures.
	ErrIO = errors.NewKind("io error: %s")

	// ErrTimeout is returned when cooperative cancellation fires during
	// OrderBy buffering, Aggregation folding, or any rowsource's Next.
	ErrTimeout = errors.NewKind("query exceeded its deadline")

	// ErrFatal represents an invariant violation: an unknown operator
	// opcode, a missing variable binding that must exist. Aborts the
	// query.
	ErrFatal = errors.NewKind("fatal: %s")
)
