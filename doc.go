// Package dynsink turns typed records into wide-column row mutations.
//
// The pieces, in the order a record flows through them:
//
//   - schema and record: a closed type system (primitives, string maps,
//     arrays of records, nested records) and records conforming to it.
//   - dynfield: checks that every array of records has the dynamic-field shape
//     {field, value} or {field, value, type}.
//   - expr: compiles row key and family expressions and evaluates them
//     against a record.
//   - walker: depth-first traversal of schemas and records with visitor
//     callbacks.
//   - mutation: a visitor that turns one record into one row mutation,
//     either a plain table put or a column-family put.
//   - sink: configuration, validation and the concurrent run loop.
//   - store and ddbwriter: destinations, a local badger store and DynamoDB.
//
// The dynsink command in cmd/dynsink wires these together for Avro input.
package dynsink
