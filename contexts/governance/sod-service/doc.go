// Package sodservice implements Segregation-of-Duties governance inside Castellan.
//
// It owns conflict rules over unordered application pairs, detects users who
// hold both sides of an active rule, and tracks the violation lifecycle
// (open, investigating, remediated, accepted) plus the compliance report view.
//
// Layering:
// - domain: rules, violations, the pure conflict matcher
// - application: commands/queries/workers using explicit ports
// - ports: persistence, directory reads, outbox, event publishing
// - adapters: memory, postgres, HTTP
//
// Boundary notes:
// - Keep this module self-contained under governance context.
// - Entitlement state is read through the Directory port; this module never
//   imports the inventory context.
package sodservice
