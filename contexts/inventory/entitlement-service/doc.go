// Package entitlementservice implements the entitlement inventory inside Castellan.
//
// Layering:
// - domain: core entities, invariants, errors
// - application: use cases over explicit ports
// - ports: stable boundaries for persistence
// - adapters: concrete HTTP, memory, and postgres implementations
// - transport: module-private DTOs for HTTP contracts
//
// Boundary notes:
// - Keep this module self-contained under inventory context.
// - Do not import other context adapters into domain/application.
// - Governance contexts read entitlement state through their own ports, never
//   through this module's internals.
package entitlementservice
