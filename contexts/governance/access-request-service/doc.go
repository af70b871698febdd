// Package accessrequestservice implements the access-request workflow inside Castellan.
//
// A request moves pending -> {approved, denied, cancelled}; approval triggers
// synchronous provisioning whose outcome is recorded on the request without
// ever rolling back the approval decision. Risk is assessed at submission
// from the target application's rating, the requested access tier, detected
// Segregation-of-Duties conflicts, and the requester's entitlement footprint.
//
// Boundary notes:
// - Keep this module self-contained under governance context.
// - SoD conflicts come through the ConflictChecker port; entitlement state
//   through the Directory port. Cross-module glue lives in bootstrap.
package accessrequestservice
