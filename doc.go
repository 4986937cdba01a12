// Package auth provides credential based authentication and capability
// gated authorization primitives: bcrypt password handling, a single use
// OTP lifecycle, JWT issuance and validation, and command handlers for
// the account flows built on top of them.
//
// OTP lifecycle:
//   - Codes carry a status (unused, used, invalid) persisted via Bun.
//     Issuing a new code invalidates any unused code of the same type
//     for that user in the same transaction, so at most one code per
//     user and purpose is live at a time.
//   - Validation is a pure read. Consumption happens separately through
//     OtpService.ConsumeTx inside the transaction that commits the
//     dependent effect (password write, verification flag), after that
//     effect, so a rolled back write leaves the code valid for a retry.
//
// Command handlers:
//   - Account flows (registration, password reset, email verification,
//     admin provisioning) are modeled as message/handler pairs. Each
//     handler runs its writes in one transaction via RunInTx and emits
//     post commit notifications and activity events.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter used by Auther and
//     the command handlers to describe login, registration, OTP, and
//     password reset events. Sinks run best-effort (errors are logged)
//     so you can forward to a database or queue without blocking
//     authentication.
//
// Rights:
//   - RightsGuard gates operations on admin capability profiles. A
//     Requirement names the capabilities an operation needs; every
//     denial collapses into the same forbidden error.
package auth
