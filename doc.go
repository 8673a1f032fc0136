// Package onboard provides account onboarding primitives: registration with
// admin approval, JWT session issuance, and route-level access decisions.
//
// Account lifecycle:
//   - Accounts carry an AccountStatus field that is persisted via Bun. Every
//     account starts PENDING and is moved to APPROVED or REJECTED exactly once
//     by an administrator; both outcomes are terminal.
//   - AccountStateMachine centralizes the transition graph, hooks, and the
//     compare-and-set persistence that makes concurrent decisions safe. Invoke
//     Transition with ActorRef metadata whenever an admin decides an account.
//
// Sessions:
//   - Auther mints JWTs carrying an identity snapshot (id, email, name, role,
//     status). The status claim is informational only: login succeeds for any
//     status and gating happens where the session is used.
//   - SessionManager holds the client side of a session, persists it through a
//     SessionStore, and notifies observers of every change before the
//     triggering call returns.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter used by Auther, the state
//     machine, and the session manager to describe registration, decision,
//     login, and session events. Sinks run best-effort (errors are logged) so
//     you can forward to a database or queue without blocking authentication.
//
// Claims decoration:
//   - ClaimsDecorator is invoked before JWTs are signed. Decorators may enrich
//     extension metadata while protected claims (sub, iss, aud, exp, role,
//     status) remain immutable.
package onboard
