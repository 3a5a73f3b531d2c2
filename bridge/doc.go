// Package bridge maps logical diver-certification operations onto ledger
// transactions.
//
// A request flows through four stages:
//
//  1. Router.Validate resolves the operation in the OperationRegistry and checks
//     its arity. Failures stop here without touching the credential store.
//  2. The IdentityVerifier confirms the configured identity is provisioned.
//  3. A SessionRunner (SessionManager, or SessionPool when pooling is enabled)
//     opens a gateway, resolves the channel and contract, and guarantees the
//     gateway is released on every exit path.
//  4. Router.Execute submits or evaluates the transaction and Normalize turns the
//     payload into a Response.
//
// Every network call is bounded by the request context. Errors carry one of the
// sentinels in the interfaces package.
package bridge
