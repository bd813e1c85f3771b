// Package sendmail validates test-mail requests and dispatches them through a
// mail transport.
//
// A request moves through Received → Validating → {Rejected | Dispatching} →
// {Sent | Failed}. Every outcome is terminal: there is no retry, no queue and
// no idempotency key, so two identical requests send two identical emails.
package sendmail
