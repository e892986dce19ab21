// Package billing keeps subscription and payment rows in step with a hosted
// billing processor.
//
// Providers (Stripe by default, Paddle as an alternative) authenticate webhook
// payloads and decode them into a closed set of Event kinds. The Reconciler
// applies those events to storage. Service ties both together and also exposes
// the outbound operations: checkout, customer portal, subscription and payment
// ledger reads.
//
// Webhook handling contract:
//
//   - a payload that fails signature verification returns ErrSignatureInvalid
//     and nothing is written;
//   - a verified payload is always acknowledged, even when decoding or
//     reconciliation fails (the failure is logged);
//   - unknown event kinds are no-ops.
package billing
