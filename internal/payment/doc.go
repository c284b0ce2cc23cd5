// Package payment creates payment intents for a price.
//
// The Facade converts the price to minor units, forwards it with the
// configured currency and payment methods to a Processor and returns only
// the client secret. StripeProcessor talks to the Stripe API and
// BreakerProcessor fails fast while the processor is unhealthy.
package payment
