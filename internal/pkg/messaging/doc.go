// Package messaging publishes and consumes domain events over a broker
// chosen at startup (NATS, Kafka, NSQ, Google Pub/Sub or an in-process
// memory bus).
//
// Every driver shares the same delivery contract: a handler returning nil
// acks the message, a handler returning an error (or panicking) nacks it
// where the broker supports redelivery.
package messaging
