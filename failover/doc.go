// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

// Package failover picks a broker from an amqpaddr.List in list order.
//
// A Selector walks the list and hands each address to a caller-supplied
// DialFunc until one succeeds. Every list position has its own circuit
// breaker, so an address that keeps failing is skipped until its breaker
// half-opens again. Attempts can be paced with a token bucket, and outcomes
// can be exported as Prometheus metrics.
//
// The package never opens connections itself:
//
//	sel, err := failover.NewSelector(brokers, func(ctx context.Context, addr amqpaddr.Address) (*amqp.Connection, error) {
//		return amqp.Dial(addr.URI())
//	}, failover.DefaultConfig())
//	conn, addr, err := sel.Connect(ctx)
package failover
