// Package libcal provides types, interfaces, and helpers for working with the
// Springshare LibCal API.
//
// # Overview
//
// The libcal package defines the records returned by the Spaces endpoints
// (Booking, Category, Item, Seat, Zone, ...), the parameter types used to
// query them, and the SpaceClient interface. A concrete implementation is
// provided by the libcalclient package, which wires configuration, transport,
// credentials and caching. Most consumers should import libcalclient to
// construct a client and then call the interfaces exposed here.
//
// Getting a client
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/fivetwenty-io/libcal/pkg/libcal"
//	  "github.com/fivetwenty-io/libcal/pkg/libcalclient"
//	)
//
//	func example() {
//	  ctx := context.Background()
//	  cli, err := libcalclient.New(ctx, &libcal.Config{
//	    Host:         "example.libcal.com",
//	    ClientID:     "123",
//	    ClientSecret: "secret",
//	  })
//	  if err != nil { log.Fatal(err) }
//
//	  items, err := cli.Space().Items(ctx, &libcal.ItemsParams{
//	    LocationID: 42,
//	    PageSize:   libcal.Int(20),
//	    Cache:      libcal.CacheFor(5 * time.Minute),
//	  })
//	  if err != nil { log.Fatal(err) }
//	  _ = items
//	}
//
// # Errors
//
// Every failure is an *Error with one of five kinds: transport, response,
// not found, decode and action. Use IsNotFound, IsResponse and friends, or
// errors.Is with the ErrNotFound style sentinels.
//
// # Caching
//
// Responses can be memoized per request URI. Results are kept in the client
// for its lifetime and, when a Cache is configured (memory or NATS JetStream
// key-value), shared across clients and processes. The OAuth token is always
// memoized and expires 30 seconds before the server says it does.
//
// # Questions
//
// Bookings and reservation payloads carry custom form answers named q1, q2,
// and so on. They are kept alongside the declared fields and written back
// when the record is encoded; see Question, SetQuestion and friends.
package libcal
