// Package libcalclient provides the primary entry point for constructing a
// LibCal API client that implements the libcal.Client interface.
//
// It layers configuration, HTTP transport, OAuth client credentials and
// memoization on top of the interfaces and records defined in the libcal
// package. Most applications import libcalclient to build a client and then
// use the returned libcal.Client to reach the space endpoints through Space().
//
// Quick start
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
//
//	  cli, err := libcalclient.NewWithClientCredentials(ctx, "example.libcal.com", "123", "secret")
//	  if err != nil { log.Fatal(err) }
//	  defer cli.Close()
//
//	  locations, err := cli.Space().Locations(ctx, &libcal.LocationsParams{
//	    Details: libcal.Bool(true),
//	  })
//	  if err != nil { log.Fatal(err) }
//	  _ = locations
//	}
//
// # Shared caching
//
// Pass a libcal.CacheConfig (or use NewWithCache) to share memoized results
// and the access token between clients. The NATS cache type stores entries in
// a JetStream key-value bucket so that several processes agree on one token.
package libcalclient
