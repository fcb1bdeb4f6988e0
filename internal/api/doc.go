// Package api implements the HTTP REST API and WebSocket server for the codec
// service.
//
// This package provides:
//   - Stateless codec endpoints: resolve, decode, encode and batch decode
//   - Datapoint catalog CRUD and ETS import
//   - WebSocket hub relaying pipeline events to live subscribers
//   - Client-credential JWT authentication with read and write scopes
//   - Middleware stack (request ID, logging, recovery, CORS, body limits)
//
// # Endpoints
//
// All routes live under /api/v1:
//
//	GET    /health                     status, catalog size, pipeline counters
//	POST   /auth/token                 client credentials -> bearer token
//	GET    /types                      KNX datapoint types and Modbus data types
//	POST   /resolve                    token -> descriptor
//	POST   /decode                     token + hex -> value
//	POST   /encode                     token + value -> hex            (write)
//	POST   /batch                      named fields -> per-field results
//	GET    /datapoints                 catalog listing
//	POST   /datapoints                 create                          (write)
//	POST   /datapoints/import          ETS export upload               (write)
//	GET    /datapoints/{name}          one datapoint
//	PUT    /datapoints/{name}          replace                         (write)
//	DELETE /datapoints/{name}          remove                          (write)
//	POST   /datapoints/{name}/decode   hex -> value with the catalog token
//	POST   /datapoints/{name}/encode   value -> hex and knxd frames    (write)
//	GET    /group-addresses/{address}  datapoint on a URL-encoded GA
//	GET    /ws                         live "values" and "errors" events
//
// # Errors
//
// Errors are JSON objects {status, code, message}. Codec failures use the
// codec response code as code: INVALID_ADDRESS (400), NOT_FOUND (404),
// INVALID_DATA and INVALID_DATATYPE (422), INTERNAL_ERROR (500).
//
// # Security
//
// With security.enabled unset every route is open. Otherwise read routes
// need a token with the read scope and the routes marked (write) need the
// write scope.
package api
