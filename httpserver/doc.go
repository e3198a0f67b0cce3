/*
Package httpserver implements the HTTP gateway for the storage access
layer.

Clients construct operators over registered backend schemes, receive an
opaque handle, and drive reads, writes, deletes, stats and listings
through that handle until they release it. Handles are never reused;
operations on a released or unknown handle fail with 410 Gone.

API Endpoints:

  - POST   /api/v1/operators                     - Construct an operator, returns a handle
  - DELETE /api/v1/operators/{handle}            - Release the operator
  - GET    /api/v1/operators/{handle}/blob?path= - Read a blob
  - PUT    /api/v1/operators/{handle}/blob?path= - Write a blob
  - DELETE /api/v1/operators/{handle}/blob?path= - Delete a blob
  - GET    /api/v1/operators/{handle}/stat?path= - Entry metadata
  - GET    /api/v1/operators/{handle}/list?prefix= - List entries
  - GET    /livez - Liveness check
  - GET    /readyz - Readiness check
  - GET    /drain - Gracefully mark server as not ready
  - GET    /undrain - Mark server as ready

Storage errors map onto HTTP statuses: missing entries are 404, denied
access is 403, exhausted capacity is 507, released or unknown handles
are 410, bad schemes and configuration are 400, and anything else the
backend reports is 502. Error bodies carry the gateway status name and
message as JSON.

Prometheus metrics for operation counts and live operators are exposed
on a separate metrics listener.
*/
package httpserver
