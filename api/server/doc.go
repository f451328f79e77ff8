// Package server hosts API handlers behind the shared middleware stack
// (panic recovery, request logging, CORS) and adds the operational endpoints
// /livez, /readyz, /drain and /undrain. Prometheus metrics are served on a
// separate listener.
package server
