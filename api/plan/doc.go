// Package plan exposes the planners over HTTP.
//
//	POST /api/plan       plan a walk on the grid sent in the body
//	GET  /api/plan/logs  query past runs
//
// Input errors map to 400, infeasible requests to 422 and timeouts to 504.
package plan
