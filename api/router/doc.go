// Package router maps the path and method of a request to the Handler that
// answers it.
//
// A Router is built once, usually with FromRoutes from the route configuration,
// and is read-only afterwards. Matching is exact and case-sensitive on the path
// (the target without query). Unmatched requests are answered with 404.
//
// Handlers:
//
//   - StoreHandler: GET finds a record by the query parameter named like the
//     identifier field, POST appends the record in the body. PUT, PATCH and
//     DELETE answer 501, every other method 405. The store file is reloaded on
//     every request and written back before a mutating request returns, under
//     a lock keyed by the file path.
//
//   - ScriptHandler: always 501.
//
//   - MetricsHandler: the metrics of the server in the prometheus text format.
package router
