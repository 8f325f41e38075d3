/*
Package observability turns engine lifecycle hooks into Prometheus metrics.

Node visits, tool calls, script executions and run outcomes are recorded on a
dedicated registry that can be served with Handler.
*/
package observability
