// Package httpapi serves one goSession Manager over JSON endpoints.
//
// Routes mirror the pages and modals of the demo web client:
//
//	GET  /session          current snapshot
//	GET  /session/watch    websocket stream of snapshots
//	POST /login            {"email","password"}
//	POST /register         {"name","email","password","confirmPassword"}
//	POST /logout
//	POST /password/forgot  {"email"}
//	POST /password/reset   {"token","password","confirmPassword"}
//	POST /password/change  {"currentPassword","newPassword","confirmPassword"}
//	POST /email/code       {"email"} (optional)
//	POST /email/verify     {"code"}
//	POST /2fa/enable       {"code"}
//	POST /2fa/disable
//	GET  /dashboard        requires a signed-in session
//	GET  /metrics          when Options.Metrics is set
//
// Form bodies are validated before the Manager is called. Field errors come
// back as 422 with a "fields" object keyed by JSON name.
package httpapi
