// Package httpapi serves the account lifecycle over HTTP/JSON.
//
// Handlers decode and validate the request, call the engine, and translate
// engine errors into status codes and the caller-facing text of
// goAccount.Message. Errors are written as {"statusCode", "message"} with an
// optional per-field "errors" list for validation failures.
package httpapi
