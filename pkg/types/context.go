package types

// ContextKey is the type used for values stored in request contexts.
type ContextKey string

// ContextKeyRequestID carries the request identifier assigned by the HTTP
// layer so log records can be correlated with requests.
const ContextKeyRequestID ContextKey = "request_id"
