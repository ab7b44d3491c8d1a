package common

// ClientIDHeaderName is the HTTP header a client may use to present its
// locally generated persistent identifier instead of relying on its IP.
const ClientIDHeaderName = "X-Client-ID"

// DefaultFileName is used when sanitization strips a filename down to nothing.
const DefaultFileName = "file"
