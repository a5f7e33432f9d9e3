// Package proto implements the wire format spoken by mocker: a plain text,
// HTTP/1.x shaped message made of a start line, header lines and a body.
//
//	GET /users?id=42 HTTP/1.1
//	Accept: application/json
//
//	HTTP/1.1 200 OK
//	Content-Type: application/json
//	Content-Length: 22
//
//	{"id":42,"name":"Joe"}
//
// Buffer holds the generic message. Request and Response wrap a Buffer and add
// accessors for their start line. ReadMessage implements the two framings a
// message can be read with: content-length (the head up to the blank line and
// then exactly Content-Length bytes) and block (255 byte blocks until a short
// one).
//
// Every error returned by this package is a *common.Error.
package proto
