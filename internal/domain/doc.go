// Package domain contains the core business entities of the application
// and their validation rules. Types in this package have no dependencies
// on storage, transport, or the DataForSEO provider client; they are the
// vocabulary shared by every other layer.
package domain
