package models

// Identity is an authenticated caller as supplied by the transport layer.
// Equality is the only operation the registries rely on.
type Identity string

func (i Identity) String() string { return string(i) }
