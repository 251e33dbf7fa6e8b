// Package idgen produces the opaque identifiers used for sessions, puppet
// instances and events. UUID generation sits behind a variable so tests can
// pin identifiers.
package idgen
