// Package procmap partitions the ranks of a communicator into named groups.
//
// Groups are laid out contiguously in declaration order; a group can also be
// pinned at an explicit first rank with At, in which case it may overlap the
// others. Every rank is always a member of the reserved "world" group. A Map
// never owns its parent communicator: Close releases only what the map
// derived from it.
package procmap
