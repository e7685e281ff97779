// Package vector converts embedding matrices to and from the packed binary
// layout stored in user_feature.bvector.
//
// The layout is a plain sequence of big-endian IEEE-754 floats of a single
// width (2, 4 or 8 bytes). There is no header, no length prefix and no dtype
// tag: the consumer must already know the dtype (and, usually, the size).
package vector
