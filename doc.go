// Package sortlast implements the parallel image-composition core of a
// sort-last parallel rendering pipeline: N processes each render a
// portion of a scene into a full-screen image; this package combines
// those partial images, pixel by pixel, into one or more final tile
// images on designated display processes, using minimal communication
// on a message-passing cluster.
//
// Three packages do the real work: sparseimage (the run-length sparse-
// image codec), radixk (the multi-round swap-composite scheduler), and
// reduce (the multi-tile delegation planner). This package is the thin
// façade that wires them together for a caller: it compresses the
// caller's rendered image, asks reduce where this process belongs when
// there is more than one tile, drives radixk for the actual exchange,
// and assembles the collected pieces into a dense tile image.
//
// The package never implements message passing, GPU rendering, or file
// I/O itself; callers supply a transport.Transport and a
// session.Options snapshot of topology and session configuration.
package sortlast
