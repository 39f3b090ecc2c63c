// Package npy reads and writes little-endian float32 arrays in the NumPy .npy format.
//
// Layout written by this package (format version 1.0):
//
//	[6 bytes: magic "\x93NUMPY"]
//	[2 bytes: major, minor version (1, 0)]
//	[2 bytes: header length (uint16 LE)]
//	[header: Python dict literal, space padded, ends with '\n']
//	[data: C-order float32 LE]
//
// The magic, version, length and header together take a multiple of 64
// bytes. Headers longer than a uint16 can describe switch to version 2.0,
// which uses a uint32 length.
//
// Example:
//
//	n, err := npy.WriteFile("w.npy", tensor.Shape{1, 1, 3, 3}, values)
//	arr, err := npy.ReadFile("w.npy")
package npy
