// Package output provides the destinations a compiled bundle is written to.
//
//   - [FileWriter] replaces a file atomically so that a failed run never
//     leaves a truncated bundle behind.
//   - [StdoutWriter] streams the bundle for dry runs.
//   - [GzipWriter] produces a precompressed sibling for static file servers.
package output
