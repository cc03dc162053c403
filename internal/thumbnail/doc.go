// Package thumbnail provides the on-demand thumbnail cache.
//
// A thumbnail is materialized as a file under the cache root mirroring
// the source's relative path; the existence of that file is the cache
// hit signal, there is no separate metadata store. Builds are
// deduplicated per destination path, offloaded to a bounded CPU worker
// pool, and written atomically so readers never observe a partial file.
package thumbnail
