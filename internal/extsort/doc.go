// Package extsort sorts a line file larger than memory.
//
// Phase one (BuildChunks) reads the input in batches of ChunkLines, sorts
// each batch as P partitions in parallel and merges the partitions into one
// sorted chunk file. Phase two (MergeAll) merges every chunk file into the
// output with the same k-way Merger, then removes the temp directory.
//
// Chunk files are named chunk_<N>.txt with N counting up from 0. They are
// first written as chunk_<N>.txt.partial and renamed when complete, so a
// rerun that finds chunk files skips phase one and resumes with the merge.
package extsort
