// Command lectern runs bounded batch transcription of classroom recordings.
//
// The CLI wires configuration, the candidate source, the disk guard, the
// WhisperX engine, and the attempt ledger into one sequential pipeline. A run
// is resumable: completion markers in the output directory decide what still
// needs work, so killing and restarting lectern costs at most the file that
// was in flight.
package main
