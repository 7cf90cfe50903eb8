// Package job defines the unit of pipeline work: a typed, immutable
// description of one renderable thing (a reference image, a scene batch,
// a narration chunk, the final video) together with the artifacts whose
// on-disk presence proves the work is done.
//
// The filesystem is the only durable pipeline state. Completion checks
// are pure reads; a unit whose artifacts are partially present is
// treated as not done at all and re-runs in full.
package job
