// Package pipeline sequences the video generation stages: reference
// images, scene images, narration, music, video assembly, metadata,
// and upload. The filesystem is the only authoritative record of
// progress; every run re-derives what remains from the artifacts on
// disk, executes the pending units sequentially with bounded retry,
// and reports the outcome per unit.
package pipeline
