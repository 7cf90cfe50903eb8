// Package services provides the shared error taxonomy and context
// annotations used by pipeline stages and external collaborators.
//
// Errors are tagged with sentinel markers so the retry policy can decide
// between retrying (transient) and aborting (fatal) without inspecting
// collaborator internals.
package services
