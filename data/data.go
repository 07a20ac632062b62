// Package data holds the domain types shared by every other package:
// buckets, artists, evidence, and classification results.
//
// Everything here is a plain value type. Artists and evidence live only for
// the duration of one classification call; results are handed off immutable
// to the report and playlist layers.
package data
