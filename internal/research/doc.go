// Package research defines the data gathered about an artist and the
// provider interfaces that gather it. Concrete transports live under
// internal/services; everything downstream of the pipeline depends only on
// the types here.
package research
