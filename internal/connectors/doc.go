// Package connectors holds the clients for remote issue sources. Each
// connector implements the driven PageFetcher port for one source type.
package connectors
