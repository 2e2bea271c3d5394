// Command dharma is the command line front end for the transcription server.
//
// It runs the HTTP server in the foreground, processes single URLs without the
// server, and inspects the transcript store, external dependencies, and
// configuration.
package main
