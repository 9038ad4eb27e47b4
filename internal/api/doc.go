// Package api serves the start/poll analysis protocol over HTTP. It decodes
// and validates JSON requests, dispatches them to the analysis service and
// maps service errors to {success:false, error} responses.
package api
