// Package endpoint is the client side of the render service. The Quarto
// filter calls it once per protocol step: run a cell, execute the app, look
// a cell up, fetch the page head.
package endpoint
