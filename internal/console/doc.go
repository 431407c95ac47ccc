// Package console provides auctionctl, an interactive operator console that
// drives an auction host directly against its store.
//
// The REPL is started via App.Run(ctx), which blocks until the operator
// exits or input ends. Commands act on the currently selected site and,
// for bidding and selling, on the currently logged-in session.
package console
