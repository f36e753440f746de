// package playback owns the remote playback device and reconciles its reported state
// with local intents, queue contents and the position timer.
//
// The [Manager] wraps a [VendorPlayer] and turns [Command] values into Web API or vendor calls.
// The [Reconciler] runs a single event loop over [Reducer.Reduce], which is pure and testable
// without a network or vendor client.
package playback
