// package device implements [playback.VendorPlayer] for the two supported device kinds.
//
// [Bridge] serves a local page that hosts the vendor's browser playback SDK and relays its
// events over a websocket, so the terminal session drives a real in-browser device.
//
// [Poller] drives an existing Connect device (desktop app, speaker, phone) through the Web API
// and polls its state on an interval.
package device
