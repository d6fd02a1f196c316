// Package events broadcasts progress and library notifications to browser
// clients over websockets.
//
// Every message is a JSON object {type, data, timestamp}. Clients only
// receive; anything they send is read and discarded so that close frames
// and pongs are processed. A client whose send buffer fills up is
// disconnected instead of slowing the broadcaster down.
package events
