// Package types holds the JSON messages exchanged over the match socket.
//
// Client -> Server
//
//	roll                              {}
//	toggleHold                        index: 0..4
//	score                             cat: category key
//	doubleOrZero, godReYahtzee        {}
//	cheatSet                          cat, value: number
//	reportStart                       {}
//	reportSelect                      targetId, cat
//	rollOverlayOpen, rollOverlayClose {}
//	dozOverlayStart                   {}
//
// Server -> Client
//
//	init        you, version, state (sent once, to the joining client)
//	update      version, state
//	rollOverlay overlay{show, byId, byName}
//	dozOverlay  overlay{show, byId, byName, ms}
//	sfx         sfx{name, byId}
//	full        sent before the socket is closed when the match has no seat
//
// Malformed or illegal client messages are dropped without a reply.
package types
