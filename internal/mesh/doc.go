// Package mesh holds the data collected from an 802.11s mesh: router
// interfaces, associated stations, and the readings each router reports
// about its mesh peers and Wi-Fi clients.
//
// Types here are plain values with no behaviour beyond small derived
// accessors. Parsing lives in collector/parsers and graph assembly in
// topology.
package mesh
