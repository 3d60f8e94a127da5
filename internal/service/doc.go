// Package service exposes protocol handlers to DevTools frontends over
// WebSocket, with the HTTP discovery endpoints (/json, /json/list,
// /json/version, /json/protocol) that Chrome-family tooling probes to find
// debug targets.
package service
