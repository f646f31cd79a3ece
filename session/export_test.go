package session

// Expand exposes template expansion to tests.
var Expand = expand
