package gitlab

// MapState exposes the state table mapping to tests.
var MapState = mapState
