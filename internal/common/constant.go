package common

// SessionTokenHeader carries the bearer session token on sync API requests.
const SessionTokenHeader = "Authorization"

// DefaultAppID identifies this application's snapshot in the sync backend,
// which stores one snapshot per (user, app) pair.
const DefaultAppID = "jayaapp"
