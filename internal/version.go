package internal

// Version is the flashvoz release version.
const Version = "0.3.0"
