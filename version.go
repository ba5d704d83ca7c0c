package formtree

// Version is the formtree release reported by the CLI and the HTTP API.
const Version = "0.4.0"
